// internal/site/site.go
package site

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-logr/logr"

	"github.com/tamzrod/emcon/internal/bus"
	cfg "github.com/tamzrod/emcon/internal/config"
	"github.com/tamzrod/emcon/internal/poller"
	"github.com/tamzrod/emcon/internal/status"
)

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrNoUnits      = errors.New("site has no units")
)

// Opener builds a Bus from its configuration. bus.Open satisfies it.
type Opener func(site, name string, b cfg.BusConfig) (*bus.Bus, error)

// Options tune a scan. The zero value scans sequentially and logs nowhere.
type Options struct {
	// ConcurrentBuses polls independent buses in parallel.
	// Units on one bus are always polled one at a time, in order.
	ConcurrentBuses bool

	Logger logr.Logger
}

// Unit is one configured emergency unit and the outcome of its last poll.
type Unit struct {
	Site     string
	Bus      string
	Address  uint8
	Name     string
	Expected status.Expected

	Snapshot status.Snapshot
	Summary  status.Summary
	Err      error

	bus    *bus.Bus
	poller *poller.Poller
}

// ID is "site/bus/address".
func (u *Unit) ID() string {
	return u.Site + "/" + u.Bus + "/" + strconv.Itoa(int(u.Address))
}

// Pass reports whether the last poll ended in the pass verdict.
func (u *Unit) Pass() bool { return u.Summary.Pass() }

// Details lists the unit's state for reports.
func (u *Unit) Details() []string {
	if u.Err != nil {
		return []string{"Name: " + u.Name, u.Summary.Text}
	}
	return status.Details(u.Name, u.Snapshot, u.Expected)
}

// clone copies the unit's state. Snapshot values are never mutated after
// a poll commits them, so sharing their pointers is safe.
func (u *Unit) clone() *Unit {
	c := *u
	return &c
}

// reset returns the unit to the never-polled state.
func (u *Unit) reset() {
	u.Snapshot = status.Snapshot{}
	u.Summary = status.Evaluate(u.Snapshot, u.Expected)
	u.Err = nil
}

// Site is a named installation: its buses and its units in configured order.
type Site struct {
	Key       string
	Name      string
	EmailTo   []string
	EmailFrom string
	Expected  status.Expected

	Buses    map[string]*bus.Bus
	BusNames []string
	Units    []*Unit

	opts Options
	last Result
}

// New builds a site from normalized configuration.
// Expectations are copied into each unit here and never re-inherited.
func New(sc cfg.SiteConfig, open Opener, opts Options) (*Site, error) {
	if len(sc.Units) == 0 {
		return nil, fmt.Errorf("site %s: %w", sc.Key, ErrNoUnits)
	}

	s := &Site{
		Key:       sc.Key,
		Name:      sc.Name,
		EmailTo:   sc.EmailTo,
		EmailFrom: sc.EmailFrom,
		Expected:  expected(sc.Expected),
		Buses:     make(map[string]*bus.Bus, len(sc.Buses)),
		BusNames:  sc.BusKeys(),
		opts:      opts,
	}

	for _, name := range s.BusNames {
		b, err := open(sc.Key, name, sc.Buses[name])
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Key, err)
		}
		s.Buses[name] = b
	}

	for _, uc := range sc.Units {
		b, ok := s.Buses[uc.Bus]
		if !ok {
			return nil, fmt.Errorf("site %s: unit %d: unknown bus %q", sc.Key, uc.Address, uc.Bus)
		}

		p, err := poller.Build(sc.Key, uc)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Key, err)
		}

		u := &Unit{
			Site:     sc.Key,
			Bus:      uc.Bus,
			Address:  uc.Address,
			Name:     uc.Name,
			Expected: expected(uc.Expected),
			bus:      b,
			poller:   p,
		}
		u.reset()
		s.Units = append(s.Units, u)
	}

	return s, nil
}

// Reset returns every unit to the never-polled state.
func (s *Site) Reset() {
	for _, u := range s.Units {
		u.reset()
	}
	s.last = Result{}
}

// Last returns the result of the most recent scan.
func (s *Site) Last() Result { return s.last }

func (s *Site) String() string { return s.Key }

func expected(e cfg.ExpectedConfig) status.Expected {
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return status.Expected{
		RatedDuration:        deref(e.RatedDuration),
		FunctionTestInterval: deref(e.FunctionTestInterval),
		DurationTestInterval: deref(e.DurationTestInterval),
		ExecutionTimeout:     deref(e.ExecutionTimeout),
	}
}
