// internal/site/scan.go
package site

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/emcon/internal/bus"
	"github.com/tamzrod/emcon/internal/poller"
	"github.com/tamzrod/emcon/internal/status"
)

// Observer is told about every unit as soon as its poll completes.
// With ConcurrentBuses, calls are serialized but not in configured order.
type Observer interface {
	UnitDone(u *Unit)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(u *Unit)

func (f ObserverFunc) UnitDone(u *Unit) { f(u) }

// Result is the outcome of one scan of a site.
type Result struct {
	CycleID    string
	ReportTime time.Time
	Duration   time.Duration

	// Pass is true iff every unit passed.
	Pass bool

	// Categories tallies units by bounded verdict tag.
	Categories map[status.Category]int

	// Results tallies units by verdict text.
	Results map[string]int

	Errors int

	// Units are copies of every unit taken when the scan finished, in
	// configured order. Later scans never touch them.
	Units []*Unit
}

// Scan polls every unit once and evaluates it.
//
// A unit whose poll fails is marked Error and the scan continues; one
// unit never aborts the site. Every unit's previous state is discarded
// before its poll.
func (s *Site) Scan(ctx context.Context, obs Observer) Result {
	res := Result{
		CycleID:    uuid.NewString(),
		ReportTime: time.Now(),
	}
	log := s.opts.Logger.WithValues("site", s.Key, "cycle", res.CycleID)
	log.V(1).Info("scan started", "units", len(s.Units))

	var mu sync.Mutex
	done := func(u *Unit) {
		if obs == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		obs.UnitDone(u)
	}

	if s.opts.ConcurrentBuses {
		var g errgroup.Group
		for _, units := range s.unitsByBus() {
			g.Go(func() error {
				for _, u := range units {
					s.pollUnit(ctx, u)
					done(u)
				}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, u := range s.Units {
			s.pollUnit(ctx, u)
			done(u)
		}
	}

	res.Pass = true
	res.Categories = make(map[status.Category]int)
	res.Results = make(map[string]int)
	res.Units = make([]*Unit, 0, len(s.Units))
	for _, u := range s.Units {
		res.Units = append(res.Units, u.clone())
		res.Categories[u.Summary.Category]++
		res.Results[u.Summary.Text]++
		if u.Err != nil {
			res.Errors++
		}
		if !u.Pass() {
			res.Pass = false
		}
	}
	res.Duration = time.Since(res.ReportTime)

	log.Info("scan finished", "pass", res.Pass, "units", len(s.Units), "errors", res.Errors, "duration", res.Duration)
	s.last = res
	return res
}

// pollUnit runs one poll cycle for u with its bus held for the whole cycle.
func (s *Site) pollUnit(ctx context.Context, u *Unit) {
	u.reset()

	var pr poller.PollResult
	err := u.bus.With(ctx, func(h *bus.Handle) error {
		pr = u.poller.PollOnce(ctx, h)
		return pr.Err
	})

	if err != nil {
		u.Err = err
		u.Summary = status.ErrorSummary(err)
		s.opts.Logger.Error(err, "unit poll failed", "unit", u.ID())
		return
	}

	u.Snapshot = pr.Snapshot
	u.Summary = status.Evaluate(u.Snapshot, u.Expected)
	s.opts.Logger.V(1).Info("unit polled", "unit", u.ID(), "summary", u.Summary.Text)
}

// unitsByBus groups units per bus, keeping configured order in each group.
func (s *Site) unitsByBus() [][]*Unit {
	idx := make(map[string]int, len(s.BusNames))
	var groups [][]*Unit
	for _, u := range s.Units {
		i, ok := idx[u.Bus]
		if !ok {
			i = len(groups)
			idx[u.Bus] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], u)
	}
	return groups
}
