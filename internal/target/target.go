// internal/target/target.go
package target

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tamzrod/emcon/internal/bus"
	"github.com/tamzrod/emcon/internal/dali"
	"github.com/tamzrod/emcon/internal/site"
)

var (
	ErrTargetNotFound = errors.New("target not found")
	ErrInvalidTarget  = errors.New("invalid target")
)

// Target names what an operator command acts on: "site[/bus[/address]]".
// An empty Bus means every bus of the site. A nil Address means broadcast.
type Target struct {
	Site    string
	Bus     string
	Address *uint8
}

func (t Target) String() string {
	s := t.Site
	if t.Bus != "" {
		s += "/" + t.Bus
	}
	if t.Address != nil {
		s += "/" + strconv.Itoa(int(*t.Address))
	}
	return s
}

// Parse reads "site[/bus[/address]]".
func Parse(s string) (Target, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return Target{}, fmt.Errorf("%w %q: expected site[/bus[/address]]", ErrInvalidTarget, s)
	}
	for _, p := range parts {
		if p == "" {
			return Target{}, fmt.Errorf("%w %q: empty component", ErrInvalidTarget, s)
		}
	}

	t := Target{Site: parts[0]}
	if len(parts) > 1 {
		t.Bus = parts[1]
	}
	if len(parts) > 2 {
		n, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil || n > dali.MaxShortAddress {
			return Target{}, fmt.Errorf("%w %q: address must be 0..%d", ErrInvalidTarget, s, dali.MaxShortAddress)
		}
		a := uint8(n)
		t.Address = &a
	}
	return t, nil
}

// Resolved is one bus and the address to send to on it.
type Resolved struct {
	Bus     *bus.Bus
	Address dali.Address
}

// Resolve maps a target onto configured buses.
// An address must belong to a configured unit on that bus.
func Resolve(r *site.Registry, t Target) ([]Resolved, error) {
	s, ok := r.Get(t.Site)
	if !ok {
		return nil, fmt.Errorf("%w: site %q", ErrTargetNotFound, t.Site)
	}

	if t.Bus == "" {
		out := make([]Resolved, 0, len(s.BusNames))
		for _, name := range s.BusNames {
			out = append(out, Resolved{Bus: s.Buses[name], Address: dali.Broadcast()})
		}
		return out, nil
	}

	b, ok := s.Buses[t.Bus]
	if !ok {
		return nil, fmt.Errorf("%w: bus %q at site %q", ErrTargetNotFound, t.Bus, t.Site)
	}

	if t.Address == nil {
		return []Resolved{{Bus: b, Address: dali.Broadcast()}}, nil
	}

	for _, u := range s.Units {
		if u.Bus == t.Bus && u.Address == *t.Address {
			return []Resolved{{Bus: b, Address: dali.MustShort(u.Address)}}, nil
		}
	}
	return nil, fmt.Errorf("%w: address %d on bus %q at site %q", ErrTargetNotFound, *t.Address, t.Bus, t.Site)
}
