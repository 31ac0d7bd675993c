// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/emcon/internal/dali"
	"github.com/tamzrod/emcon/internal/query"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID  string
	Address dali.Address
}

// Poller reads the emergency state of ONE unit.
// It holds no state between cycles.
type Poller struct {
	cfg Config
	now func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Address.IsBroadcast() {
		return nil, errors.New("poller: unit address must be a short address")
	}
	return &Poller{cfg: cfg, now: time.Now}, nil
}

// PollOnce performs exactly one poll cycle over an acquired bus.
// All-or-nothing: any failure aborts the cycle and no partial
// snapshot is returned.
func (p *Poller) PollOnce(ctx context.Context, s query.Sender) PollResult {
	res := PollResult{
		UnitID:  p.cfg.UnitID,
		Address: p.cfg.Address,
		At:      p.now(),
	}

	r := newRun(query.New(s, p.cfg.Address), res.At)
	var st stateFn = r.presence
	for st != nil {
		st = st(ctx)
	}

	if r.err != nil {
		res.Err = fmt.Errorf("unit %s: %w", p.cfg.UnitID, r.err)
		return res
	}

	// Commit only if every step succeeded
	res.Snapshot = r.snap
	return res
}
