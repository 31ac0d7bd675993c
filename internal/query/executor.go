// internal/query/executor.go
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/tamzrod/emcon/internal/dali"
)

var (
	ErrNoReply = errors.New("no reply")
	ErrFraming = errors.New("framing error (address collision?)")
)

// Sender is the acquired-bus contract the executor depends on.
// Atomic MUST send its commands back to back with nothing interleaved.
type Sender interface {
	Send(ctx context.Context, cmd dali.Command) (dali.Response, error)
	Atomic(ctx context.Context, cmds ...dali.Command) ([]dali.Response, error)
}

// CommandFunc builds a command for an address.
type CommandFunc func(dali.Address) dali.Command

// Executor runs the query steps for ONE unit over ONE acquired bus.
// Steps run strictly in call order. The first failure is sticky:
// every later step returns it without touching the bus.
type Executor struct {
	s    Sender
	addr dali.Address
	err  error
}

// New creates an executor targeting addr.
func New(s Sender, addr dali.Address) *Executor {
	return &Executor{s: s, addr: addr}
}

// Err returns the first failure, if any.
func (e *Executor) Err() error { return e.err }

func (e *Executor) fail(err error) error {
	if e.err == nil {
		e.err = err
	}
	return e.err
}

// Query sends one command and returns the raw response.
// No reply is not a failure here.
func (e *Executor) Query(ctx context.Context, build CommandFunc) (dali.Response, error) {
	if e.err != nil {
		return dali.NoReply, e.err
	}
	r, err := e.s.Send(ctx, build(e.addr))
	if err != nil {
		return dali.NoReply, e.fail(err)
	}
	return r, nil
}

// Value sends a query that MUST be answered with exactly one backward frame.
func (e *Executor) Value(ctx context.Context, build CommandFunc) (byte, error) {
	cmd := build(e.addr)

	r, err := e.Query(ctx, func(dali.Address) dali.Command { return cmd })
	if err != nil {
		return 0, err
	}
	return e.value(cmd, r)
}

func (e *Executor) value(cmd dali.Command, r dali.Response) (byte, error) {
	switch {
	case r.Framing:
		return 0, e.fail(fmt.Errorf("%s: %w", cmd.Name, ErrFraming))
	case !r.Present:
		return 0, e.fail(fmt.Errorf("%s: %w", cmd.Name, ErrNoReply))
	default:
		return r.Value, nil
	}
}

// SelectThenRead writes selector to DTR0 and performs the paired reads
// as one critical section. DTR0 is shared by every unit on the bus, so
// nothing may be sent between the write and the reads.
func (e *Executor) SelectThenRead(ctx context.Context, selector byte, reads ...CommandFunc) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}

	cmds := make([]dali.Command, 0, len(reads)+1)
	cmds = append(cmds, dali.DTR0(selector))
	for _, build := range reads {
		cmds = append(cmds, build(e.addr))
	}

	resps, err := e.s.Atomic(ctx, cmds...)
	if err != nil {
		return nil, e.fail(err)
	}
	if len(resps) != len(cmds) {
		return nil, e.fail(fmt.Errorf("select %d: got %d responses for %d commands", selector, len(resps), len(cmds)))
	}

	out := make([]byte, 0, len(reads))
	for i, r := range resps[1:] {
		v, err := e.value(cmds[i+1], r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DeviceTypes enumerates the device types the unit implements.
// A unit that does not answer reports none; a garbled answer is ErrFraming.
func (e *Executor) DeviceTypes(ctx context.Context) ([]uint8, error) {
	cmd := dali.QueryDeviceType(e.addr)
	r, err := e.Query(ctx, func(dali.Address) dali.Command { return cmd })
	if err != nil {
		return nil, err
	}
	if r.Framing {
		return nil, e.fail(fmt.Errorf("%s: %w", cmd.Name, ErrFraming))
	}
	if !r.Present {
		return nil, nil
	}

	switch r.Value {
	case dali.DeviceTypeNoMore:
		return nil, nil
	case dali.DeviceTypeMultiple:
	default:
		return []uint8{r.Value}, nil
	}

	var types []uint8
	for i := 0; i < dali.MaxDeviceTypes; i++ {
		v, err := e.Value(ctx, dali.QueryNextDeviceType)
		if err != nil {
			return nil, err
		}
		if v == dali.DeviceTypeNoMore {
			return types, nil
		}
		types = append(types, v)
	}
	return nil, e.fail(fmt.Errorf("device type enumeration did not terminate after %d entries", dali.MaxDeviceTypes))
}
