// internal/bus/handle.go
package bus

import (
	"context"
	"sync"

	"github.com/tamzrod/emcon/internal/dali"
)

// Handle is an acquired bus.
// All sends are serialized; Atomic holds the lock across a whole batch.
type Handle struct {
	bus *Bus
	tr  Transport

	mu       sync.Mutex
	released bool
}

// Send transmits one command and returns its decoded response.
func (h *Handle) Send(ctx context.Context, cmd dali.Command) (dali.Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.send(ctx, cmd)
}

// Atomic sends cmds back to back. No other send on this handle can be
// interleaved. Responses are returned in command order; the first failure
// aborts the batch.
func (h *Handle) Atomic(ctx context.Context, cmds ...dali.Command) ([]dali.Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]dali.Response, 0, len(cmds))
	for _, c := range cmds {
		r, err := h.send(ctx, c)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Release closes the transport and unlocks the bus. Safe to call twice.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	h.released = true

	err := h.tr.Close()
	h.bus.mu.Unlock()

	if err != nil {
		return &TransportError{Bus: h.bus.String(), Op: "close", Err: err}
	}
	return nil
}

// send expands one logical command into its frames. Caller holds h.mu.
func (h *Handle) send(ctx context.Context, cmd dali.Command) (dali.Response, error) {
	if h.released {
		return dali.NoReply, &TransportError{Bus: h.bus.String(), Op: cmd.Name, Err: ErrReleased}
	}
	if err := ctx.Err(); err != nil {
		return dali.NoReply, &TransportError{Bus: h.bus.String(), Op: cmd.Name, Err: err}
	}

	repeat := 1
	if cmd.SendTwice {
		repeat = 2
	}

	var resp dali.Response
	for i := 0; i < repeat; i++ {
		if cmd.Extended {
			if _, err := h.tr.Send(ctx, dali.EnableDeviceType(cmd.DeviceType)); err != nil {
				return dali.NoReply, &TransportError{Bus: h.bus.String(), Op: cmd.Name, Err: err}
			}
		}

		r, err := h.tr.Send(ctx, cmd)
		if err != nil {
			return dali.NoReply, &TransportError{Bus: h.bus.String(), Op: cmd.Name, Err: err}
		}
		resp = r
	}

	return resp, nil
}
