// internal/bus/bus.go
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/emcon/internal/dali"
)

// Transport moves single forward frames on one physical bus.
// Implementations are frame-level only: no device-type handling,
// no repetition, no retries.
type Transport interface {
	Send(ctx context.Context, cmd dali.Command) (dali.Response, error)
	Close() error
}

// DialFunc opens a transport. ONE attempt per call.
type DialFunc func(ctx context.Context) (Transport, error)

// ErrReleased is returned by a handle used after Release.
var ErrReleased = errors.New("bus: handle released")

// TransportError wraps any failure talking to a bus.
type TransportError struct {
	Bus string
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bus %s: %s: %v", e.Bus, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Bus is a scoped resource: at most one Handle exists at a time.
type Bus struct {
	Site string
	Name string

	dial DialFunc
	mu   sync.Mutex
}

// New creates a bus with the given transport factory.
func New(site, name string, dial DialFunc) *Bus {
	return &Bus{Site: site, Name: name, dial: dial}
}

func (b *Bus) String() string {
	return b.Site + "/" + b.Name
}

// Acquire locks the bus and opens its transport.
// The caller MUST call Release on the returned handle.
func (b *Bus) Acquire(ctx context.Context) (*Handle, error) {
	if b.dial == nil {
		return nil, &TransportError{Bus: b.String(), Op: "dial", Err: errors.New("no transport configured")}
	}

	b.mu.Lock()

	tr, err := b.dial(ctx)
	if err != nil {
		b.mu.Unlock()
		return nil, &TransportError{Bus: b.String(), Op: "dial", Err: err}
	}

	return &Handle{bus: b, tr: tr}, nil
}

// With acquires the bus, runs fn and releases the bus on every exit path.
func (b *Bus) With(ctx context.Context, fn func(h *Handle) error) (err error) {
	h, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(h)
}
