// internal/bus/sim/sim.go
package sim

import (
	"context"
	"errors"
	"sync"

	"github.com/tamzrod/emcon/internal/bus"
	"github.com/tamzrod/emcon/internal/dali"
)

// Gear is the simulated state of one emergency unit.
// Raw register values, exactly as a real unit would report them.
type Gear struct {
	DeviceTypes []uint8

	RatedDuration      byte // units of 2 minutes
	Features           dali.Features
	Mode               dali.Mode
	Status             dali.Status
	Failure            dali.FailureStatus
	BatteryCharge      byte // 0..254, MASK = unknown
	DurationTestResult byte // units of 2 minutes

	FunctionInterval byte   // days
	DurationInterval byte   // weeks
	ExecutionTimeout byte   // days
	NextFunctionTest uint16 // units of 15 minutes
	NextDurationTest uint16 // units of 15 minutes

	nextDT int
}

// Healthy returns a passing unit: 180 min rated duration, weekly function
// test, yearly duration test, 7 day timeout, both tests done and passed.
func Healthy() *Gear {
	return &Gear{
		DeviceTypes:      []uint8{dali.DeviceTypeEmergency},
		RatedDuration:    90,
		Features:         dali.Features(0x08), // auto test capability
		Mode:             dali.Mode(0x02),     // normal
		Status:           dali.Status(0x0E),   // ft done, dt done, battery charged
		BatteryCharge:    254,
		FunctionInterval: 7,
		DurationInterval: 52,
		ExecutionTimeout: 7,
		NextFunctionTest: 0x0010,
		NextDurationTest: 0x0110,
	}
}

// Bus is an in-memory DALI bus. It is safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	gear map[uint8]*Gear

	dtr0    byte
	dtr1    byte
	enabled int // device type enabled for the next frame; -1 none

	frames []dali.Command

	// FailOn, when set, is consulted before every frame.
	// A non-nil error is returned to the caller as a transport failure.
	FailOn func(cmd dali.Command) error

	// DialErr, when set, makes Dial fail.
	DialErr error
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{gear: make(map[uint8]*Gear), enabled: -1}
}

// Add places gear at a short address.
func (b *Bus) Add(addr uint8, g *Gear) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gear[addr] = g
	return b
}

// Remove empties a short address.
func (b *Bus) Remove(addr uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.gear, addr)
}

// Gear returns the gear at addr (nil if empty).
func (b *Bus) Gear(addr uint8) *Gear {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gear[addr]
}

// Frames returns a copy of every command seen so far, in order.
func (b *Bus) Frames() []dali.Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dali.Command(nil), b.frames...)
}

// Dial satisfies bus.DialFunc.
func (b *Bus) Dial(ctx context.Context) (bus.Transport, error) {
	if b.DialErr != nil {
		return nil, b.DialErr
	}
	return &session{bus: b}, nil
}

type session struct {
	bus    *Bus
	closed bool
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

func (s *session) Send(ctx context.Context, cmd dali.Command) (dali.Response, error) {
	if s.closed {
		return dali.NoReply, errors.New("sim: session closed")
	}
	return s.bus.handle(cmd)
}

// ---- frame handling ----

func (b *Bus) handle(cmd dali.Command) (dali.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailOn != nil {
		if err := b.FailOn(cmd); err != nil {
			return dali.NoReply, err
		}
	}
	b.frames = append(b.frames, cmd)

	hi := cmd.AddressByte()
	lo := cmd.Opcode()

	// special commands
	switch hi {
	case 0xA3:
		b.dtr0 = lo
		b.enabled = -1
		return dali.NoReply, nil
	case 0xC3:
		b.dtr1 = lo
		b.enabled = -1
		return dali.NoReply, nil
	case 0xC1:
		b.enabled = int(lo)
		return dali.NoReply, nil
	}

	enabled := b.enabled
	b.enabled = -1

	var replies []byte
	for addr, g := range b.gear {
		if !addressed(hi, addr) {
			continue
		}
		if v, ok := b.apply(g, lo, enabled); ok {
			replies = append(replies, v)
		}
	}

	switch {
	case !cmd.Answer || len(replies) == 0:
		return dali.NoReply, nil
	case len(replies) > 1:
		return dali.Response{Framing: true}, nil
	default:
		return dali.Reply(replies[0]), nil
	}
}

func addressed(hi byte, addr uint8) bool {
	if hi == 0xFF {
		return true
	}
	if hi&0x80 != 0 || hi&0x01 == 0 {
		return false
	}
	return hi>>1 == addr
}

// apply executes one opcode on g. Caller holds b.mu.
func (b *Bus) apply(g *Gear, op byte, enabled int) (byte, bool) {
	switch op {
	case 0x91: // QUERY CONTROL GEAR PRESENT
		return dali.MASK, true
	case 0x99: // QUERY DEVICE TYPE
		g.nextDT = 0
		switch len(g.DeviceTypes) {
		case 0:
			return 0, true
		case 1:
			return g.DeviceTypes[0], true
		default:
			return dali.DeviceTypeMultiple, true
		}
	case 0xA7: // QUERY NEXT DEVICE TYPE
		if len(g.DeviceTypes) < 2 || g.nextDT >= len(g.DeviceTypes) {
			return dali.DeviceTypeNoMore, true
		}
		v := g.DeviceTypes[g.nextDT]
		g.nextDT++
		return v, true
	case 0x9C: // QUERY CONTENT DTR1
		return b.dtr1, true
	}

	if enabled != int(dali.DeviceTypeEmergency) || !hasType(g, dali.DeviceTypeEmergency) {
		return 0, false
	}

	switch op {
	case 0xE0: // REST
		if g.Mode.ModeBits() == 0x04 || g.Mode.ModeBits() == 0x08 {
			g.Mode = dali.Mode(0x01)
		}
	case 0xE1: // INHIBIT
		g.Status |= 0x01
	case 0xE2: // RE-LIGHT/RESET INHIBIT
		g.Status &^= 0x01
	case 0xE3: // START FUNCTION TEST
		g.Status |= 0x10
	case 0xE4: // START DURATION TEST
		g.Status |= 0x20
	case 0xE5: // STOP TEST
		g.Status &^= 0x30
		g.Mode &^= 0x30
	case 0xE6: // RESET FUNCTION TEST DONE FLAG
		g.Status &^= 0x02
	case 0xE7: // RESET DURATION TEST DONE FLAG
		g.Status &^= 0x04
	case 0xE8: // RESET LAMP TIME
	case 0xF0: // START IDENTIFICATION
		g.Status |= 0x40
	case 0xF1:
		return g.BatteryCharge, true
	case 0xF2:
		return b.testTiming(g), true
	case 0xF3:
		return g.DurationTestResult, true
	case 0xF9:
		return g.RatedDuration, true
	case 0xFA:
		return byte(g.Mode), true
	case 0xFB:
		return byte(g.Features), true
	case 0xFC:
		return byte(g.Failure), true
	case 0xFD:
		return byte(g.Status), true
	}
	return 0, false
}

// testTiming answers QUERY TEST TIMING for the selector in DTR0.
// Selectors 0 and 2 also load the low byte into DTR1.
func (b *Bus) testTiming(g *Gear) byte {
	switch b.dtr0 {
	case dali.TimingNextFunctionTest:
		b.dtr1 = byte(g.NextFunctionTest)
		return byte(g.NextFunctionTest >> 8)
	case dali.TimingNextDurationTest:
		b.dtr1 = byte(g.NextDurationTest)
		return byte(g.NextDurationTest >> 8)
	case dali.TimingFunctionInterval:
		return g.FunctionInterval
	case dali.TimingDurationInterval:
		return g.DurationInterval
	case dali.TimingExecutionTimeout:
		return g.ExecutionTimeout
	default:
		return dali.MASK
	}
}

func hasType(g *Gear, dt uint8) bool {
	for _, t := range g.DeviceTypes {
		if t == dt {
			return true
		}
	}
	return false
}
