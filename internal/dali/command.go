// internal/dali/command.go
package dali

import "fmt"

// MASK is the backward frame value used by gear for "unknown" or "not supported".
const MASK byte = 0xFF

// Special command address bytes.
const (
	specialDTR0             byte = 0xA3
	specialDTR1             byte = 0xC3
	specialEnableDeviceType byte = 0xC1
)

// Command is one 16-bit forward frame plus the metadata transports need.
type Command struct {
	Name  string
	Frame uint16

	// Answer is true for queries that expect a backward frame.
	Answer bool

	// SendTwice commands must be repeated within 100 ms to take effect.
	SendTwice bool

	// Extended commands are preceded by ENABLE DEVICE TYPE DeviceType.
	Extended   bool
	DeviceType uint8
}

func (c Command) String() string {
	return fmt.Sprintf("%s(0x%04x)", c.Name, c.Frame)
}

// Response is a decoded backward frame.
type Response struct {
	Value byte

	// Present is true when exactly one backward frame was received.
	Present bool

	// Framing is true when the transport saw a garbled reply,
	// usually several gear answering at once.
	Framing bool
}

// NoReply is the response for a query nobody answered.
var NoReply = Response{}

// Reply builds a response carrying a single backward frame.
func Reply(v byte) Response {
	return Response{Value: v, Present: true}
}

// Yes reports whether any gear answered YES (or answered at all).
func (r Response) Yes() bool {
	return r.Present || r.Framing
}

func (r Response) String() string {
	switch {
	case r.Framing:
		return "framing-error"
	case !r.Present:
		return "no"
	default:
		return fmt.Sprintf("0x%02x", r.Value)
	}
}

func gearCommand(name string, a Address, opcode byte, answer bool) Command {
	return Command{
		Name:   name,
		Frame:  uint16(a.Byte())<<8 | uint16(opcode),
		Answer: answer,
	}
}

func specialCommand(name string, first, data byte) Command {
	return Command{
		Name:  name,
		Frame: uint16(first)<<8 | uint16(data),
	}
}

// DTR0 loads data transfer register 0 on every gear of the bus.
func DTR0(v byte) Command { return specialCommand("DTR0", specialDTR0, v) }

// DTR1 loads data transfer register 1 on every gear of the bus.
func DTR1(v byte) Command { return specialCommand("DTR1", specialDTR1, v) }

// EnableDeviceType unlocks application extended commands for the next frame.
func EnableDeviceType(dt uint8) Command {
	return specialCommand("EnableDeviceType", specialEnableDeviceType, dt)
}

// ---- IEC 62386-102 queries ----

const (
	opQueryControlGearPresent byte = 0x91
	opQueryDeviceType         byte = 0x99
	opQueryContentDTR1        byte = 0x9C
	opQueryNextDeviceType     byte = 0xA7
)

// Device type values returned by QUERY DEVICE TYPE / QUERY NEXT DEVICE TYPE.
const (
	DeviceTypeEmergency uint8 = 1
	DeviceTypeMultiple  uint8 = 0xFF
	DeviceTypeNoMore    uint8 = 0xFE
)

// MaxDeviceTypes bounds the QUERY NEXT DEVICE TYPE loop.
const MaxDeviceTypes = 16

func QueryControlGearPresent(a Address) Command {
	return gearCommand("QueryControlGearPresent", a, opQueryControlGearPresent, true)
}

func QueryDeviceType(a Address) Command {
	return gearCommand("QueryDeviceType", a, opQueryDeviceType, true)
}

func QueryNextDeviceType(a Address) Command {
	return gearCommand("QueryNextDeviceType", a, opQueryNextDeviceType, true)
}

func QueryContentDTR1(a Address) Command {
	return gearCommand("QueryContentDTR1", a, opQueryContentDTR1, true)
}
