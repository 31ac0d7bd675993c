// internal/dali/address.go
package dali

import "fmt"

// Address selects the gear a forward frame is sent to.
// Only short addresses and broadcast are needed by this tool.
type Address struct {
	short     uint8
	broadcast bool
}

// MaxShortAddress is the highest valid short address.
const MaxShortAddress = 63

// Short returns the short address n. n must be 0..63.
func Short(n uint8) (Address, error) {
	if n > MaxShortAddress {
		return Address{}, fmt.Errorf("dali: short address %d out of range 0..%d", n, MaxShortAddress)
	}
	return Address{short: n}, nil
}

// MustShort is Short for constants and tests.
func MustShort(n uint8) Address {
	a, err := Short(n)
	if err != nil {
		panic(err)
	}
	return a
}

// Broadcast addresses every gear on the bus.
func Broadcast() Address {
	return Address{broadcast: true}
}

func (a Address) IsBroadcast() bool { return a.broadcast }

// ShortAddress returns the short address and false for broadcast.
func (a Address) ShortAddress() (uint8, bool) {
	return a.short, !a.broadcast
}

// Byte is the address byte of a command frame (selector bit set).
func (a Address) Byte() byte {
	if a.broadcast {
		return 0xFF
	}
	return a.short<<1 | 0x01
}

func (a Address) String() string {
	if a.broadcast {
		return "broadcast"
	}
	return fmt.Sprintf("%d", a.short)
}
