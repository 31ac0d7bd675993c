// internal/dali/fields.go
package dali

// Bit-field views of the emergency query responses.
// Bit positions follow IEC 62386-202.

// Mode is the QUERY EMERGENCY MODE response.
type Mode byte

// ModeBits returns bits 5:0, the one-hot operating mode.
func (m Mode) ModeBits() byte { return byte(m) & 0x3F }
func (m Mode) FunctionTestActive() bool { return byte(m)&0x10 != 0 }
func (m Mode) DurationTestActive() bool { return byte(m)&0x20 != 0 }
func (m Mode) HardwiredInhibit() bool { return byte(m)&0x40 != 0 }
func (m Mode) HardwiredSwitchOn() bool { return byte(m)&0x80 != 0 }

// Features is the QUERY FEATURES response.
type Features byte

func (f Features) IntegralEmergencyGear() bool { return byte(f)&0x01 != 0 }
func (f Features) Maintained() bool { return byte(f)&0x02 != 0 }
func (f Features) SwitchedMaintained() bool { return byte(f)&0x04 != 0 }
func (f Features) AutoTestCapability() bool { return byte(f)&0x08 != 0 }
func (f Features) AdjustableLevel() bool { return byte(f)&0x10 != 0 }
func (f Features) HardwiredInhibit() bool { return byte(f)&0x20 != 0 }
func (f Features) PhysicalSelection() bool { return byte(f)&0x40 != 0 }
func (f Features) RelightInRest() bool { return byte(f)&0x80 != 0 }

// Status is the QUERY EMERGENCY STATUS response.
type Status byte

func (s Status) InhibitMode() bool { return byte(s)&0x01 != 0 }
func (s Status) FunctionTestDone() bool { return byte(s)&0x02 != 0 }
func (s Status) DurationTestDone() bool { return byte(s)&0x04 != 0 }
func (s Status) BatteryFullyCharged() bool { return byte(s)&0x08 != 0 }
func (s Status) FunctionTestPending() bool { return byte(s)&0x10 != 0 }
func (s Status) DurationTestPending() bool { return byte(s)&0x20 != 0 }
func (s Status) IdentificationActive() bool { return byte(s)&0x40 != 0 }
func (s Status) PhysicallySelected() bool { return byte(s)&0x80 != 0 }

// FailureStatus is the QUERY FAILURE STATUS response.
type FailureStatus byte

func (f FailureStatus) CircuitFailure() bool { return byte(f)&0x01 != 0 }
func (f FailureStatus) BatteryDurationFailure() bool { return byte(f)&0x02 != 0 }
func (f FailureStatus) BatteryFailure() bool { return byte(f)&0x04 != 0 }
func (f FailureStatus) EmergencyLampFailure() bool { return byte(f)&0x08 != 0 }
func (f FailureStatus) FunctionTestMaxDelayExceeded() bool { return byte(f)&0x10 != 0 }
func (f FailureStatus) DurationTestMaxDelayExceeded() bool { return byte(f)&0x20 != 0 }
func (f FailureStatus) FunctionTestFailed() bool { return byte(f)&0x40 != 0 }
func (f FailureStatus) DurationTestFailed() bool { return byte(f)&0x80 != 0 }
