// internal/dali/emergency.go
package dali

// IEC 62386-202 (device type 1, self-contained emergency lighting).
// All commands here are application extended commands.

const (
	opRest                      byte = 0xE0
	opInhibit                   byte = 0xE1
	opReLightResetInhibit       byte = 0xE2
	opStartFunctionTest         byte = 0xE3
	opStartDurationTest         byte = 0xE4
	opStopTest                  byte = 0xE5
	opResetFunctionTestDoneFlag byte = 0xE6
	opResetDurationTestDoneFlag byte = 0xE7
	opResetLampTime             byte = 0xE8
	opStartIdentification       byte = 0xF0
	opQueryBatteryCharge        byte = 0xF1
	opQueryTestTiming           byte = 0xF2
	opQueryDurationTestResult   byte = 0xF3
	opQueryRatedDuration        byte = 0xF9
	opQueryEmergencyMode        byte = 0xFA
	opQueryEmergencyFeatures    byte = 0xFB
	opQueryFailureStatus        byte = 0xFC
	opQueryEmergencyStatus      byte = 0xFD
)

// Test timing selectors written to DTR0 before QUERY TEST TIMING.
const (
	TimingNextFunctionTest byte = 0 // high byte; low byte lands in DTR1
	TimingNextDurationTest byte = 2 // high byte; low byte lands in DTR1
	TimingFunctionInterval byte = 4 // days
	TimingDurationInterval byte = 5 // weeks
	TimingExecutionTimeout byte = 6 // days
)

func emergencyCommand(name string, a Address, opcode byte, answer bool) Command {
	c := gearCommand(name, a, opcode, answer)
	c.Extended = true
	c.DeviceType = DeviceTypeEmergency
	return c
}

// ---- queries ----

func QueryBatteryCharge(a Address) Command {
	return emergencyCommand("QueryBatteryCharge", a, opQueryBatteryCharge, true)
}

func QueryTestTiming(a Address) Command {
	return emergencyCommand("QueryTestTiming", a, opQueryTestTiming, true)
}

func QueryDurationTestResult(a Address) Command {
	return emergencyCommand("QueryDurationTestResult", a, opQueryDurationTestResult, true)
}

func QueryRatedDuration(a Address) Command {
	return emergencyCommand("QueryRatedDuration", a, opQueryRatedDuration, true)
}

func QueryEmergencyMode(a Address) Command {
	return emergencyCommand("QueryEmergencyMode", a, opQueryEmergencyMode, true)
}

func QueryEmergencyFeatures(a Address) Command {
	return emergencyCommand("QueryEmergencyFeatures", a, opQueryEmergencyFeatures, true)
}

func QueryEmergencyFailureStatus(a Address) Command {
	return emergencyCommand("QueryEmergencyFailureStatus", a, opQueryFailureStatus, true)
}

func QueryEmergencyStatus(a Address) Command {
	return emergencyCommand("QueryEmergencyStatus", a, opQueryEmergencyStatus, true)
}

// ---- operator commands ----

func Rest(a Address) Command {
	return emergencyCommand("Rest", a, opRest, false)
}

func Inhibit(a Address) Command {
	return emergencyCommand("Inhibit", a, opInhibit, false)
}

func ReLightResetInhibit(a Address) Command {
	return emergencyCommand("ReLightResetInhibit", a, opReLightResetInhibit, false)
}

func StartFunctionTest(a Address) Command {
	return emergencyCommand("StartFunctionTest", a, opStartFunctionTest, false)
}

func StartDurationTest(a Address) Command {
	return emergencyCommand("StartDurationTest", a, opStartDurationTest, false)
}

func StopTest(a Address) Command {
	return emergencyCommand("StopTest", a, opStopTest, false)
}

func ResetFunctionTestDoneFlag(a Address) Command {
	return emergencyCommand("ResetFunctionTestDoneFlag", a, opResetFunctionTestDoneFlag, false)
}

func ResetDurationTestDoneFlag(a Address) Command {
	return emergencyCommand("ResetDurationTestDoneFlag", a, opResetDurationTestDoneFlag, false)
}

func ResetLampTime(a Address) Command {
	c := emergencyCommand("ResetLampTime", a, opResetLampTime, false)
	c.SendTwice = true
	return c
}

func StartIdentification(a Address) Command {
	return emergencyCommand("StartIdentification", a, opStartIdentification, false)
}

// Opcode returns the low byte of a gear command frame.
func (c Command) Opcode() byte { return byte(c.Frame) }

// AddressByte returns the high byte of the frame.
func (c Command) AddressByte() byte { return byte(c.Frame >> 8) }
