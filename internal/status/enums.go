// internal/status/enums.go
package status

// EmergencyMode is the operating mode reported by a unit.
// The zero value is ModeInvalid, which is also what a fresh snapshot reports.
type EmergencyMode uint8

const (
	ModeInvalid EmergencyMode = iota
	ModeNormal
	ModeInhibit
	ModeRest
	ModeEmergency
	ModeExtendedEmergency
	ModeFunctionTest
	ModeDurationTest
)

var modeNames = [...]string{
	ModeInvalid:           "Invalid",
	ModeNormal:            "Normal",
	ModeInhibit:           "Inhibit",
	ModeRest:              "Rest",
	ModeEmergency:         "Emergency",
	ModeExtendedEmergency: "Extended emergency",
	ModeFunctionTest:      "Function test",
	ModeDurationTest:      "Duration test",
}

func (m EmergencyMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return modeNames[ModeInvalid]
}

// modeBits maps the one-hot bits 5:0 of the mode response.
var modeBits = map[byte]EmergencyMode{
	0x01: ModeRest,
	0x02: ModeNormal,
	0x04: ModeEmergency,
	0x08: ModeExtendedEmergency,
	0x10: ModeFunctionTest,
	0x20: ModeDurationTest,
}

// ModeFromBits decodes bits 5:0 of the mode response.
// Anything other than exactly one known bit is ModeInvalid.
func ModeFromBits(bits byte) EmergencyMode {
	if m, ok := modeBits[bits&0x3F]; ok {
		return m
	}
	return ModeInvalid
}

// TestStatus is the outcome of the last function or duration test.
type TestStatus uint8

const (
	TestNotDone TestStatus = iota
	TestPass
	TestFail
	TestInProgress
)

func (s TestStatus) String() string {
	switch s {
	case TestPass:
		return "pass"
	case TestFail:
		return "fail"
	case TestInProgress:
		return "in progress"
	default:
		return "not done"
	}
}

// passing reports whether s does not by itself fail a unit.
func (s TestStatus) passing() bool {
	return s == TestPass || s == TestInProgress
}

// NextTestStatus is the scheduling state of the next automatic test.
type NextTestStatus uint8

const (
	NextNotScheduled NextTestStatus = iota
	NextScheduled
	NextPending
	NextOverdue
)

func (s NextTestStatus) String() string {
	switch s {
	case NextScheduled:
		return "scheduled"
	case NextPending:
		return "pending"
	case NextOverdue:
		return "overdue"
	default:
		return "not scheduled"
	}
}

func (s NextTestStatus) passing() bool {
	return s == NextScheduled || s == NextPending
}
