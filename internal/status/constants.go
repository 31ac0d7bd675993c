// internal/status/constants.go
package status

// Unit Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerUnit is the fixed number of registers per unit.
const SlotsPerUnit = 20

// ---- SLOT INDICES ----

const (
	SlotHealthCode         = 0
	SlotCategory           = 1
	SlotFlags              = 2
	SlotMode               = 3
	SlotBatteryCharge      = 4 // tenths of a percent
	SlotFunctionTest       = 5
	SlotDurationTest       = 6
	SlotDurationTestResult = 7 // minutes
	SlotNextFunctionTest   = 8
	SlotNextDurationTest   = 9
	SlotRatedDuration      = 10 // minutes
	SlotFunctionInterval   = 11 // days
	SlotDurationInterval   = 12 // weeks
	SlotExecutionTimeout   = 13 // days

	// 32-bit values, high word first.
	SlotFunctionTestDelay = 14 // minutes, 14..15
	SlotDurationTestDelay = 16 // minutes, 16..17
	SlotPolledAt          = 18 // unix seconds, 18..19
)

// ---- FLAG BITS (SlotFlags) ----

const (
	FlagPresent uint16 = 1 << iota
	FlagEmergency
	FlagCircuitFailure
	FlagBatteryDurationFailure
	FlagBatteryFailure
	FlagLampFailure
)

// ---- SENTINELS ----

// Unknown marks a 16-bit slot whose value was not observed.
const Unknown uint16 = 0xFFFF

// ---- HEALTH CODES ----

// HealthUnknown represents a unit that was never polled.
const HealthUnknown uint16 = 0

// HealthPass represents a passing unit.
const HealthPass uint16 = 1

// HealthFail represents a unit that was polled and failed.
const HealthFail uint16 = 2

// HealthError represents a unit that could not be polled.
const HealthError uint16 = 3
