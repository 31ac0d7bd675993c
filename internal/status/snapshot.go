// internal/status/snapshot.go
package status

import "time"

// Snapshot is the observed state of one unit after a completed poll.
//
// The zero value is a fresh snapshot: never polled, not present.
// Optional values are nil when unknown.
type Snapshot struct {
	Timestamp time.Time

	Present   bool
	Emergency bool

	Mode     EmergencyMode
	Failures *Failures

	// BatteryCharge is a percentage, 0..100.
	BatteryCharge *float64

	FunctionTest       TestStatus
	DurationTest       TestStatus
	DurationTestResult *int // minutes

	NextFunctionTest NextTestStatus
	NextDurationTest NextTestStatus

	RatedDuration        *int // minutes
	FunctionTestInterval *int // days
	DurationTestInterval *int // weeks
	ExecutionTimeout     *int // days
	FunctionTestDelay    *int // minutes from Timestamp
	DurationTestDelay    *int // minutes from Timestamp
}

// Failures are the hardware failure flags of the failure status response.
type Failures struct {
	Circuit         bool
	BatteryDuration bool
	Battery         bool
	Lamp            bool
}

// Expected is the configuration a unit must report to pass.
type Expected struct {
	RatedDuration        int // minutes
	FunctionTestInterval int // days
	DurationTestInterval int // weeks
	ExecutionTimeout     int // days
}

// ScheduledFunctionTest returns when the next function test is due.
func (s Snapshot) ScheduledFunctionTest() (time.Time, bool) {
	return scheduled(s.Timestamp, s.FunctionTestDelay)
}

// ScheduledDurationTest returns when the next duration test is due.
func (s Snapshot) ScheduledDurationTest() (time.Time, bool) {
	return scheduled(s.Timestamp, s.DurationTestDelay)
}

func scheduled(at time.Time, delay *int) (time.Time, bool) {
	if delay == nil || at.IsZero() {
		return time.Time{}, false
	}
	return at.Add(time.Duration(*delay) * time.Minute), true
}

func (s Snapshot) failures() Failures {
	if s.Failures == nil {
		return Failures{}
	}
	return *s.Failures
}

// matches reports whether an observed value equals the expectation.
// Unknown never matches.
func matches(observed *int, expected int) bool {
	return observed != nil && *observed == expected
}
