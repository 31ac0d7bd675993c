// internal/status/details.go
package status

import (
	"fmt"
	"time"
)

// ScheduleLayout formats scheduled test times. Test timing has a
// resolution of 15 minutes, so the line always carries "± 15 min".
const ScheduleLayout = "2006-01-02 15:04"

// Details lists everything noteworthy about a unit, one line each.
// Unlike Evaluate it does not stop at the first problem.
func Details(name string, s Snapshot, exp Expected) []string {
	out := []string{"Name: " + name}
	p := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	if !s.Present {
		p("Not present")
		return out
	}
	if !s.Emergency {
		p("Not an emergency unit")
		return out
	}

	if s.Mode != ModeNormal {
		p("Current mode: %s", s.Mode)
	}

	if !matches(s.RatedDuration, exp.RatedDuration) {
		p("Unexpected rated duration: %s minutes", intText(s.RatedDuration))
	}
	if !matches(s.FunctionTestInterval, exp.FunctionTestInterval) {
		p("Unexpected function test interval: %s days", intText(s.FunctionTestInterval))
	}
	if !matches(s.DurationTestInterval, exp.DurationTestInterval) {
		p("Unexpected duration test interval: %s weeks", intText(s.DurationTestInterval))
	}
	if !matches(s.ExecutionTimeout, exp.ExecutionTimeout) {
		p("Unexpected test execution timeout: %s days", intText(s.ExecutionTimeout))
	}

	f := s.failures()
	if f.Circuit {
		p("Circuit failure")
	}
	if f.BatteryDuration {
		p("Battery duration failure")
	}
	if f.Battery {
		p("Battery failure")
	}
	if f.Lamp {
		p("Emergency lamp failure")
	}

	if s.BatteryCharge != nil && *s.BatteryCharge != 100.0 {
		p("Battery charge: %.1f%%", *s.BatteryCharge)
	}

	if s.FunctionTest != TestPass {
		p("Function test: %s", s.FunctionTest)
	}
	if s.DurationTest != TestPass {
		p("Duration test: %s", s.DurationTest)
		if s.DurationTest == TestFail {
			p("Duration test result: %s minutes", intText(s.DurationTestResult))
		}
	}

	p("Next function test: %s", nextTestText(s.NextFunctionTest, s.ScheduledFunctionTest))
	p("Next duration test: %s", nextTestText(s.NextDurationTest, s.ScheduledDurationTest))

	return out
}

func nextTestText(state NextTestStatus, when func() (time.Time, bool)) string {
	if state == NextScheduled {
		if t, ok := when(); ok {
			return t.Format(ScheduleLayout) + " ± 15 min"
		}
	}
	return state.String()
}
