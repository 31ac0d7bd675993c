// internal/status/summary.go
package status

import "fmt"

// Category is the bounded classification of a unit's state.
// It is safe to use as a tally or metrics label.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryPass
	CategoryNotPresent
	CategoryNotEmergency
	CategoryRatedDuration
	CategoryFunctionTestInterval
	CategoryDurationTestInterval
	CategoryExecutionTimeout
	CategoryCircuitFailure
	CategoryBatteryDurationFailure
	CategoryBatteryFailure
	CategoryLampFailure
	CategoryNextFunctionTest
	CategoryNextDurationTest
	CategoryFunctionTest
	CategoryDurationTest
	CategoryError
)

var categoryNames = [...]string{
	CategoryNone:                   "none",
	CategoryPass:                   "pass",
	CategoryNotPresent:             "not_present",
	CategoryNotEmergency:           "not_emergency",
	CategoryRatedDuration:          "rated_duration",
	CategoryFunctionTestInterval:   "function_test_interval",
	CategoryDurationTestInterval:   "duration_test_interval",
	CategoryExecutionTimeout:       "execution_timeout",
	CategoryCircuitFailure:         "circuit_failure",
	CategoryBatteryDurationFailure: "battery_duration_failure",
	CategoryBatteryFailure:         "battery_failure",
	CategoryLampFailure:            "lamp_failure",
	CategoryNextFunctionTest:       "next_function_test",
	CategoryNextDurationTest:       "next_duration_test",
	CategoryFunctionTest:           "function_test",
	CategoryDurationTest:           "duration_test",
	CategoryError:                  "error",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Categories lists every category in precedence order, CategoryNone excluded.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames)-1)
	for c := CategoryPass; int(c) < len(categoryNames); c++ {
		out = append(out, c)
	}
	return out
}

// Summary is the verdict for one unit: a tag plus the human line.
type Summary struct {
	Category Category
	Text     string
}

// Pass reports whether the unit passed.
func (s Summary) Pass() bool { return s.Category == CategoryPass }

func (s Summary) String() string { return s.Text }

// ErrorSummary is the verdict for a unit whose poll failed.
func ErrorSummary(err error) Summary {
	return Summary{Category: CategoryError, Text: fmt.Sprintf("Error: %v", err)}
}

// Evaluate returns the first failing condition, in fixed precedence order,
// or the pass verdict. Pure: no IO, no clock.
func Evaluate(s Snapshot, exp Expected) Summary {
	f := s.failures()

	switch {
	case !s.Present:
		return Summary{CategoryNotPresent, "Not present"}
	case !s.Emergency:
		return Summary{CategoryNotEmergency, "Not an emergency unit"}
	case !matches(s.RatedDuration, exp.RatedDuration):
		return Summary{CategoryRatedDuration, fmt.Sprintf("Incorrect rated duration %s minutes", intText(s.RatedDuration))}
	case !matches(s.FunctionTestInterval, exp.FunctionTestInterval):
		return Summary{CategoryFunctionTestInterval, "Function test interval is incorrect"}
	case !matches(s.DurationTestInterval, exp.DurationTestInterval):
		return Summary{CategoryDurationTestInterval, "Duration test interval is incorrect"}
	case !matches(s.ExecutionTimeout, exp.ExecutionTimeout):
		return Summary{CategoryExecutionTimeout, "Test execution timeout is incorrect"}
	case f.Circuit:
		return Summary{CategoryCircuitFailure, "Circuit failure"}
	case f.BatteryDuration:
		return Summary{CategoryBatteryDurationFailure, "Battery duration failure"}
	case f.Battery:
		return Summary{CategoryBatteryFailure, "Battery failure"}
	case f.Lamp:
		return Summary{CategoryLampFailure, "Emergency lamp failure"}
	case !s.NextFunctionTest.passing():
		return Summary{CategoryNextFunctionTest, "Next function test " + s.NextFunctionTest.String()}
	case !s.NextDurationTest.passing():
		return Summary{CategoryNextDurationTest, "Next duration test " + s.NextDurationTest.String()}
	case !s.FunctionTest.passing() && s.NextFunctionTest != NextPending:
		return Summary{CategoryFunctionTest, "Function test " + s.FunctionTest.String()}
	case !s.DurationTest.passing() && s.NextDurationTest != NextPending:
		return Summary{CategoryDurationTest, "Duration test " + s.DurationTest.String()}
	}
	return Summary{CategoryPass, "Pass"}
}

func intText(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *v)
}
