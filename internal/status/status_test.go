// internal/status/status_test.go
package status

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ip(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

var defaults = Expected{
	RatedDuration:        180,
	FunctionTestInterval: 7,
	DurationTestInterval: 52,
	ExecutionTimeout:     7,
}

// passing returns a snapshot that evaluates to Pass against defaults.
func passing() Snapshot {
	return Snapshot{
		Timestamp:            time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Present:              true,
		Emergency:            true,
		Mode:                 ModeNormal,
		Failures:             &Failures{},
		BatteryCharge:        fp(100),
		FunctionTest:         TestPass,
		DurationTest:         TestPass,
		DurationTestResult:   ip(180),
		NextFunctionTest:     NextScheduled,
		NextDurationTest:     NextScheduled,
		RatedDuration:        ip(180),
		FunctionTestInterval: ip(7),
		DurationTestInterval: ip(52),
		ExecutionTimeout:     ip(7),
		FunctionTestDelay:    ip(240),
		DurationTestDelay:    ip(3990),
	}
}

func TestEvaluate_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
		cat    Category
		text   string
	}{
		{"pass", func(s *Snapshot) {}, CategoryPass, "Pass"},
		{"fresh", func(s *Snapshot) { *s = Snapshot{} }, CategoryNotPresent, "Not present"},
		{"not emergency", func(s *Snapshot) { s.Emergency = false }, CategoryNotEmergency, "Not an emergency unit"},
		{"rated duration", func(s *Snapshot) { s.RatedDuration = ip(120) }, CategoryRatedDuration, "Incorrect rated duration 120 minutes"},
		{"ft interval before failures", func(s *Snapshot) {
			s.FunctionTestInterval = ip(14)
			s.Failures.Circuit = true
		}, CategoryFunctionTestInterval, "Function test interval is incorrect"},
		{"dt interval unknown", func(s *Snapshot) { s.DurationTestInterval = nil }, CategoryDurationTestInterval, "Duration test interval is incorrect"},
		{"timeout", func(s *Snapshot) { s.ExecutionTimeout = ip(1) }, CategoryExecutionTimeout, "Test execution timeout is incorrect"},
		{"circuit beats battery", func(s *Snapshot) {
			s.Failures.Circuit = true
			s.Failures.Battery = true
		}, CategoryCircuitFailure, "Circuit failure"},
		{"battery duration", func(s *Snapshot) { s.Failures.BatteryDuration = true }, CategoryBatteryDurationFailure, "Battery duration failure"},
		{"battery", func(s *Snapshot) { s.Failures.Battery = true }, CategoryBatteryFailure, "Battery failure"},
		{"lamp", func(s *Snapshot) { s.Failures.Lamp = true }, CategoryLampFailure, "Emergency lamp failure"},
		{"next ft overdue", func(s *Snapshot) { s.NextFunctionTest = NextOverdue }, CategoryNextFunctionTest, "Next function test overdue"},
		{"next dt not scheduled", func(s *Snapshot) { s.NextDurationTest = NextNotScheduled }, CategoryNextDurationTest, "Next duration test not scheduled"},
		{"ft failed", func(s *Snapshot) { s.FunctionTest = TestFail }, CategoryFunctionTest, "Function test fail"},
		{"ft pending suppresses fail", func(s *Snapshot) {
			s.FunctionTest = TestFail
			s.NextFunctionTest = NextPending
		}, CategoryPass, "Pass"},
		{"ft in progress", func(s *Snapshot) { s.FunctionTest = TestInProgress }, CategoryPass, "Pass"},
		{"dt not done", func(s *Snapshot) { s.DurationTest = TestNotDone }, CategoryDurationTest, "Duration test not done"},
		{"dt pending suppresses", func(s *Snapshot) {
			s.DurationTest = TestNotDone
			s.NextDurationTest = NextPending
		}, CategoryPass, "Pass"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := passing()
			tc.mutate(&s)

			got := Evaluate(s, defaults)
			want := Summary{Category: tc.cat, Text: tc.text}
			if got != want {
				t.Fatalf("summary mismatch: got=%+v want=%+v", got, want)
			}
			if got.Pass() != (tc.cat == CategoryPass) {
				t.Fatalf("pass mismatch: got=%v", got.Pass())
			}
		})
	}
}

func TestErrorSummary(t *testing.T) {
	s := ErrorSummary(errors.New("bus office/ground: connection refused"))

	if s.Category != CategoryError || s.Pass() {
		t.Fatalf("unexpected verdict: %+v", s)
	}
	if s.Text != "Error: bus office/ground: connection refused" {
		t.Fatalf("unexpected text: %q", s.Text)
	}
	if s.Category == CategoryNotPresent {
		t.Fatalf("error must be distinct from not present")
	}
}

func TestDetails_NotPresent(t *testing.T) {
	got := Details("Stairwell", Snapshot{}, defaults)
	want := []string{"Name: Stairwell", "Not present"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("details (-want +got):\n%s", diff)
	}
}

func TestDetails_Passing(t *testing.T) {
	got := Details("Exit 1", passing(), defaults)
	want := []string{
		"Name: Exit 1",
		"Next function test: 2024-03-01 14:00 ± 15 min",
		"Next duration test: 2024-03-04 04:30 ± 15 min",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("details (-want +got):\n%s", diff)
	}
}

func TestDetails_Everything(t *testing.T) {
	s := passing()
	s.Mode = ModeInhibit
	s.RatedDuration = ip(120)
	s.FunctionTestInterval = ip(14)
	s.DurationTestInterval = ip(26)
	s.ExecutionTimeout = nil
	s.Failures = &Failures{Circuit: true, BatteryDuration: true, Battery: true, Lamp: true}
	s.BatteryCharge = fp(50)
	s.FunctionTest = TestInProgress
	s.DurationTest = TestFail
	s.DurationTestResult = ip(42)
	s.NextFunctionTest = NextPending
	s.NextDurationTest = NextOverdue

	got := Details("Exit 2", s, defaults)
	want := []string{
		"Name: Exit 2",
		"Current mode: Inhibit",
		"Unexpected rated duration: 120 minutes",
		"Unexpected function test interval: 14 days",
		"Unexpected duration test interval: 26 weeks",
		"Unexpected test execution timeout: unknown days",
		"Circuit failure",
		"Battery duration failure",
		"Battery failure",
		"Emergency lamp failure",
		"Battery charge: 50.0%",
		"Function test: in progress",
		"Duration test: fail",
		"Duration test result: 42 minutes",
		"Next function test: pending",
		"Next duration test: overdue",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("details (-want +got):\n%s", diff)
	}
}

func TestDetails_UnknownBatteryOmitted(t *testing.T) {
	s := passing()
	s.BatteryCharge = nil

	for _, line := range Details("x", s, defaults) {
		if len(line) >= 7 && line[:7] == "Battery" {
			t.Fatalf("unknown battery charge listed: %q", line)
		}
	}
}

func TestModeFromBits(t *testing.T) {
	tests := []struct {
		bits byte
		want EmergencyMode
	}{
		{0x01, ModeRest},
		{0x02, ModeNormal},
		{0x04, ModeEmergency},
		{0x08, ModeExtendedEmergency},
		{0x10, ModeFunctionTest},
		{0x20, ModeDurationTest},
		{0x42, ModeNormal}, // bits above 5 ignored
		{0x00, ModeInvalid},
		{0x03, ModeInvalid},
	}

	for _, tc := range tests {
		if got := ModeFromBits(tc.bits); got != tc.want {
			t.Fatalf("bits 0x%02x: got=%s want=%s", tc.bits, got, tc.want)
		}
	}
}

func TestEncode(t *testing.T) {
	s := passing()
	s.BatteryCharge = fp(50)
	s.Failures.Lamp = true
	sum := Evaluate(s, defaults)

	regs := Encode(sum, s)

	if len(regs) != SlotsPerUnit {
		t.Fatalf("unexpected block size: got=%d want=%d", len(regs), SlotsPerUnit)
	}
	if regs[SlotHealthCode] != HealthFail {
		t.Fatalf("health: got=%d want=%d", regs[SlotHealthCode], HealthFail)
	}
	if regs[SlotCategory] != uint16(CategoryLampFailure) {
		t.Fatalf("category: got=%d", regs[SlotCategory])
	}
	if want := FlagPresent | FlagEmergency | FlagLampFailure; regs[SlotFlags] != want {
		t.Fatalf("flags: got=0x%04x want=0x%04x", regs[SlotFlags], want)
	}
	if regs[SlotBatteryCharge] != 500 {
		t.Fatalf("battery: got=%d want=500", regs[SlotBatteryCharge])
	}
	if hi, lo := regs[SlotDurationTestDelay], regs[SlotDurationTestDelay+1]; hi != 0 || lo != 3990 {
		t.Fatalf("dt delay: got=%d,%d want=0,3990", hi, lo)
	}
}

func TestEncode_Fresh(t *testing.T) {
	regs := Encode(Summary{}, Snapshot{})

	if regs[SlotHealthCode] != HealthUnknown {
		t.Fatalf("health: got=%d want=%d", regs[SlotHealthCode], HealthUnknown)
	}
	for _, slot := range []int{SlotBatteryCharge, SlotRatedDuration, SlotFunctionTestDelay, SlotFunctionTestDelay + 1} {
		if regs[slot] != Unknown {
			t.Fatalf("slot %d: got=0x%04x want unknown", slot, regs[slot])
		}
	}
	if regs[SlotPolledAt] != 0 || regs[SlotPolledAt+1] != 0 {
		t.Fatalf("fresh snapshot has a poll time")
	}
}
