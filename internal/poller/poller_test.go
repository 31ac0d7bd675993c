// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tamzrod/emcon/internal/bus"
	"github.com/tamzrod/emcon/internal/bus/sim"
	cfg "github.com/tamzrod/emcon/internal/config"
	"github.com/tamzrod/emcon/internal/dali"
	"github.com/tamzrod/emcon/internal/status"
)

var at = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

var defaults = status.Expected{
	RatedDuration:        180,
	FunctionTestInterval: 7,
	DurationTestInterval: 52,
	ExecutionTimeout:     7,
}

func pollAt(t *testing.T, sb *sim.Bus, addr uint8) PollResult {
	t.Helper()

	p, err := New(Config{UnitID: "office/ground/x", Address: dali.MustShort(addr)})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	p.now = func() time.Time { return at }

	var res PollResult
	b := bus.New("office", "ground", sb.Dial)
	if err := b.With(context.Background(), func(h *bus.Handle) error {
		res = p.PollOnce(context.Background(), h)
		return nil
	}); err != nil {
		t.Fatalf("with: %v", err)
	}
	return res
}

func mustPoll(t *testing.T, sb *sim.Bus, addr uint8) status.Snapshot {
	t.Helper()
	res := pollAt(t, sb, addr)
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	return res.Snapshot
}

func TestPollOnce_Healthy(t *testing.T) {
	snap := mustPoll(t, sim.New().Add(3, sim.Healthy()), 3)

	if got := status.Evaluate(snap, defaults); !got.Pass() {
		t.Fatalf("expected pass, got %q", got.Text)
	}
	if *snap.RatedDuration != 180 {
		t.Fatalf("rated duration: got=%d want=180", *snap.RatedDuration)
	}
	if *snap.BatteryCharge != 100.0 {
		t.Fatalf("battery: got=%f want=100", *snap.BatteryCharge)
	}
	if *snap.FunctionTestDelay != 240 || *snap.DurationTestDelay != 4080 {
		t.Fatalf("delays: got=%d,%d want=240,4080", *snap.FunctionTestDelay, *snap.DurationTestDelay)
	}
	if !snap.Timestamp.Equal(at) {
		t.Fatalf("timestamp: got=%v want=%v", snap.Timestamp, at)
	}
}

func TestPollOnce_NotPresent(t *testing.T) {
	sb := sim.New()
	snap := mustPoll(t, sb, 7)

	if snap.Present {
		t.Fatalf("empty address reported present")
	}
	if got := len(sb.Frames()); got != 1 {
		t.Fatalf("expected presence query only, got %d frames", got)
	}

	want := []string{"Name: Exit", "Not present"}
	if diff := cmp.Diff(want, status.Details("Exit", snap, defaults)); diff != "" {
		t.Fatalf("details (-want +got):\n%s", diff)
	}
}

func TestPollOnce_NotEmergency(t *testing.T) {
	g := sim.Healthy()
	g.DeviceTypes = []uint8{6}
	snap := mustPoll(t, sim.New().Add(2, g), 2)

	if !snap.Present || snap.Emergency {
		t.Fatalf("present=%v emergency=%v", snap.Present, snap.Emergency)
	}
	if got := status.Evaluate(snap, defaults); got.Text != "Not an emergency unit" {
		t.Fatalf("summary: got=%q", got.Text)
	}
	if snap.RatedDuration != nil {
		t.Fatalf("emergency fields read for a non-emergency unit")
	}
}

func TestPollOnce_MultipleDeviceTypes(t *testing.T) {
	g := sim.Healthy()
	g.DeviceTypes = []uint8{6, 1}
	snap := mustPoll(t, sim.New().Add(2, g), 2)

	if !snap.Emergency {
		t.Fatalf("emergency type not found among several")
	}
}

func TestPollOnce_Conversions(t *testing.T) {
	tests := []struct {
		name    string
		rated   byte
		battery byte
		wantMin int
		wantPct *float64
	}{
		{name: "full", rated: 90, battery: 254, wantMin: 180, wantPct: fp(100)},
		{name: "half", rated: 60, battery: 127, wantMin: 120, wantPct: fp(50)},
		{name: "zero", rated: 0, battery: 0, wantMin: 0, wantPct: fp(0)},
		{name: "unknown battery", rated: 90, battery: dali.MASK, wantMin: 180, wantPct: nil},
		{name: "rated duration has no mask", rated: dali.MASK, battery: 254, wantMin: 510, wantPct: fp(100)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := sim.Healthy()
			g.RatedDuration = tc.rated
			g.BatteryCharge = tc.battery

			snap := mustPoll(t, sim.New().Add(1, g), 1)

			if *snap.RatedDuration != tc.wantMin {
				t.Fatalf("rated: got=%d want=%d", *snap.RatedDuration, tc.wantMin)
			}
			if diff := cmp.Diff(tc.wantPct, snap.BatteryCharge); diff != "" {
				t.Fatalf("battery (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPollOnce_DurationTestDelay(t *testing.T) {
	g := sim.Healthy()
	g.NextDurationTest = 1<<8 | 10

	snap := mustPoll(t, sim.New().Add(1, g), 1)

	if *snap.DurationTestDelay != 3990 {
		t.Fatalf("dt delay: got=%d want=3990", *snap.DurationTestDelay)
	}
	when, ok := snap.ScheduledDurationTest()
	if !ok || !when.Equal(at.Add(3990*time.Minute)) {
		t.Fatalf("scheduled: got=%v ok=%v", when, ok)
	}
}

func TestPollOnce_InhibitOverridesNormal(t *testing.T) {
	g := sim.Healthy()
	g.Status |= 0x01

	snap := mustPoll(t, sim.New().Add(1, g), 1)

	if snap.Mode != status.ModeInhibit {
		t.Fatalf("mode: got=%s want=Inhibit", snap.Mode)
	}
}

func TestPollOnce_TestStates(t *testing.T) {
	tests := []struct {
		name    string
		mode    dali.Mode
		st      dali.Status
		failure dali.FailureStatus
		wantFT  status.TestStatus
		wantDT  status.TestStatus
		wantRes *int
	}{
		{
			name:   "in progress",
			mode:   0x10 | 0x20,
			st:     0x00,
			wantFT: status.TestInProgress,
			wantDT: status.TestInProgress,
		},
		{
			name:    "done overrides in progress",
			mode:    0x10,
			st:      0x02 | 0x04,
			wantFT:  status.TestPass,
			wantDT:  status.TestPass,
			wantRes: ip(84),
		},
		{
			name:    "failed",
			mode:    0x02,
			st:      0x02 | 0x04,
			failure: 0x40 | 0x80,
			wantFT:  status.TestFail,
			wantDT:  status.TestFail,
			wantRes: ip(84),
		},
		{
			name:   "never tested",
			mode:   0x02,
			wantFT: status.TestNotDone,
			wantDT: status.TestNotDone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := sim.Healthy()
			g.Mode = tc.mode
			g.Status = tc.st
			g.Failure = tc.failure
			g.DurationTestResult = 42

			snap := mustPoll(t, sim.New().Add(1, g), 1)

			if snap.FunctionTest != tc.wantFT || snap.DurationTest != tc.wantDT {
				t.Fatalf("states: got=%s,%s want=%s,%s", snap.FunctionTest, snap.DurationTest, tc.wantFT, tc.wantDT)
			}
			if diff := cmp.Diff(tc.wantRes, snap.DurationTestResult); diff != "" {
				t.Fatalf("dt result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPollOnce_NextTestStates(t *testing.T) {
	g := sim.Healthy()
	g.Status |= 0x10 | 0x20 // both pending
	g.Failure = 0x20        // duration test max delay exceeded

	snap := mustPoll(t, sim.New().Add(1, g), 1)

	if snap.NextFunctionTest != status.NextPending {
		t.Fatalf("next ft: got=%s want=pending", snap.NextFunctionTest)
	}
	if snap.NextDurationTest != status.NextOverdue {
		t.Fatalf("next dt: got=%s want=overdue", snap.NextDurationTest)
	}
}

func TestPollOnce_NoAutoTest(t *testing.T) {
	g := sim.Healthy()
	g.Features = 0
	sb := sim.New().Add(1, g)

	snap := mustPoll(t, sb, 1)

	if snap.NextFunctionTest != status.NextNotScheduled || snap.NextDurationTest != status.NextNotScheduled {
		t.Fatalf("next states: got=%s,%s", snap.NextFunctionTest, snap.NextDurationTest)
	}
	if snap.FunctionTestInterval != nil || snap.FunctionTestDelay != nil {
		t.Fatalf("timing read without auto test capability")
	}
	for _, f := range sb.Frames() {
		if f.Name == "DTR0" {
			t.Fatalf("selector written without auto test capability")
		}
	}
	if got := status.Evaluate(snap, defaults); got.Category != status.CategoryFunctionTestInterval {
		t.Fatalf("summary: got=%q", got.Text)
	}
}

func TestPollOnce_TransportFailureDiscardsSnapshot(t *testing.T) {
	sb := sim.New().Add(1, sim.Healthy())
	sb.FailOn = func(cmd dali.Command) error {
		if cmd.Name == "QueryBatteryCharge" {
			return errors.New("line down")
		}
		return nil
	}

	res := pollAt(t, sb, 1)

	var te *bus.TransportError
	if !errors.As(res.Err, &te) {
		t.Fatalf("expected TransportError, got %v", res.Err)
	}
	if diff := cmp.Diff(status.Snapshot{}, res.Snapshot); diff != "" {
		t.Fatalf("partial snapshot exposed (-want +got):\n%s", diff)
	}
}

func TestBuild(t *testing.T) {
	p, err := Build("office", cfgUnit("ground", 12))
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}
	if p.cfg.UnitID != "office/ground/12" {
		t.Fatalf("unit id: got=%q", p.cfg.UnitID)
	}

	if _, err := Build("office", cfgUnit("ground", 64)); err == nil {
		t.Fatalf("expected error for address 64")
	}
}

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func cfgUnit(busName string, addr uint8) cfg.UnitConfig {
	return cfg.UnitConfig{Bus: busName, Address: addr, Name: "Exit"}
}
