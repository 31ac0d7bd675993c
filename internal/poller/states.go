// internal/poller/states.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/emcon/internal/dali"
	"github.com/tamzrod/emcon/internal/query"
	"github.com/tamzrod/emcon/internal/status"
)

// stateFn is one step of the unit read sequence.
// It returns the next step, or nil when the sequence is over.
type stateFn func(ctx context.Context) stateFn

// run holds the working state of one poll cycle.
// snap is private until the cycle completes.
type run struct {
	ex   *query.Executor
	snap status.Snapshot
	err  error

	features dali.Features
	mode     dali.Mode
	status   dali.Status
	failure  dali.FailureStatus
}

func newRun(ex *query.Executor, at time.Time) *run {
	return &run{ex: ex, snap: status.Snapshot{Timestamp: at}}
}

func (r *run) fail(err error) stateFn {
	r.err = err
	return nil
}

// ---- presence ----

func (r *run) presence(ctx context.Context) stateFn {
	resp, err := r.ex.Query(ctx, dali.QueryControlGearPresent)
	if err != nil {
		return r.fail(err)
	}
	if !resp.Yes() {
		return nil
	}
	r.snap.Present = true
	return r.deviceTypes
}

// ---- device types ----

func (r *run) deviceTypes(ctx context.Context) stateFn {
	types, err := r.ex.DeviceTypes(ctx)
	if err != nil {
		return r.fail(err)
	}
	for _, t := range types {
		if t == dali.DeviceTypeEmergency {
			r.snap.Emergency = true
			return r.emergencyInfo
		}
	}
	return nil
}

// ---- emergency info ----

// emergencyInfo reads rated duration, features, mode, status and
// failure status, unconditionally and in that order.
func (r *run) emergencyInfo(ctx context.Context) stateFn {
	raw := make([]byte, 0, 5)
	for _, q := range []query.CommandFunc{
		dali.QueryRatedDuration,
		dali.QueryEmergencyFeatures,
		dali.QueryEmergencyMode,
		dali.QueryEmergencyStatus,
		dali.QueryEmergencyFailureStatus,
	} {
		v, err := r.ex.Value(ctx, q)
		if err != nil {
			return r.fail(err)
		}
		raw = append(raw, v)
	}

	r.snap.RatedDuration = intPtr(int(raw[0]) * 2)
	r.features = dali.Features(raw[1])
	r.mode = dali.Mode(raw[2])
	r.status = dali.Status(raw[3])
	r.failure = dali.FailureStatus(raw[4])

	r.snap.Failures = &status.Failures{
		Circuit:         r.failure.CircuitFailure(),
		BatteryDuration: r.failure.BatteryDurationFailure(),
		Battery:         r.failure.BatteryFailure(),
		Lamp:            r.failure.EmergencyLampFailure(),
	}

	r.snap.Mode = status.ModeFromBits(r.mode.ModeBits())
	if r.snap.Mode == status.ModeNormal && r.status.InhibitMode() {
		r.snap.Mode = status.ModeInhibit
	}

	if r.mode.FunctionTestActive() {
		r.snap.FunctionTest = status.TestInProgress
	}
	if r.mode.DurationTestActive() {
		r.snap.DurationTest = status.TestInProgress
	}

	return r.batteryCharge
}

// ---- battery ----

func (r *run) batteryCharge(ctx context.Context) stateFn {
	v, err := r.ex.Value(ctx, dali.QueryBatteryCharge)
	if err != nil {
		return r.fail(err)
	}
	if v != dali.MASK {
		pct := float64(v) * 100 / 254
		r.snap.BatteryCharge = &pct
	}
	return r.testResults
}

// ---- test results ----

// testResults applies the "done and result valid" flags. A completed
// test overrides an in-progress indication from the mode response.
func (r *run) testResults(ctx context.Context) stateFn {
	if r.status.FunctionTestDone() {
		r.snap.FunctionTest = verdict(r.failure.FunctionTestFailed())
	}

	if r.status.DurationTestDone() {
		v, err := r.ex.Value(ctx, dali.QueryDurationTestResult)
		if err != nil {
			return r.fail(err)
		}
		r.snap.DurationTestResult = intPtr(int(v) * 2)
		r.snap.DurationTest = verdict(r.failure.DurationTestFailed())
	}

	return r.autoTest
}

func verdict(failed bool) status.TestStatus {
	if failed {
		return status.TestFail
	}
	return status.TestPass
}

// ---- automatic testing ----

func (r *run) autoTest(ctx context.Context) stateFn {
	if !r.features.AutoTestCapability() {
		return nil
	}

	r.snap.NextFunctionTest = nextTest(r.status.FunctionTestPending(), r.failure.FunctionTestMaxDelayExceeded())
	r.snap.NextDurationTest = nextTest(r.status.DurationTestPending(), r.failure.DurationTestMaxDelayExceeded())

	timing := func(selector byte, reads ...query.CommandFunc) []byte {
		if r.err != nil {
			return nil
		}
		v, err := r.ex.SelectThenRead(ctx, selector, reads...)
		if err != nil {
			r.err = err
		}
		return v
	}

	ft := timing(dali.TimingFunctionInterval, dali.QueryTestTiming)
	dt := timing(dali.TimingDurationInterval, dali.QueryTestTiming)
	timeout := timing(dali.TimingExecutionTimeout, dali.QueryTestTiming)
	ftDelay := timing(dali.TimingNextFunctionTest, dali.QueryTestTiming, dali.QueryContentDTR1)
	dtDelay := timing(dali.TimingNextDurationTest, dali.QueryTestTiming, dali.QueryContentDTR1)
	if r.err != nil {
		return nil
	}

	r.snap.FunctionTestInterval = intPtr(int(ft[0]))
	r.snap.DurationTestInterval = intPtr(int(dt[0]))
	r.snap.ExecutionTimeout = intPtr(int(timeout[0]))
	r.snap.FunctionTestDelay = intPtr(delayMinutes(ftDelay))
	r.snap.DurationTestDelay = intPtr(delayMinutes(dtDelay))

	return nil
}

func nextTest(pending, maxDelayExceeded bool) status.NextTestStatus {
	switch {
	case pending && maxDelayExceeded:
		return status.NextOverdue
	case pending:
		return status.NextPending
	default:
		return status.NextScheduled
	}
}

// delayMinutes combines a high/low byte pair counted in 15 minute steps.
func delayMinutes(hilo []byte) int {
	return (int(hilo[0])<<8 | int(hilo[1])) * 15
}

func intPtr(v int) *int { return &v }
