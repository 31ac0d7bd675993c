// internal/status/encode.go
package status

import "math"

// Encode converts a verdict and its snapshot into a full unit status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(sum Summary, s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerUnit)

	regs[SlotHealthCode] = health(sum)
	regs[SlotCategory] = uint16(sum.Category)
	regs[SlotFlags] = flags(s)
	regs[SlotMode] = uint16(s.Mode)

	regs[SlotBatteryCharge] = Unknown
	if s.BatteryCharge != nil {
		regs[SlotBatteryCharge] = uint16(math.Round(*s.BatteryCharge * 10))
	}

	regs[SlotFunctionTest] = uint16(s.FunctionTest)
	regs[SlotDurationTest] = uint16(s.DurationTest)
	regs[SlotDurationTestResult] = word(s.DurationTestResult)
	regs[SlotNextFunctionTest] = uint16(s.NextFunctionTest)
	regs[SlotNextDurationTest] = uint16(s.NextDurationTest)

	regs[SlotRatedDuration] = word(s.RatedDuration)
	regs[SlotFunctionInterval] = word(s.FunctionTestInterval)
	regs[SlotDurationInterval] = word(s.DurationTestInterval)
	regs[SlotExecutionTimeout] = word(s.ExecutionTimeout)

	putDword(regs[SlotFunctionTestDelay:], s.FunctionTestDelay)
	putDword(regs[SlotDurationTestDelay:], s.DurationTestDelay)

	if !s.Timestamp.IsZero() {
		at := int(s.Timestamp.Unix())
		putDword(regs[SlotPolledAt:], &at)
	}

	return regs
}

func health(sum Summary) uint16 {
	switch sum.Category {
	case CategoryNone:
		return HealthUnknown
	case CategoryPass:
		return HealthPass
	case CategoryError:
		return HealthError
	default:
		return HealthFail
	}
}

func flags(s Snapshot) uint16 {
	var v uint16
	set := func(on bool, bit uint16) {
		if on {
			v |= bit
		}
	}
	f := s.failures()

	set(s.Present, FlagPresent)
	set(s.Emergency, FlagEmergency)
	set(f.Circuit, FlagCircuitFailure)
	set(f.BatteryDuration, FlagBatteryDurationFailure)
	set(f.Battery, FlagBatteryFailure)
	set(f.Lamp, FlagLampFailure)
	return v
}

func word(v *int) uint16 {
	if v == nil || *v < 0 || *v >= int(Unknown) {
		return Unknown
	}
	return uint16(*v)
}

// putDword writes v big-endian into dst[0:2]. Unknown is all ones.
func putDword(dst []uint16, v *int) {
	if v == nil || *v < 0 {
		dst[0], dst[1] = Unknown, Unknown
		return
	}
	u := uint32(*v)
	dst[0] = uint16(u >> 16)
	dst[1] = uint16(u)
}
