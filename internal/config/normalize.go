// internal/config/normalize.go
package config

// Defaults applied when a site does not state its expectations.
const (
	DefaultRatedDuration        = 180 // minutes
	DefaultFunctionTestInterval = 7   // days
	DefaultDurationTestInterval = 52  // weeks
	DefaultExecutionTimeout     = 7   // days

	DefaultDaliserverPort = 55825
	DefaultModbusPort     = 502
	DefaultTimeoutMs      = 2000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
//
// After Normalize every site and unit has a fully populated ExpectedConfig.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for key, s := range cfg.Sites {
		s.Expected = s.Expected.withDefaults(ExpectedConfig{
			RatedDuration:        intPtr(DefaultRatedDuration),
			FunctionTestInterval: intPtr(DefaultFunctionTestInterval),
			DurationTestInterval: intPtr(DefaultDurationTestInterval),
			ExecutionTimeout:     intPtr(DefaultExecutionTimeout),
		})

		// Units inherit at construction time only.
		for ui := range s.Units {
			s.Units[ui].Expected = s.Units[ui].Expected.withDefaults(s.Expected)
		}

		for bk, b := range s.Buses {
			if b.Port == 0 {
				switch b.Transport {
				case TransportDaliserver:
					b.Port = DefaultDaliserverPort
				case TransportModbus:
					b.Port = DefaultModbusPort
				}
			}
			if b.TimeoutMs <= 0 {
				b.TimeoutMs = DefaultTimeoutMs
			}
			s.Buses[bk] = b
		}

		if s.StatusMemory != nil && s.StatusMemory.TimeoutMs <= 0 {
			s.StatusMemory.TimeoutMs = DefaultTimeoutMs
		}

		cfg.Sites[key] = s
	}
}

func (e ExpectedConfig) withDefaults(d ExpectedConfig) ExpectedConfig {
	if e.RatedDuration == nil {
		e.RatedDuration = copyInt(d.RatedDuration)
	}
	if e.FunctionTestInterval == nil {
		e.FunctionTestInterval = copyInt(d.FunctionTestInterval)
	}
	if e.DurationTestInterval == nil {
		e.DurationTestInterval = copyInt(d.DurationTestInterval)
	}
	if e.ExecutionTimeout == nil {
		e.ExecutionTimeout = copyInt(d.ExecutionTimeout)
	}
	return e
}

func intPtr(v int) *int { return &v }

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
