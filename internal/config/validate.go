// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/emcon/internal/status"
)

// MaxShortAddress mirrors the DALI short address range.
const MaxShortAddress = 63

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil || len(cfg.Sites) == 0 {
		return errors.New("config: no sites configured")
	}

	for _, key := range cfg.SiteKeys() {
		if err := validateSite(key, cfg.Sites[key]); err != nil {
			return err
		}
	}

	return nil
}

func validateSite(key string, s SiteConfig) error {
	if strings.Contains(key, "/") {
		return fmt.Errorf("site %q: key must not contain '/'", key)
	}
	if s.Name == "" {
		return fmt.Errorf("site %q: name is required", key)
	}
	if err := validateExpected(s.Expected); err != nil {
		return fmt.Errorf("site %q: %w", key, err)
	}

	// ------------------------------------------------------------
	// BUSES
	// ------------------------------------------------------------

	if len(s.Buses) == 0 {
		return fmt.Errorf("site %q: at least one bus is required", key)
	}

	for _, bk := range s.BusKeys() {
		if strings.Contains(bk, "/") {
			return fmt.Errorf("site %q: bus key %q must not contain '/'", key, bk)
		}
		if err := validateBus(s.Buses[bk]); err != nil {
			return fmt.Errorf("site %q bus %q: %w", key, bk, err)
		}
	}

	// ------------------------------------------------------------
	// UNITS
	// ------------------------------------------------------------

	// key = bus | address
	owner := make(map[string]string)

	for i, u := range s.Units {
		if u.Name == "" {
			return fmt.Errorf("site %q unit #%d: name is required", key, i+1)
		}
		if _, ok := s.Buses[u.Bus]; !ok {
			return fmt.Errorf("site %q unit %q: unknown bus %q", key, u.Name, u.Bus)
		}
		if u.Address > MaxShortAddress {
			return fmt.Errorf("site %q unit %q: address %d out of range 0..%d", key, u.Name, u.Address, MaxShortAddress)
		}
		if err := validateExpected(u.Expected); err != nil {
			return fmt.Errorf("site %q unit %q: %w", key, u.Name, err)
		}

		k := fmt.Sprintf("%s|%d", u.Bus, u.Address)
		if prev, exists := owner[k]; exists {
			return fmt.Errorf(
				"site %q: address collision: bus=%s address=%d used by units %q and %q",
				key, u.Bus, u.Address, prev, u.Name,
			)
		}
		owner[k] = u.Name
	}

	// ------------------------------------------------------------
	// STATUS MEMORY (OPT-IN)
	// ------------------------------------------------------------

	if sm := s.StatusMemory; sm != nil {
		if sm.Endpoint == "" {
			return fmt.Errorf("site %q: status_memory.endpoint is required", key)
		}
		// one block per unit, all inside the 16-bit register space
		if (int(sm.BaseSlot)+len(s.Units))*status.SlotsPerUnit > 1<<16 {
			return fmt.Errorf("site %q: status_memory blocks past base_slot %d exceed the register space", key, sm.BaseSlot)
		}
	}

	return nil
}

func validateBus(b BusConfig) error {
	switch b.Transport {
	case TransportDaliserver, TransportModbus:
		if b.Host == "" {
			return errors.New("host is required")
		}
	case TransportModbusRTU:
		if b.SerialPort == "" {
			return errors.New("serial_port is required")
		}
	case "":
		return errors.New("transport is required")
	default:
		return fmt.Errorf("unsupported transport %q", b.Transport)
	}

	if b.Port < 0 || b.Port > 65535 {
		return fmt.Errorf("port %d out of range", b.Port)
	}
	if b.TimeoutMs < 0 {
		return errors.New("timeout_ms must be >= 0")
	}
	if b.Registers != nil && b.Registers.Forward == b.Registers.Reply {
		return errors.New("registers.forward and registers.reply must differ")
	}
	return nil
}

func validateExpected(e ExpectedConfig) error {
	check := func(name string, v *int, max int) error {
		if v == nil {
			return nil
		}
		if *v < 0 || *v > max {
			return fmt.Errorf("%s %d out of range 0..%d", name, *v, max)
		}
		return nil
	}

	// Upper bounds follow what the gear can store.
	if err := check("rated_duration", e.RatedDuration, 2*254); err != nil {
		return err
	}
	if err := check("function_test_interval", e.FunctionTestInterval, 255); err != nil {
		return err
	}
	if err := check("duration_test_interval", e.DurationTestInterval, 97); err != nil {
		return err
	}
	return check("test_execution_timeout", e.ExecutionTimeout, 255)
}
