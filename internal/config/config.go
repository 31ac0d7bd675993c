// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sites map[string]SiteConfig `yaml:"sites"`
}

// ---- SITE ----

type SiteConfig struct {
	Key string `yaml:"-"`

	Name      string   `yaml:"name"`
	EmailTo   []string `yaml:"email_to"`
	EmailFrom string   `yaml:"email_from"`

	// Site-wide expectations; units inherit unless overridden.
	Expected ExpectedConfig `yaml:",inline"`

	Buses map[string]BusConfig `yaml:"buses"`
	Units []UnitConfig         `yaml:"units"`

	// Status memory block (optional, opt-in)
	StatusMemory *StatusMemoryConfig `yaml:"status_memory"`
}

// ExpectedConfig holds the test parameters every unit must report.
// nil means "not set here": inherited or defaulted by Normalize.
type ExpectedConfig struct {
	RatedDuration        *int `yaml:"rated_duration"`         // minutes
	FunctionTestInterval *int `yaml:"function_test_interval"` // days
	DurationTestInterval *int `yaml:"duration_test_interval"` // weeks
	ExecutionTimeout     *int `yaml:"test_execution_timeout"` // days
}

// ---- BUS ----

const (
	TransportDaliserver = "daliserver"
	TransportModbus     = "modbus"
	TransportModbusRTU  = "modbus-rtu"
)

type BusConfig struct {
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// Modbus gateway only
	UnitID     uint8                   `yaml:"unit_id"`
	SerialPort string                  `yaml:"serial_port"`
	BaudRate   int                     `yaml:"baud_rate"`
	DataBits   int                     `yaml:"data_bits"`
	StopBits   int                     `yaml:"stop_bits"`
	Parity     string                  `yaml:"parity"`
	Registers  *GatewayRegistersConfig `yaml:"registers"`
}

// GatewayRegistersConfig overrides the DALI gateway register map.
type GatewayRegistersConfig struct {
	Forward uint16 `yaml:"forward"`
	Reply   uint16 `yaml:"reply"`
}

// ---- UNIT ----

type UnitConfig struct {
	Bus      string         `yaml:"bus"`
	Address  uint8          `yaml:"address"`
	Name     string         `yaml:"name"`
	Expected ExpectedConfig `yaml:",inline"`
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Load reads and decodes a YAML configuration file.
// It does not validate or normalize.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML configuration bytes.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	for k, s := range cfg.Sites {
		s.Key = k
		cfg.Sites[k] = s
	}

	return &cfg, nil
}

// SiteKeys returns the configured site keys in stable order.
func (c *Config) SiteKeys() []string {
	keys := make([]string, 0, len(c.Sites))
	for k := range c.Sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BusKeys returns the site's bus keys in stable order.
func (s SiteConfig) BusKeys() []string {
	keys := make([]string, 0, len(s.Buses))
	for k := range s.Buses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
