package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a document parses but holds unusable values.
var ErrInvalid = errors.New("invalid config")

// Config represents the application configuration.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	General    GeneralConfig    `yaml:"general"`
	Sliders    []SliderConfig   `yaml:"sliders"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ConnectionConfig describes how to find and open the slider board.
type ConnectionConfig struct {
	Port        string        `yaml:"port"` // empty: auto-detect a USB serial device
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	RetryDelay  time.Duration `yaml:"retry_delay"`

	// USB filters used by auto-detection. Empty fields match anything.
	VID          string `yaml:"vid"`
	PID          string `yaml:"pid"`
	SerialNumber string `yaml:"serial_number"`
	Product      string `yaml:"product"`
}

// GeneralConfig contains volume quantization settings.
type GeneralConfig struct {
	VolumeStep      float64 `yaml:"volume_step"` // grid size of output levels, (0, 1]
	InvertDirection bool    `yaml:"invert_direction"`
}

// SliderConfig maps one slider to a volume target.
type SliderConfig struct {
	ID     uint8  `yaml:"id"`
	Target Target `yaml:"target"`
}

// MQTTConfig enables mirroring slider events to an MQTT broker.
type MQTTConfig struct {
	Broker      string `yaml:"broker"` // empty disables publishing
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// MetricsConfig enables the Prometheus exporter.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the exporter
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			BaudRate:    57600,
			ReadTimeout: 30 * time.Second,
			RetryDelay:  5 * time.Second,
		},
		General: GeneralConfig{
			VolumeStep: 0.01,
		},
		Sliders: []SliderConfig{
			{ID: 0, Target: Master()},
			{ID: 1, Target: CurrentApp()},
			{ID: 2, Target: Unmapped()},
		},
		MQTT: MQTTConfig{
			ClientID:    "gain",
			TopicPrefix: "gain",
		},
	}
}

// Load loads configuration from a YAML file. Missing fields fall back to
// defaults; a missing file is an error.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	// Sliders are not merged with the defaults: the document owns the list.
	cfg.Sliders = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports values that cannot be used at runtime.
func (c *Config) Validate() error {
	if step := c.General.VolumeStep; step <= 0 || step > 1 {
		return fmt.Errorf("%w: volume_step %v outside (0, 1]", ErrInvalid, step)
	}
	if c.Connection.BaudRate < 0 {
		return fmt.Errorf("%w: baud_rate %d", ErrInvalid, c.Connection.BaudRate)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Connection.BaudRate == 0 {
		c.Connection.BaudRate = def.Connection.BaudRate
	}
	if c.Connection.ReadTimeout == 0 {
		c.Connection.ReadTimeout = def.Connection.ReadTimeout
	}
	if c.Connection.RetryDelay == 0 {
		c.Connection.RetryDelay = def.Connection.RetryDelay
	}

	if c.General.VolumeStep == 0 {
		c.General.VolumeStep = def.General.VolumeStep
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}
}
