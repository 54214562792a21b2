// Package config loads serialterm settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevice   = "SERIALTERM_DEVICE"
	EnvBaudRate = "SERIALTERM_BAUD"
)

// PortEntry is a device the user knows by name.
type PortEntry struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label"`
}

type Config struct {
	Device         string        `yaml:"device"`
	BaudRate       int           `yaml:"baud_rate"`
	StrictBaudRate bool          `yaml:"strict_baud_rate"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	Hex            bool          `yaml:"hex"`
	Listen         string        `yaml:"listen"`
	LogLevel       string        `yaml:"log_level"`
	Ports          []PortEntry   `yaml:"ports"`
}

// Default matches the board the tool was first written for: an LED light
// controller on ttyS5 and a scanner on ttyS11, both at 9600 baud.
func Default() Config {
	return Config{
		Device:      "/dev/ttyS5",
		BaudRate:    9600,
		ReadTimeout: 100 * time.Millisecond,
		Listen:      ":8080",
		LogLevel:    "info",
		Ports: []PortEntry{
			{Path: "/dev/ttyS5", Label: "LED light controller"},
			{Path: "/dev/ttyS11", Label: "scanner"},
		},
	}
}

// Load reads path on top of Default. An empty path returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides the device and baud rate from SERIALTERM_DEVICE and
// SERIALTERM_BAUD when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvDevice); v != "" {
		c.Device = v
	}
	if v := getenv(EnvBaudRate); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBaudRate, err)
		}
		c.BaudRate = baud
	}
	return nil
}

func (c Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}
	for i, p := range c.Ports {
		if p.Path == "" {
			return fmt.Errorf("ports[%d]: missing path", i)
		}
	}
	return nil
}

// Label returns the configured label for path, or "".
func (c Config) Label(path string) string {
	for _, p := range c.Ports {
		if p.Path == path {
			return p.Label
		}
	}
	return ""
}
