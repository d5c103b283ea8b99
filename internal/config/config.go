// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/obitec/bodyway/internal/capture"
)

// Prefix is prepended to every environment variable name.
const Prefix = "BODYWAY_"

// Config is the service configuration.
type Config struct {
	Addr      string `env:"ADDR"       envDefault:"127.0.0.1:8420"`
	DBPath    string `env:"DB_PATH"    envDefault:"bodyway.db"`
	StaticDir string `env:"STATIC_DIR"`

	FrontDevice int    `env:"FRONT_DEVICE" envDefault:"0"`
	BackDevice  int    `env:"BACK_DEVICE"  envDefault:"1"`
	Facing      string `env:"FACING"       envDefault:"front"`
	FPS         int    `env:"FPS"          envDefault:"15"`
	Variant     int    `env:"VARIANT"      envDefault:"0"`

	MinLikelihood      float64 `env:"MIN_LIKELIHOOD"       envDefault:"0.5"`
	ModelComplexity    int     `env:"MODEL_COMPLEXITY"     envDefault:"1"`
	DetectorIdleSec    int     `env:"DETECTOR_IDLE_SEC"    envDefault:"30"`
	DetectorTimeoutSec int     `env:"DETECTOR_TIMEOUT_SEC" envDefault:"10"`
	MockDetector       bool    `env:"MOCK_DETECTOR"        envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	Tray bool `env:"TRAY" envDefault:"false"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if _, err := capture.ParseFacing(c.Facing); err != nil {
		errs = append(errs, err)
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.MinLikelihood < 0 || c.MinLikelihood > 1 {
		errs = append(errs, fmt.Errorf("min likelihood must be within [0, 1], got %v", c.MinLikelihood))
	}
	if c.ModelComplexity < 0 || c.ModelComplexity > 2 {
		errs = append(errs, fmt.Errorf("model complexity must be 0, 1 or 2, got %d", c.ModelComplexity))
	}
	if c.DetectorTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("detector timeout must be positive, got %d", c.DetectorTimeoutSec))
	}
	if c.FrontDevice < 0 || c.BackDevice < 0 {
		errs = append(errs, errors.New("camera device IDs must not be negative"))
	}
	return errors.Join(errs...)
}

// Devices returns the camera device mapping.
func (c *Config) Devices() capture.Devices {
	return capture.Devices{
		capture.Front: c.FrontDevice,
		capture.Back:  c.BackDevice,
	}
}

// CameraFacing returns the configured initial facing.
func (c *Config) CameraFacing() capture.Facing {
	f, _ := capture.ParseFacing(c.Facing)
	return f
}
