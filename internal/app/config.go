package app

import (
	"errors"
	"fmt"
)

// DefaultConfigPath is the configuration file used when none is given.
const DefaultConfigPath = "shadergrid.hcl"

// DefaultEnvFile is loaded before the configuration file when present.
const DefaultEnvFile = ".env"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string   // hcl file
	Projects   []string // empty means every project in the file

	// EnvFile is loaded into the environment before ConfigPath is evaluated.
	// A missing file is an error only when EnvFileExplicit is set.
	EnvFile         string
	EnvFileExplicit bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	DryRun          bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck-port %d is out of range", cfg.HealthcheckPort)
	}
	if cfg.EnvFile == "" {
		cfg.EnvFile = DefaultEnvFile
	}
	return &cfg, nil
}
