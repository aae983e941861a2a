package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for fitbridge.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DataDir is where the generated sync config file and the SQLite
	// database live. On PaaS free tiers this directory is ephemeral and
	// disappears on restart; nothing here assumes otherwise.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:".garmindb_data"`

	// Sync holds settings for invoking the external sync tool.
	Sync SyncConfig `yaml:"sync"`
}

// SyncConfig holds settings for the external garmindb invocation.
type SyncConfig struct {
	// PythonBin is the interpreter used to run the sync tool module.
	PythonBin string `yaml:"python_bin" env:"SYNC_PYTHON_BIN" env-default:"python3"`

	// Module is the tool module passed to the interpreter's -m flag.
	Module string `yaml:"module" env:"SYNC_MODULE" env-default:"garmindb.garmindb_cli"`

	// TimeoutSeconds bounds one sync invocation. Zero disables the bound.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"SYNC_TIMEOUT_SECONDS" env-default:"300"`

	// WorkDir is the working directory the tool is run from.
	WorkDir string `yaml:"workdir" env:"SYNC_WORKDIR" env-default:"."`
}

// Timeout returns the sync execution bound, or zero when unbounded.
func (s SyncConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ConfigFilePath returns the path of the JSON config file the sync tool reads.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.DataDir, "GarminConnectConfig.json")
}

// DatabasePath returns the path of the SQLite database the sync tool writes.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "garmin.db")
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent, environment variables alone are
// used. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Sync.TimeoutSeconds < 0 {
		return fmt.Errorf("sync timeout_seconds must not be negative, got %d", c.Sync.TimeoutSeconds)
	}
	if c.Sync.PythonBin == "" {
		return fmt.Errorf("sync python_bin must not be empty")
	}
	return nil
}
