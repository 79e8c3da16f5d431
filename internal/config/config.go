// Package config loads the nuke server configuration from an optional YAML
// file and environment variables.
//
// Precedence, lowest to highest:
//
//  1. Defaults
//  2. YAML file named by NUKE_CONFIG
//  3. Environment variables
//
// Environment:
//   - NUKE_CONFIG: Path to a YAML config file (optional)
//   - PARTITION_NUMBER: Number of partitions (default: 10)
//   - DATA_PATH: Snapshot directory (default: "./data")
//   - LISTEN_ADDR: TCP command listener (default: "127.0.0.1:8080")
//   - ADMIN_ADDR: HTTP admin listener, empty disables (default: "127.0.0.1:8081")
//   - SNAPSHOT_INTERVAL: Periodic snapshot interval, 0 disables (default: 0)
//   - PERSIST_ON_SHUTDOWN: Persist all partitions on exit (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: "info")
//   - LOG_DEVELOPMENT: Console logging (default: false)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every process-level setting.
type Config struct {
	DataPath          string        `yaml:"data_path"`
	ListenAddr        string        `yaml:"listen_addr"`
	AdminAddr         string        `yaml:"admin_addr"`
	LogLevel          string        `yaml:"log_level"`
	PartitionCount    int           `yaml:"partition_number"`
	SnapshotInterval  time.Duration `yaml:"snapshot_interval"`
	PersistOnShutdown bool          `yaml:"persist_on_shutdown"`
	LogDevelopment    bool          `yaml:"log_development"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		PartitionCount:    10,
		DataPath:          "./data",
		ListenAddr:        "127.0.0.1:8080",
		AdminAddr:         "127.0.0.1:8081",
		PersistOnShutdown: true,
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, the NUKE_CONFIG file and
// the environment, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("NUKE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file on cfg. Fields absent from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DataPath = getenv("DATA_PATH", c.DataPath)
	c.ListenAddr = getenv("LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)

	// ADMIN_ADDR may be set to empty to disable the admin listener
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok {
		c.AdminAddr = v
	}

	if v := os.Getenv("PARTITION_NUMBER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PARTITION_NUMBER: %w", err)
		}
		c.PartitionCount = n
	}

	if v := os.Getenv("SNAPSHOT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SNAPSHOT_INTERVAL: %w", err)
		}
		c.SnapshotInterval = d
	}

	if v := os.Getenv("PERSIST_ON_SHUTDOWN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PERSIST_ON_SHUTDOWN: %w", err)
		}
		c.PersistOnShutdown = b
	}

	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_DEVELOPMENT: %w", err)
		}
		c.LogDevelopment = b
	}

	return nil
}

// Validate reports every invalid setting
func (c Config) Validate() error {
	var errs []error
	if c.PartitionCount <= 0 {
		errs = append(errs, fmt.Errorf("partition_number must be positive, got %d", c.PartitionCount))
	}
	if c.DataPath == "" {
		errs = append(errs, errors.New("data_path must not be empty"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	if c.SnapshotInterval < 0 {
		errs = append(errs, fmt.Errorf("snapshot_interval must not be negative, got %s", c.SnapshotInterval))
	}
	return errors.Join(errs...)
}

// getenv returns the environment variable k, or def if it is unset or empty.
//
// Example:
//
//	listen := getenv("LISTEN_ADDR", "127.0.0.1:8080")
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
