// Package config resolves server settings from defaults, an optional YAML
// file, and HOMEOSTAT_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// #region config
// Config holds everything the server binary needs.
type Config struct {
	Addr       string        `yaml:"addr"`
	DBPath     string        `yaml:"db_path"`
	TickPeriod time.Duration `yaml:"tick_period"`

	Target float64 `yaml:"target"`
	Eta    float64 `yaml:"eta"`
	Alpha  float64 `yaml:"alpha"`
}

// Default returns the canonical settings: 1s tick, standard control gains.
func Default() Config {
	return Config{
		Addr:       ":3030",
		DBPath:     "homeostat.db",
		TickPeriod: time.Second,
		Target:     0.5,
		Eta:        0.1,
		Alpha:      0.97,
	}
}

// #endregion config

// #region load
// Load resolves the configuration. path may be empty (no file); a named
// file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HOMEOSTAT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("HOMEOSTAT_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("HOMEOSTAT_TICK_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HOMEOSTAT_TICK_PERIOD: %w", err)
		}
		cfg.TickPeriod = d
	}
	for _, f := range []struct {
		env string
		dst *float64
	}{
		{"HOMEOSTAT_TARGET", &cfg.Target},
		{"HOMEOSTAT_ETA", &cfg.Eta},
		{"HOMEOSTAT_ALPHA", &cfg.Alpha},
	} {
		if v := os.Getenv(f.env); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", f.env, err)
			}
			*f.dst = parsed
		}
	}
	return nil
}

// #endregion load
