// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads engine configuration for hosts of the storyboard
// metrics engine.
//
// The statistical constants (sample floors, significance thresholds,
// integration step counts) are deliberately NOT configurable: they are part
// of the engine's contract and changing them would silently invalidate
// recorded baselines. Configuration covers operational knobs only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// like "30m" as well as plain nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the operational settings for one engine instance.
type Config struct {
	// HistoryCapacity bounds how many completed runs are retained.
	HistoryCapacity int `yaml:"history_capacity" validate:"gte=1,lte=100000"`

	// AbandonedRunTTL is how long an active run may sit without events
	// before a sweep drops it. Zero disables sweeping, matching the
	// original engine's behavior of never reclaiming abandoned runs.
	AbandonedRunTTL Duration `yaml:"abandoned_run_ttl" validate:"gte=0"`

	// LogLevel is the minimum slog level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Telemetry controls the optional Prometheus metrics surface.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig controls the metrics export surface.
type TelemetryConfig struct {
	// Enabled turns on the OTel/Prometheus instrument pipeline.
	Enabled bool `yaml:"enabled"`

	// ServeMetrics starts a /metrics HTTP listener when true.
	ServeMetrics bool `yaml:"serve_metrics"`

	// PrometheusPort is the /metrics listener port.
	PrometheusPort int `yaml:"prometheus_port" validate:"gte=0,lte=65535"`
}

// Default returns the engine defaults: 50 retained runs, no abandoned-run
// sweeping, info logging, telemetry off.
func Default() Config {
	return Config{
		HistoryCapacity: 50,
		AbandonedRunTTL: 0,
		LogLevel:        "info",
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServeMetrics:   false,
			PrometheusPort: 9464,
		},
	}
}

// Load reads a YAML config file over the defaults and validates it.
//
// Description:
//
//	Fields absent from the file keep their default values. Validation
//	failures and unreadable files return errors; there is no partial
//	fallback, so a host never runs on a half-applied config.
//
// Inputs:
//   - path: YAML file path.
//
// Outputs:
//   - Config: The merged, validated configuration.
//   - error: Non-nil on read, parse, or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field bounds.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
