// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry wires the storyboard metrics engine into OpenTelemetry.
//
// The engine itself is an in-process library; this package is the optional
// observability surface for hosts that want counters and histograms exported
// over Prometheus. Init sets up a MeterProvider, NewMetrics registers the
// instrument bundle, and the tracker records through nil-safe helpers so a
// host that skips Init pays nothing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ErrNilContext indicates Init was called with a nil context.
var ErrNilContext = errors.New("telemetry: nil context")

// Config controls telemetry behavior.
//
// All fields have sensible defaults via DefaultConfig().
type Config struct {
	// ServiceName identifies this service in metrics.
	ServiceName string `json:"service_name"`

	// ServiceVersion is the version string for this service.
	ServiceVersion string `json:"service_version"`

	// Environment identifies the deployment environment.
	Environment string `json:"environment"`

	// PrometheusPort is the port for the /metrics endpoint (default: 9464).
	PrometheusPort int `json:"prometheus_port"`

	// ServeMetrics starts an HTTP /metrics listener when true. Hosts that
	// already run a Prometheus registry can leave this false and scrape
	// through their own handler.
	ServeMetrics bool `json:"serve_metrics"`
}

// DefaultConfig returns opinionated defaults for development.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "storyboard-metrics",
		ServiceVersion: "1.0.0",
		Environment:    getEnvOr("FRAMEWRIGHT_ENV", "development"),
		PrometheusPort: 9464,
		ServeMetrics:   false,
	}
}

// Init initializes the metric pipeline with the given configuration.
//
// Description:
//
//	Sets up an OTel MeterProvider backed by a Prometheus exporter. After
//	Init returns successfully, otel.Meter() can be used throughout the
//	host application, and NewMetrics can register the engine's bundle.
//
// Inputs:
//
//	ctx - Context for initialization.
//	cfg - Telemetry configuration. Use DefaultConfig() for defaults.
//
// Outputs:
//
//	shutdown - Function to call on application exit for cleanup. Must be called.
//	error - Non-nil if initialization fails.
//
// Thread Safety: Call once at application startup.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	exporter, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	var server *http.Server
	if cfg.ServeMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			// ErrServerClosed is the normal shutdown path.
			_ = server.ListenAndServe()
		}()
	}

	shutdown = func(ctx context.Context) error {
		var errs []error
		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			}
		}
		if err := provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
		return errors.Join(errs...)
	}

	return shutdown, nil
}

// getEnvOr returns the environment variable value or a default.
func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
