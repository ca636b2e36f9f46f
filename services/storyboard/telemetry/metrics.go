// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined instruments for the storyboard metrics engine.
//
// Description:
//
//	Provides counters and histograms for pipeline lifecycle events, shot
//	completions, history eviction, and variant comparisons. All instruments
//	use the "storyboard_" prefix for consistent naming.
//
//	A nil *Metrics is valid and turns every Record* call into a no-op, so
//	callers can thread the bundle through unconditionally.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// RunsStartedTotal counts pipeline runs started, by workflow profile.
	RunsStartedTotal metric.Int64Counter

	// RunsCompletedTotal counts pipeline runs completed, by workflow profile.
	RunsCompletedTotal metric.Int64Counter

	// RunsAbandonedTotal counts pipeline runs abandoned or swept.
	RunsAbandonedTotal metric.Int64Counter

	// ShotsCompletedTotal counts completed shots by status.
	ShotsCompletedTotal metric.Int64Counter

	// ShotDuration records total shot duration in seconds.
	ShotDuration metric.Float64Histogram

	// ComparisonsTotal counts variant comparisons by method.
	ComparisonsTotal metric.Int64Counter
}

// NewMetrics creates a Metrics instance with all instruments registered.
//
// Inputs:
//
//	meter - The OTel meter to use for instrument registration.
//
// Outputs:
//
//	*Metrics - The bundle with all instruments initialized.
//	error - Non-nil if instrument registration fails.
//
// Example:
//
//	meter := otel.Meter("storyboard")
//	m, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RunsStartedTotal, err = meter.Int64Counter(
		"storyboard_runs_started_total",
		metric.WithDescription("Pipeline runs started"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs started counter: %w", err)
	}

	m.RunsCompletedTotal, err = meter.Int64Counter(
		"storyboard_runs_completed_total",
		metric.WithDescription("Pipeline runs completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs completed counter: %w", err)
	}

	m.RunsAbandonedTotal, err = meter.Int64Counter(
		"storyboard_runs_abandoned_total",
		metric.WithDescription("Pipeline runs abandoned before completion"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs abandoned counter: %w", err)
	}

	m.ShotsCompletedTotal, err = meter.Int64Counter(
		"storyboard_shots_completed_total",
		metric.WithDescription("Shots completed, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shots completed counter: %w", err)
	}

	m.ShotDuration, err = meter.Float64Histogram(
		"storyboard_shot_duration_seconds",
		metric.WithDescription("Total shot duration from queue to completion"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create shot duration histogram: %w", err)
	}

	m.ComparisonsTotal, err = meter.Int64Counter(
		"storyboard_comparisons_total",
		metric.WithDescription("Variant comparisons run, by method"),
	)
	if err != nil {
		return nil, fmt.Errorf("create comparisons counter: %w", err)
	}

	return m, nil
}

// RecordRunStarted increments the run-start counter.
func (m *Metrics) RecordRunStarted(profile string) {
	if m == nil {
		return
	}
	m.RunsStartedTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("workflow_profile", profile)))
}

// RecordRunCompleted increments the run-completion counter.
func (m *Metrics) RecordRunCompleted(profile string) {
	if m == nil {
		return
	}
	m.RunsCompletedTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("workflow_profile", profile)))
}

// RecordRunAbandoned increments the abandonment counter.
func (m *Metrics) RecordRunAbandoned(reason string) {
	if m == nil {
		return
	}
	m.RunsAbandonedTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordShotCompleted counts a shot completion and records its duration.
func (m *Metrics) RecordShotCompleted(success bool, durationMs int64) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	ctx := context.Background()
	m.ShotsCompletedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)))
	m.ShotDuration.Record(ctx, float64(durationMs)/1000)
}

// RecordComparison counts a variant comparison by method ("bayesian" or
// "frequentist").
func (m *Metrics) RecordComparison(method string) {
	if m == nil {
		return
	}
	m.ComparisonsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("method", method)))
}
