// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metrics tracks storyboard pipeline runs: per-shot timing, GPU
// memory readings, and validation outcomes, aggregated at completion and
// retained in a bounded history.
//
// The package is instrumentation: collaborators report events as they
// happen, and a failure to record anything must never abort the generation
// being observed. Unknown run or shot references therefore log a warning and
// become no-ops instead of returning errors.
package metrics

import "time"

// -----------------------------------------------------------------------------
// Shot Metrics
// -----------------------------------------------------------------------------

// ShotMetrics captures one generation step inside a pipeline run.
//
// Description:
//
//	Timestamps are recorded by the tracker as events arrive; the caller
//	guarantees they arrive in order, so queuedAt <= startedAt <= completedAt
//	whenever the later fields are present. Derived durations are only
//	populated once both operands are known. Optional values use pointers so
//	"not reported" is distinguishable from zero.
//
// Thread Safety: Owned by its parent run; access is serialized by the
// tracker while the run is active and the struct is immutable afterward.
type ShotMetrics struct {
	// ShotID identifies the shot within its run.
	ShotID string `json:"shot_id"`

	// ShotIndex is the shot's queue position, unique within the run.
	ShotIndex int `json:"shot_index"`

	// PromptID links the shot to the prompt that produced it, if any.
	PromptID string `json:"prompt_id,omitempty"`

	// QueuedAt is when the shot entered the generation queue.
	QueuedAt time.Time `json:"queued_at"`

	// StartedAt is when generation began, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when generation finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// QueueWaitMs is startedAt - queuedAt in milliseconds.
	QueueWaitMs *int64 `json:"queue_wait_ms,omitempty"`

	// TotalDurationMs is completedAt - queuedAt in milliseconds.
	TotalDurationMs *int64 `json:"total_duration_ms,omitempty"`

	// GenerationDurationMs is completedAt - startedAt in milliseconds.
	GenerationDurationMs *int64 `json:"generation_duration_ms,omitempty"`

	// VRAMBeforeBytes is GPU memory in use before the shot, if reported.
	VRAMBeforeBytes *uint64 `json:"vram_before_bytes,omitempty"`

	// VRAMAfterBytes is GPU memory in use after the shot, if reported.
	VRAMAfterBytes *uint64 `json:"vram_after_bytes,omitempty"`

	// VRAMPeakBytes is the peak GPU memory during the shot, if reported.
	VRAMPeakBytes *uint64 `json:"vram_peak_bytes,omitempty"`

	// Success is true when the shot completed without error.
	Success bool `json:"success"`

	// Error holds the failure message; empty on success.
	Error string `json:"error,omitempty"`

	// ValidationPassed is the quality-validation verdict, if validated.
	ValidationPassed *bool `json:"validation_passed,omitempty"`

	// ValidationErrors lists blocking validation failures.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	// ValidationWarnings lists advisory validation findings.
	ValidationWarnings []string `json:"validation_warnings,omitempty"`
}

// VRAMDeltaBytes returns after - before when both readings are present.
func (s *ShotMetrics) VRAMDeltaBytes() (int64, bool) {
	if s.VRAMBeforeBytes == nil || s.VRAMAfterBytes == nil {
		return 0, false
	}
	return int64(*s.VRAMAfterBytes) - int64(*s.VRAMBeforeBytes), true
}

// -----------------------------------------------------------------------------
// Pipeline Run
// -----------------------------------------------------------------------------

// PipelineRun is the full record of one scene's generation pipeline.
//
// Description:
//
//	Created by RunTracker.StartPipeline and mutated only through tracker
//	calls while active. CompletePipeline computes Aggregates exactly once
//	and moves the run into history, after which it is immutable.
type PipelineRun struct {
	// RunID is the globally unique run identifier.
	RunID string `json:"run_id"`

	// SceneID identifies the scene being generated.
	SceneID string `json:"scene_id"`

	// TotalShots is the shot count declared at start.
	TotalShots int `json:"total_shots"`

	// SuccessfulShots counts shots completed successfully.
	SuccessfulShots int `json:"successful_shots"`

	// FailedShots counts shots completed with an error.
	FailedShots int `json:"failed_shots"`

	// WorkflowProfile labels the generation workflow (e.g. "wan-i2v").
	WorkflowProfile string `json:"workflow_profile"`

	// StartedAt is when the pipeline started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the pipeline finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// TotalDurationMs is the wall-clock pipeline duration in milliseconds.
	TotalDurationMs *int64 `json:"total_duration_ms,omitempty"`

	// Shots holds per-shot metrics in queue (insertion) order.
	Shots []*ShotMetrics `json:"shots"`

	// Aggregates holds shot statistics, present only after finalization.
	Aggregates *PipelineAggregates `json:"aggregates,omitempty"`
}

// shot returns the shot with the given id, or nil.
func (r *PipelineRun) shot(shotID string) *ShotMetrics {
	for _, s := range r.Shots {
		if s.ShotID == shotID {
			return s
		}
	}
	return nil
}

// PipelineAggregates holds statistics over a completed run's shots.
//
// Description:
//
//	Duration statistics cover only shots with a known total duration.
//	TotalVRAMDeltaBytes and ValidationPassRate are nil when no shot
//	reported the underlying fields. Computed once at finalization from the
//	run's shot snapshot and never recomputed.
type PipelineAggregates struct {
	// AvgShotDurationMs is the mean shot duration.
	AvgShotDurationMs float64 `json:"avg_shot_duration_ms"`

	// MedianShotDurationMs is the 50th-percentile shot duration.
	MedianShotDurationMs float64 `json:"median_shot_duration_ms"`

	// P50ShotDurationMs is the 50th-percentile shot duration.
	P50ShotDurationMs float64 `json:"p50_shot_duration_ms"`

	// P95ShotDurationMs is the 95th-percentile shot duration.
	P95ShotDurationMs float64 `json:"p95_shot_duration_ms"`

	// MinShotDurationMs is the fastest shot duration.
	MinShotDurationMs float64 `json:"min_shot_duration_ms"`

	// MaxShotDurationMs is the slowest shot duration.
	MaxShotDurationMs float64 `json:"max_shot_duration_ms"`

	// AvgQueueWaitMs is the mean queue wait over shots that started.
	AvgQueueWaitMs float64 `json:"avg_queue_wait_ms"`

	// TotalVRAMDeltaBytes sums per-shot VRAM deltas where both readings
	// exist; nil if no shot had both.
	TotalVRAMDeltaBytes *int64 `json:"total_vram_delta_bytes,omitempty"`

	// ValidationPassRate is passed/validated over shots with a verdict;
	// nil if none were validated.
	ValidationPassRate *float64 `json:"validation_pass_rate,omitempty"`
}

// -----------------------------------------------------------------------------
// Global Stats
// -----------------------------------------------------------------------------

// GlobalPipelineStats is a rollup over every run retained in history.
//
// Description:
//
//	Shot statistics pool all shots across all runs rather than averaging
//	per-run aggregates, so long runs weigh proportionally more. A store
//	with empty history reports the zero value.
type GlobalPipelineStats struct {
	// TotalRuns is the number of runs in history.
	TotalRuns int `json:"total_runs"`

	// AvgShotDurationMs is the mean duration over all pooled shots.
	AvgShotDurationMs float64 `json:"avg_shot_duration_ms"`

	// P50ShotDurationMs is the pooled 50th-percentile shot duration.
	P50ShotDurationMs float64 `json:"p50_shot_duration_ms"`

	// P95ShotDurationMs is the pooled 95th-percentile shot duration.
	P95ShotDurationMs float64 `json:"p95_shot_duration_ms"`

	// OverallSuccessRate is sum(successfulShots) / sum(totalShots).
	OverallSuccessRate float64 `json:"overall_success_rate"`

	// AvgPipelineDurationMs averages over runs with a known duration.
	AvgPipelineDurationMs float64 `json:"avg_pipeline_duration_ms"`
}
