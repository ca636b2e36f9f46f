// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/framewright/framewright/services/storyboard/telemetry"
)

// -----------------------------------------------------------------------------
// Run Tracker
// -----------------------------------------------------------------------------

// RunTracker manages the lifecycle of in-flight pipeline runs.
//
// Description:
//
//	Generation collaborators call the Record* methods as events occur.
//	Every lookup failure (unknown run or shot) is non-fatal: the call logs
//	a warning and becomes a no-op, because instrumentation must never
//	abort the generation it observes. Completed runs move into the
//	attached HistoryStore and become immutable.
//
// # Thread Safety
//
// Safe for concurrent use. A single RWMutex guards the active-run map;
// contention is low because events arrive at generation-step granularity.
type RunTracker struct {
	mu      sync.RWMutex
	active  map[string]*PipelineRun
	history *HistoryStore
	logger  *slog.Logger
	tm      *telemetry.Metrics

	// now is the clock source; replaced in tests for determinism.
	now func() time.Time
}

// NewRunTracker creates a tracker that finalizes runs into history.
//
// Inputs:
//   - history: Destination for completed runs. Must not be nil.
//   - logger: Structured logger; nil falls back to slog.Default().
//   - tm: Optional telemetry bundle; nil disables instrumentation.
func NewRunTracker(history *HistoryStore, logger *slog.Logger, tm *telemetry.Metrics) *RunTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunTracker{
		active:  make(map[string]*PipelineRun),
		history: history,
		logger:  logger,
		tm:      tm,
		now:     time.Now,
	}
}

// newRunID builds a unique run identifier from the current timestamp and a
// random suffix.
func (t *RunTracker) newRunID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Timestamp alone still keeps ids unique enough at run granularity.
		return fmt.Sprintf("run_%d", t.now().UnixNano())
	}
	return fmt.Sprintf("run_%d_%s", t.now().UnixMilli(), hex.EncodeToString(b))
}

// StartPipeline allocates and registers a new active run.
//
// Inputs:
//   - sceneID: Scene being generated.
//   - totalShots: Declared number of shots in the pipeline.
//   - workflowProfile: Label for the generation workflow.
//
// Outputs:
//   - string: The fresh unique run id.
func (t *RunTracker) StartPipeline(sceneID string, totalShots int, workflowProfile string) string {
	run := &PipelineRun{
		RunID:           t.newRunID(),
		SceneID:         sceneID,
		TotalShots:      totalShots,
		WorkflowProfile: workflowProfile,
		StartedAt:       t.now(),
		Shots:           make([]*ShotMetrics, 0, totalShots),
	}

	t.mu.Lock()
	t.active[run.RunID] = run
	t.mu.Unlock()

	t.logger.Debug("pipeline run started",
		"run_id", run.RunID,
		"scene_id", sceneID,
		"total_shots", totalShots,
		"workflow_profile", workflowProfile,
	)
	t.tm.RecordRunStarted(workflowProfile)

	return run.RunID
}

// RecordShotQueued appends a new shot entry with queuedAt set to now.
//
// Description:
//
//	An unknown runId is a non-fatal no-op: the method logs a warning and
//	returns nil rather than failing the caller.
//
// Inputs:
//   - runID: The owning run.
//   - shotID: Shot identifier, unique within the run.
//   - shotIndex: Queue position within the run.
//   - promptID: Optional prompt reference; empty means none.
//   - vramBefore: Optional GPU memory reading before the shot.
//
// Outputs:
//   - *ShotMetrics: Snapshot of the recorded shot, or nil for unknown runs.
func (t *RunTracker) RecordShotQueued(runID, shotID string, shotIndex int, promptID string, vramBefore *uint64) *ShotMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.active[runID]
	if !ok {
		t.logger.Warn("shot queued for unknown run", "run_id", runID, "shot_id", shotID)
		return nil
	}

	shot := &ShotMetrics{
		ShotID:          shotID,
		ShotIndex:       shotIndex,
		PromptID:        promptID,
		QueuedAt:        t.now(),
		VRAMBeforeBytes: vramBefore,
	}
	run.Shots = append(run.Shots, shot)

	snapshot := *shot
	return &snapshot
}

// RecordShotStarted marks the shot as started and derives its queue wait.
// Silently a no-op if the run or shot is unknown.
func (t *RunTracker) RecordShotStarted(runID, shotID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	shot := t.lookupShotLocked(runID, shotID, "shot started")
	if shot == nil {
		return
	}

	now := t.now()
	shot.StartedAt = &now
	wait := now.Sub(shot.QueuedAt).Milliseconds()
	shot.QueueWaitMs = &wait
}

// RecordShotCompleted finalizes a shot's timing, resources, and outcome.
//
// Description:
//
//	Sets completedAt, derives the total duration (and the generation
//	duration when the shot was marked started), stores the VRAM readings,
//	and increments the run's success or failure counter.
//
//	Callers must invoke this exactly once per shot. The tracker does not
//	deduplicate; a second call double-counts the run's outcome counters.
//
// Inputs:
//   - runID, shotID: The shot to finalize.
//   - success: Whether generation succeeded.
//   - vramAfter, vramPeak: Optional GPU memory readings.
//   - errMsg: Failure message; empty on success.
func (t *RunTracker) RecordShotCompleted(runID, shotID string, success bool, vramAfter, vramPeak *uint64, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.active[runID]
	if !ok {
		t.logger.Warn("shot completed for unknown run", "run_id", runID, "shot_id", shotID)
		return
	}
	shot := run.shot(shotID)
	if shot == nil {
		t.logger.Warn("completion for unknown shot", "run_id", runID, "shot_id", shotID)
		return
	}

	now := t.now()
	shot.CompletedAt = &now
	total := now.Sub(shot.QueuedAt).Milliseconds()
	shot.TotalDurationMs = &total
	if shot.StartedAt != nil {
		gen := now.Sub(*shot.StartedAt).Milliseconds()
		shot.GenerationDurationMs = &gen
	}
	shot.VRAMAfterBytes = vramAfter
	shot.VRAMPeakBytes = vramPeak
	shot.Success = success
	shot.Error = errMsg

	if success {
		run.SuccessfulShots++
	} else {
		run.FailedShots++
		t.logger.Debug("shot failed", "run_id", runID, "shot_id", shotID, "error", errMsg)
	}
	t.tm.RecordShotCompleted(success, total)
}

// RecordShotValidation attaches a quality-validation outcome to a shot,
// independent of completion timing. Silently a no-op if the run or shot is
// unknown.
func (t *RunTracker) RecordShotValidation(runID, shotID string, passed bool, errors, warnings []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	shot := t.lookupShotLocked(runID, shotID, "shot validation")
	if shot == nil {
		return
	}

	shot.ValidationPassed = &passed
	shot.ValidationErrors = errors
	shot.ValidationWarnings = warnings
}

// CompletePipeline finalizes a run: stamps the completion time, computes
// aggregates from the shot snapshot, and moves the run into history.
//
// Description:
//
//	Aggregates are computed exactly once here; the run is immutable
//	afterward. Returns nil (with a logged warning) for unknown run ids.
//
// Outputs:
//   - *PipelineRun: The finalized, immutable run, or nil.
func (t *RunTracker) CompletePipeline(runID string) *PipelineRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.active[runID]
	if !ok {
		t.logger.Warn("completion for unknown run", "run_id", runID)
		return nil
	}

	now := t.now()
	run.CompletedAt = &now
	total := now.Sub(run.StartedAt).Milliseconds()
	run.TotalDurationMs = &total
	run.Aggregates = Aggregate(run.Shots)

	delete(t.active, runID)
	t.history.Push(run)

	t.logger.Info("pipeline run completed",
		"run_id", runID,
		"scene_id", run.SceneID,
		"successful_shots", run.SuccessfulShots,
		"failed_shots", run.FailedShots,
		"duration_ms", total,
	)
	t.tm.RecordRunCompleted(run.WorkflowProfile)

	return run
}

// AbandonPipeline drops an active run without finalizing it.
//
// Description:
//
//	New behavior relative to the original engine, which leaked abandoned
//	runs indefinitely. The run is discarded, not moved to history.
//
// Outputs:
//   - bool: True if the run existed and was dropped.
func (t *RunTracker) AbandonPipeline(runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.active[runID]; !ok {
		return false
	}
	delete(t.active, runID)

	t.logger.Info("pipeline run abandoned", "run_id", runID)
	t.tm.RecordRunAbandoned("explicit")
	return true
}

// SweepAbandoned drops active runs with no event activity for olderThan.
//
// Description:
//
//	New behavior relative to the original engine. A run's activity time is
//	the latest of its start and any shot event, so long pipelines that are
//	still producing events are never swept.
//
// Outputs:
//   - int: Number of runs dropped.
func (t *RunTracker) SweepAbandoned(olderThan time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-olderThan)
	swept := 0
	for id, run := range t.active {
		if lastActivity(run).Before(cutoff) {
			delete(t.active, id)
			swept++
			t.logger.Warn("swept abandoned pipeline run",
				"run_id", id,
				"scene_id", run.SceneID,
				"started_at", run.StartedAt,
			)
			t.tm.RecordRunAbandoned("swept")
		}
	}
	return swept
}

// ActiveRuns returns deep snapshots of every in-flight run, for diagnostics.
func (t *RunTracker) ActiveRuns() []*PipelineRun {
	t.mu.RLock()
	defer t.mu.RUnlock()

	runs := make([]*PipelineRun, 0, len(t.active))
	for _, run := range t.active {
		runs = append(runs, cloneRun(run))
	}
	return runs
}

// ActiveCount returns the number of in-flight runs.
func (t *RunTracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// lookupShotLocked finds a shot, logging a warning describing the event on
// any miss. Caller holds t.mu.
func (t *RunTracker) lookupShotLocked(runID, shotID, event string) *ShotMetrics {
	run, ok := t.active[runID]
	if !ok {
		t.logger.Warn(event+" for unknown run", "run_id", runID, "shot_id", shotID)
		return nil
	}
	shot := run.shot(shotID)
	if shot == nil {
		t.logger.Warn(event+" for unknown shot", "run_id", runID, "shot_id", shotID)
	}
	return shot
}

// lastActivity returns the latest event timestamp observed on a run.
func lastActivity(run *PipelineRun) time.Time {
	last := run.StartedAt
	for _, s := range run.Shots {
		if s.QueuedAt.After(last) {
			last = s.QueuedAt
		}
		if s.StartedAt != nil && s.StartedAt.After(last) {
			last = *s.StartedAt
		}
		if s.CompletedAt != nil && s.CompletedAt.After(last) {
			last = *s.CompletedAt
		}
	}
	return last
}

// cloneRun copies a run and its shots. Pointer-valued fields are never
// mutated in place by the tracker (new pointers are assigned instead), so
// sharing them between the clone and the original is safe.
func cloneRun(run *PipelineRun) *PipelineRun {
	clone := *run
	clone.Shots = make([]*ShotMetrics, len(run.Shots))
	for i, s := range run.Shots {
		shot := *s
		clone.Shots[i] = &shot
	}
	return &clone
}
