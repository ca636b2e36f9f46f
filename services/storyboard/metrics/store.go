// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/framewright/framewright/services/storyboard/telemetry"
)

// -----------------------------------------------------------------------------
// Metrics Store
// -----------------------------------------------------------------------------

// StoreConfig configures a Store.
type StoreConfig struct {
	// HistoryCapacity bounds retained completed runs.
	// Non-positive falls back to DefaultHistoryCapacity.
	HistoryCapacity int

	// Logger is the structured logger; nil falls back to slog.Default().
	Logger *slog.Logger

	// Telemetry is the optional instrument bundle; nil disables it.
	Telemetry *telemetry.Metrics
}

// Store owns the run tracker and history for one engine instance.
//
// Description:
//
//	The original engine kept the active-run map and history as hidden
//	module-level state. Store makes that state an explicit object owned by
//	the hosting application, so independent instances (one per test, per
//	tenant, per GPU host) do not interfere.
//
// # Thread Safety
//
// Safe for concurrent use; the tracker and history carry their own locks.
type Store struct {
	tracker *RunTracker
	history *HistoryStore
}

// NewStore creates an engine instance with its own tracker and history.
func NewStore(cfg StoreConfig) *Store {
	history := NewHistoryStore(cfg.HistoryCapacity)
	return &Store{
		tracker: NewRunTracker(history, cfg.Logger, cfg.Telemetry),
		history: history,
	}
}

// Tracker returns the run tracker for event recording.
func (s *Store) Tracker() *RunTracker {
	return s.tracker
}

// History returns up to limit completed runs, newest first.
func (s *Store) History(limit int) []*PipelineRun {
	return s.history.History(limit)
}

// HistoryCapacity returns the configured retention bound.
func (s *Store) HistoryCapacity() int {
	return s.history.Cap()
}

// GlobalStats returns the rollup over all retained runs.
func (s *Store) GlobalStats() GlobalPipelineStats {
	return s.history.GlobalStats()
}

// ActiveRuns returns deep snapshots of the in-flight runs, for diagnostics.
func (s *Store) ActiveRuns() []*PipelineRun {
	return s.tracker.ActiveRuns()
}

// ExportSnapshot is a point-in-time serialization of the store for
// dashboards and offline analysis.
type ExportSnapshot struct {
	// ExportedAt is when the snapshot was taken.
	ExportedAt time.Time `json:"exported_at"`

	// GlobalStats is the history rollup at export time.
	GlobalStats GlobalPipelineStats `json:"global_stats"`

	// History holds every retained run, newest first.
	History []*PipelineRun `json:"history"`

	// ActiveRunCount is the number of still-active runs not included in
	// History.
	ActiveRunCount int `json:"active_run_count"`
}

// Export captures the full retained history and its rollup.
//
// Description:
//
//	History carries every retained run (up to capacity), newest first —
//	element-for-element the same as History(HistoryCapacity()). Active
//	runs are represented only by their count; they are still mutable and
//	have no aggregates yet.
func (s *Store) Export() ExportSnapshot {
	return ExportSnapshot{
		ExportedAt:     time.Now(),
		GlobalStats:    s.history.GlobalStats(),
		History:        s.history.History(s.history.Cap()),
		ActiveRunCount: s.tracker.ActiveCount(),
	}
}

// WriteJSON serializes an export snapshot to w as indented JSON.
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Export()); err != nil {
		return fmt.Errorf("encode metrics export: %w", err)
	}
	return nil
}

// ReadSnapshot decodes an export snapshot previously written by WriteJSON.
func ReadSnapshot(r io.Reader) (*ExportSnapshot, error) {
	var snap ExportSnapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode metrics export: %w", err)
	}
	return &snap, nil
}
