// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"sort"
	"sync"
)

// DefaultHistoryCapacity is the number of completed runs retained when no
// capacity is configured.
const DefaultHistoryCapacity = 50

// HistoryStore retains completed pipeline runs in a fixed-size ring.
//
// Description:
//
//	Push is O(1); once the ring is full the oldest run is overwritten.
//	Stored runs are treated as immutable snapshots. Eviction is silent.
//
// # Thread Safety
//
// Safe for concurrent use. Push is atomic with respect to History and
// GlobalStats reads.
type HistoryStore struct {
	mu    sync.RWMutex
	runs  []*PipelineRun
	head  int // Next write position
	count int
	full  bool
}

// NewHistoryStore creates a history store with the given capacity.
// Non-positive capacities fall back to DefaultHistoryCapacity.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryStore{
		runs: make([]*PipelineRun, capacity),
	}
}

// Push inserts a completed run as the most recent entry, evicting the
// oldest entry once the store is at capacity.
func (h *HistoryStore) Push(run *PipelineRun) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs[h.head] = run
	h.head = (h.head + 1) % len(h.runs)

	if !h.full {
		h.count++
		if h.count == len(h.runs) {
			h.full = true
		}
	}
}

// Len returns the number of retained runs.
func (h *HistoryStore) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Cap returns the store capacity.
func (h *HistoryStore) Cap() int {
	return len(h.runs)
}

// History returns up to limit retained runs, newest first.
//
// Inputs:
//   - limit: Maximum entries to return. Non-positive returns nil.
//
// Outputs:
//   - []*PipelineRun: Newest-first snapshot slice. The runs themselves are
//     shared immutable snapshots, not copies.
func (h *HistoryStore) History(limit int) []*PipelineRun {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastLocked(limit)
}

// lastLocked returns up to n runs newest-first. Caller holds h.mu.
func (h *HistoryStore) lastLocked(n int) []*PipelineRun {
	if n <= 0 || h.count == 0 {
		return nil
	}
	if n > h.count {
		n = h.count
	}

	result := make([]*PipelineRun, n)
	for i := 0; i < n; i++ {
		idx := h.head - 1 - i
		if idx < 0 {
			idx += len(h.runs)
		}
		result[i] = h.runs[idx]
	}
	return result
}

// GlobalStats computes a rollup over every retained run.
//
// Description:
//
//	Shot duration statistics pool all shots across all runs (not an
//	average of per-run averages). OverallSuccessRate divides the summed
//	successful-shot counters by the summed declared shot totals. The
//	pipeline duration average covers only runs with a known duration.
//	Empty history returns the zero value.
//
// Outputs:
//   - GlobalPipelineStats: All-zero when history is empty.
func (h *HistoryStore) GlobalStats() GlobalPipelineStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := GlobalPipelineStats{TotalRuns: h.count}
	if h.count == 0 {
		return stats
	}

	var durations []float64
	var durationSum float64
	totalShots := 0
	successfulShots := 0
	var pipelineDurationSum float64
	pipelineDurationCount := 0

	for _, run := range h.lastLocked(h.count) {
		totalShots += run.TotalShots
		successfulShots += run.SuccessfulShots
		if run.TotalDurationMs != nil {
			pipelineDurationSum += float64(*run.TotalDurationMs)
			pipelineDurationCount++
		}
		for _, s := range run.Shots {
			if s.TotalDurationMs != nil {
				d := float64(*s.TotalDurationMs)
				durations = append(durations, d)
				durationSum += d
			}
		}
	}

	if len(durations) > 0 {
		sort.Float64s(durations)
		stats.AvgShotDurationMs = durationSum / float64(len(durations))
		stats.P50ShotDurationMs = Percentile(durations, 50)
		stats.P95ShotDurationMs = Percentile(durations, 95)
	}
	if totalShots > 0 {
		stats.OverallSuccessRate = float64(successfulShots) / float64(totalShots)
	}
	if pipelineDurationCount > 0 {
		stats.AvgPipelineDurationMs = pipelineDurationSum / float64(pipelineDurationCount)
	}

	return stats
}
