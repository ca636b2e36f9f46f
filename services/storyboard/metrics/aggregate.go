// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"math"
	"sort"
)

// -----------------------------------------------------------------------------
// Aggregation
// -----------------------------------------------------------------------------

// Percentile returns the p-th percentile of sorted using the nearest-rank
// method.
//
// Description:
//
//	Selects the element at index ceil(p/100 * n) - 1, clamped to
//	[0, n-1]. No interpolation between adjacent values: dashboards and
//	exported baselines depend on this rule bit-for-bit, so it must not be
//	swapped for a linear-interpolation variant.
//
// Inputs:
//   - sorted: Values in ascending order. Not re-sorted here.
//   - p: Percentile in [0,100].
//
// Outputs:
//   - float64: The selected value, or 0 for empty input.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Aggregate computes per-run statistics from a shot snapshot.
//
// Description:
//
//	Duration statistics cover shots with a known total duration; queue
//	wait averages over shots that started; the VRAM delta sums over shots
//	with both before and after readings (nil if none); the validation pass
//	rate divides passes by validated shots (nil if none were validated).
//	With no measurable shots at all, the duration fields are zero.
//
// Inputs:
//   - shots: The run's shots in queue order.
//
// Outputs:
//   - *PipelineAggregates: Never nil.
//
// Thread Safety: This function is stateless; the caller must ensure the
// shot snapshot is no longer being mutated.
func Aggregate(shots []*ShotMetrics) *PipelineAggregates {
	agg := &PipelineAggregates{}

	var durations []float64
	var queueWaitSum float64
	queueWaitCount := 0
	var vramDelta int64
	vramCount := 0
	validated := 0
	passed := 0

	for _, s := range shots {
		if s.TotalDurationMs != nil {
			durations = append(durations, float64(*s.TotalDurationMs))
		}
		if s.QueueWaitMs != nil {
			queueWaitSum += float64(*s.QueueWaitMs)
			queueWaitCount++
		}
		if delta, ok := s.VRAMDeltaBytes(); ok {
			vramDelta += delta
			vramCount++
		}
		if s.ValidationPassed != nil {
			validated++
			if *s.ValidationPassed {
				passed++
			}
		}
	}

	if len(durations) > 0 {
		sort.Float64s(durations)
		var sum float64
		for _, d := range durations {
			sum += d
		}
		agg.AvgShotDurationMs = sum / float64(len(durations))
		agg.P50ShotDurationMs = Percentile(durations, 50)
		agg.MedianShotDurationMs = agg.P50ShotDurationMs
		agg.P95ShotDurationMs = Percentile(durations, 95)
		agg.MinShotDurationMs = durations[0]
		agg.MaxShotDurationMs = durations[len(durations)-1]
	}

	if queueWaitCount > 0 {
		agg.AvgQueueWaitMs = queueWaitSum / float64(queueWaitCount)
	}
	if vramCount > 0 {
		agg.TotalVRAMDeltaBytes = &vramDelta
	}
	if validated > 0 {
		rate := float64(passed) / float64(validated)
		agg.ValidationPassRate = &rate
	}

	return agg
}
