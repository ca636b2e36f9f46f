// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty returns zero", nil, 50, 0},
		{"p50 of five values", values, 50, 30},
		{"p95 of five values", values, 95, 50},
		{"p0 clamps to first", values, 0, 10},
		{"p100 is last", values, 100, 50},
		{"p20 nearest rank", values, 20, 10},
		{"p21 rounds up to second", values, 21, 20},
		{"single element", []float64{7}, 99, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if got != tt.want {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	t.Run("empty shot list", func(t *testing.T) {
		agg := Aggregate(nil)
		if agg == nil {
			t.Fatal("Aggregate(nil) returned nil")
		}
		if agg.AvgShotDurationMs != 0 || agg.P95ShotDurationMs != 0 {
			t.Errorf("expected zero duration stats, got %+v", agg)
		}
		if agg.TotalVRAMDeltaBytes != nil {
			t.Error("expected nil VRAM delta with no readings")
		}
		if agg.ValidationPassRate != nil {
			t.Error("expected nil validation pass rate with no verdicts")
		}
	})

	t.Run("duration statistics", func(t *testing.T) {
		shots := []*ShotMetrics{
			{ShotID: "a", TotalDurationMs: i64p(30)},
			{ShotID: "b", TotalDurationMs: i64p(10)},
			{ShotID: "c", TotalDurationMs: i64p(50)},
			{ShotID: "d"}, // never completed, excluded
		}
		agg := Aggregate(shots)

		if agg.AvgShotDurationMs != 30 {
			t.Errorf("avg = %v, want 30", agg.AvgShotDurationMs)
		}
		if agg.P50ShotDurationMs != 30 || agg.MedianShotDurationMs != 30 {
			t.Errorf("p50/median = %v/%v, want 30/30", agg.P50ShotDurationMs, agg.MedianShotDurationMs)
		}
		if agg.P95ShotDurationMs != 50 {
			t.Errorf("p95 = %v, want 50", agg.P95ShotDurationMs)
		}
		if agg.MinShotDurationMs != 10 || agg.MaxShotDurationMs != 50 {
			t.Errorf("min/max = %v/%v, want 10/50", agg.MinShotDurationMs, agg.MaxShotDurationMs)
		}
	})

	t.Run("queue wait averages over started shots only", func(t *testing.T) {
		shots := []*ShotMetrics{
			{ShotID: "a", QueueWaitMs: i64p(100)},
			{ShotID: "b", QueueWaitMs: i64p(200)},
			{ShotID: "c"},
		}
		agg := Aggregate(shots)
		if agg.AvgQueueWaitMs != 150 {
			t.Errorf("avg queue wait = %v, want 150", agg.AvgQueueWaitMs)
		}
	})

	t.Run("vram delta sums complete pairs", func(t *testing.T) {
		shots := []*ShotMetrics{
			{ShotID: "a", VRAMBeforeBytes: u64p(1000), VRAMAfterBytes: u64p(1500)},
			{ShotID: "b", VRAMBeforeBytes: u64p(2000), VRAMAfterBytes: u64p(1800)},
			{ShotID: "c", VRAMBeforeBytes: u64p(3000)}, // missing after, excluded
		}
		agg := Aggregate(shots)
		if agg.TotalVRAMDeltaBytes == nil {
			t.Fatal("expected VRAM delta")
		}
		if *agg.TotalVRAMDeltaBytes != 300 {
			t.Errorf("vram delta = %v, want 300 (500 - 200)", *agg.TotalVRAMDeltaBytes)
		}
	})

	t.Run("validation pass rate", func(t *testing.T) {
		shots := []*ShotMetrics{
			{ShotID: "a", ValidationPassed: boolp(true)},
			{ShotID: "b", ValidationPassed: boolp(true)},
			{ShotID: "c", ValidationPassed: boolp(false)},
			{ShotID: "d"},
		}
		agg := Aggregate(shots)
		if agg.ValidationPassRate == nil {
			t.Fatal("expected validation pass rate")
		}
		if math.Abs(*agg.ValidationPassRate-2.0/3.0) > 1e-12 {
			t.Errorf("pass rate = %v, want 2/3", *agg.ValidationPassRate)
		}
	})
}

func i64p(v int64) *int64   { return &v }
func u64p(v uint64) *uint64 { return &v }
func boolp(v bool) *bool    { return &v }
