// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package abtest

import (
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Frequentist Comparison
// -----------------------------------------------------------------------------

const (
	// MinSampleSize is the per-variant sample floor below which the
	// frequentist heuristic never reports significance.
	MinSampleSize = 30

	// MinRelativeDiff is the relative difference threshold for
	// significance.
	MinRelativeDiff = 0.1
)

// Metric names a comparable field of a VariantSummary.
type Metric string

const (
	// MetricSuccessRate compares success rates (higher is better).
	MetricSuccessRate Metric = "success_rate"

	// MetricAvgGenerationTime compares mean durations (lower is better).
	MetricAvgGenerationTime Metric = "avg_generation_time_ms"

	// MetricSafetyFilterRate compares safety-filter rates (lower is better).
	MetricSafetyFilterRate Metric = "safety_filter_rate"

	// MetricRegenerationRate compares regeneration rates (lower is better).
	MetricRegenerationRate Metric = "regeneration_rate"
)

// reportMetrics is the fixed metric set a comparison report covers.
var reportMetrics = []Metric{
	MetricSuccessRate,
	MetricAvgGenerationTime,
	MetricSafetyFilterRate,
	MetricRegenerationRate,
}

// higherIsBetter reports the preferred direction for a metric. Only the
// success rate improves upward; the rest are costs.
func higherIsBetter(m Metric) bool {
	return m == MetricSuccessRate
}

// value extracts the named metric from a summary.
func (s VariantSummary) value(m Metric) float64 {
	switch m {
	case MetricSuccessRate:
		return s.SuccessRate
	case MetricAvgGenerationTime:
		return s.AvgGenerationTimeMs
	case MetricSafetyFilterRate:
		return s.SafetyFilterRate
	case MetricRegenerationRate:
		return s.RegenerationRate
	default:
		return 0
	}
}

// IsSignificantDifference applies the relative-difference heuristic.
//
// Description:
//
//	Requires at least MinSampleSize observations on both sides; below
//	that, never significant. Two zero values are indistinguishable. A
//	zero control with a nonzero treatment is significant once the
//	treatment sample is large enough (the relative difference would be
//	undefined). Otherwise significance means the relative difference
//	|treatment-control| / |control| reaches MinRelativeDiff.
//
//	This is a heuristic, not a hypothesis test: it trades statistical
//	rigor for a cheap, explainable screen. The Bayesian comparator in the
//	stats package produces calibrated probabilities on samples this rule
//	refuses to judge.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func IsSignificantDifference(controlValue, treatmentValue float64, nControl, nTreatment int) bool {
	if nControl < MinSampleSize || nTreatment < MinSampleSize {
		return false
	}
	if controlValue == 0 && treatmentValue == 0 {
		return false
	}
	if controlValue == 0 {
		return nTreatment >= MinSampleSize
	}
	relativeDiff := math.Abs(treatmentValue-controlValue) / math.Abs(controlValue)
	return relativeDiff >= MinRelativeDiff
}

// VariantComparison is the frequentist verdict for one metric.
type VariantComparison struct {
	// Metric names the compared field.
	Metric Metric `json:"metric"`

	// ControlValue is the control side's metric value.
	ControlValue float64 `json:"control_value"`

	// TreatmentValue is the treatment side's metric value.
	TreatmentValue float64 `json:"treatment_value"`

	// AbsoluteDiff is treatment - control.
	AbsoluteDiff float64 `json:"absolute_diff"`

	// RelativeDiff is AbsoluteDiff / |control|, or 0 when control is 0.
	RelativeDiff float64 `json:"relative_diff"`

	// IsSignificant is the heuristic verdict.
	IsSignificant bool `json:"is_significant"`

	// Winner is "control", "treatment", or "none"; set only when the
	// difference is significant, respecting the metric's direction.
	Winner string `json:"winner"`
}

// CompareVariants compares one named metric between two summaries.
func CompareVariants(control, treatment VariantSummary, metric Metric) VariantComparison {
	cv := control.value(metric)
	tv := treatment.value(metric)

	cmp := VariantComparison{
		Metric:         metric,
		ControlValue:   cv,
		TreatmentValue: tv,
		AbsoluteDiff:   tv - cv,
		Winner:         "none",
	}
	if cv != 0 {
		cmp.RelativeDiff = cmp.AbsoluteDiff / math.Abs(cv)
	}
	cmp.IsSignificant = IsSignificantDifference(cv, tv, control.SampleSize, treatment.SampleSize)

	if cmp.IsSignificant && cv != tv {
		treatmentWins := tv > cv
		if !higherIsBetter(metric) {
			treatmentWins = tv < cv
		}
		if treatmentWins {
			cmp.Winner = "treatment"
		} else {
			cmp.Winner = "control"
		}
	}
	return cmp
}

// Confidence grades how much weight a comparison report deserves.
type Confidence string

const (
	// ConfidenceHigh requires both samples >= 100 and at least two
	// significant metrics.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium requires both samples >= 50 and at least one
	// significant metric.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow is everything else.
	ConfidenceLow Confidence = "low"
)

// ComparisonReport is the multi-metric frequentist report.
type ComparisonReport struct {
	// Control is the control-side summary the report was built from.
	Control VariantSummary `json:"control"`

	// Treatment is the treatment-side summary.
	Treatment VariantSummary `json:"treatment"`

	// Comparisons holds one verdict per reported metric.
	Comparisons []VariantComparison `json:"comparisons"`

	// Confidence grades the report (high, medium, low).
	Confidence Confidence `json:"confidence"`

	// OverallWinner is the side winning a majority of the significant
	// metrics, or "none".
	OverallWinner string `json:"overall_winner"`

	// GeneratedAt is when the report was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GenerateComparisonReport compares two variants across the fixed metric
// set and derives an overall verdict.
//
// Description:
//
//	Covers success rate, mean generation time, safety-filter rate, and
//	regeneration rate. Winners respect each metric's direction. The
//	overall winner takes a strict majority of the significant metrics;
//	ties and all-insignificant reports yield "none".
func GenerateComparisonReport(control, treatment VariantSummary) ComparisonReport {
	report := ComparisonReport{
		Control:       control,
		Treatment:     treatment,
		Comparisons:   make([]VariantComparison, 0, len(reportMetrics)),
		OverallWinner: "none",
		GeneratedAt:   time.Now(),
	}

	significant := 0
	controlWins := 0
	treatmentWins := 0
	for _, metric := range reportMetrics {
		cmp := CompareVariants(control, treatment, metric)
		report.Comparisons = append(report.Comparisons, cmp)
		if cmp.IsSignificant {
			significant++
		}
		switch cmp.Winner {
		case "control":
			controlWins++
		case "treatment":
			treatmentWins++
		}
	}

	minSamples := control.SampleSize
	if treatment.SampleSize < minSamples {
		minSamples = treatment.SampleSize
	}
	switch {
	case minSamples >= 100 && significant >= 2:
		report.Confidence = ConfidenceHigh
	case minSamples >= 50 && significant >= 1:
		report.Confidence = ConfidenceMedium
	default:
		report.Confidence = ConfidenceLow
	}

	if controlWins > treatmentWins {
		report.OverallWinner = "control"
	} else if treatmentWins > controlWins {
		report.OverallWinner = "treatment"
	}

	return report
}
