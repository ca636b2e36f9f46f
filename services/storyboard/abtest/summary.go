// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package abtest

import (
	"github.com/framewright/framewright/services/storyboard/stats"
)

// -----------------------------------------------------------------------------
// Variant Summaries
// -----------------------------------------------------------------------------

// VariantSummary is a per-variant rollup of generation attempts.
//
// Description:
//
//	Derived, never stored: recomputed on demand from the record log so it
//	always reflects the full append-only history for the variant.
type VariantSummary struct {
	// VariantID identifies the summarized variant.
	VariantID string `json:"variant_id"`

	// VariantLabel is the variant's display name (from its first record).
	VariantLabel string `json:"variant_label"`

	// SampleSize is the number of attempts summarized.
	SampleSize int `json:"sample_size"`

	// SuccessRate is successful attempts / SampleSize.
	SuccessRate float64 `json:"success_rate"`

	// AvgGenerationTimeMs is the mean attempt duration.
	AvgGenerationTimeMs float64 `json:"avg_generation_time_ms"`

	// AvgPromptTokens is the mean prompt size.
	AvgPromptTokens float64 `json:"avg_prompt_tokens"`

	// AvgOutputTokens is the mean output size.
	AvgOutputTokens float64 `json:"avg_output_tokens"`

	// SafetyFilterRate is the fraction of attempts that tripped the
	// provider safety filter.
	SafetyFilterRate float64 `json:"safety_filter_rate"`

	// RegenerationRate is the fraction of attempts the user regenerated
	// at least once.
	RegenerationRate float64 `json:"regeneration_rate"`

	// AvgUserRating is the mean 1-5 rating; nil when no attempt was rated.
	AvgUserRating *float64 `json:"avg_user_rating,omitempty"`

	// RatingCount is how many attempts carried a rating.
	RatingCount int `json:"rating_count"`
}

// Observations adapts the summary for the Bayesian comparator.
func (s VariantSummary) Observations() stats.Observations {
	return stats.Observations{
		SuccessRate: s.SuccessRate,
		SampleSize:  s.SampleSize,
	}
}

// Summarize computes the rollup for one variant from the log.
//
// Outputs:
//   - VariantSummary: Zero-valued (SampleSize 0) when the variant has no
//     records.
func (l *Log) Summarize(variantID string) VariantSummary {
	records := l.RecordsForVariant(variantID)

	summary := VariantSummary{
		VariantID:  variantID,
		SampleSize: len(records),
	}
	if len(records) == 0 {
		return summary
	}
	summary.VariantLabel = records[0].VariantLabel

	successes := 0
	safetyFiltered := 0
	regenerated := 0
	var timeSum, promptSum, outputSum, ratingSum float64

	for _, r := range records {
		if r.Success {
			successes++
		}
		if r.SafetyFilterTriggered {
			safetyFiltered++
		}
		if r.RegenerationCount != nil && *r.RegenerationCount > 0 {
			regenerated++
		}
		if r.UserRating != nil {
			ratingSum += float64(*r.UserRating)
			summary.RatingCount++
		}
		timeSum += float64(r.GenerationTimeMs)
		promptSum += float64(r.PromptTokens)
		outputSum += float64(r.OutputTokens)
	}

	n := float64(len(records))
	summary.SuccessRate = float64(successes) / n
	summary.AvgGenerationTimeMs = timeSum / n
	summary.AvgPromptTokens = promptSum / n
	summary.AvgOutputTokens = outputSum / n
	summary.SafetyFilterRate = float64(safetyFiltered) / n
	summary.RegenerationRate = float64(regenerated) / n
	if summary.RatingCount > 0 {
		avg := ratingSum / float64(summary.RatingCount)
		summary.AvgUserRating = &avg
	}

	return summary
}

// BayesianCompare runs the Beta-Binomial comparison of two variants'
// success rates.
//
// Description:
//
//	Thin adapter over stats.CompareVariants; the counts are reconstructed
//	from each summary's rate and sample size (see the stats package for
//	the precision caveat).
func BayesianCompare(control, treatment VariantSummary) stats.ComparisonResult {
	return stats.CompareVariants(control.Observations(), treatment.Observations())
}
