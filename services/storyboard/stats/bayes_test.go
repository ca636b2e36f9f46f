// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbabilityTreatmentBetter(t *testing.T) {
	t.Run("identical posteriors are a coin flip", func(t *testing.T) {
		d := NewBetaDistribution(50, 50)
		p := ProbabilityTreatmentBetter(d, d)
		assert.InDelta(t, 0.5, p, 0.02)
	})

	t.Run("clearly better treatment", func(t *testing.T) {
		control := NewBetaDistribution(10, 90)
		treatment := NewBetaDistribution(90, 10)
		p := ProbabilityTreatmentBetter(control, treatment)
		assert.Greater(t, p, 0.999)
	})

	t.Run("clearly worse treatment", func(t *testing.T) {
		control := NewBetaDistribution(90, 10)
		treatment := NewBetaDistribution(10, 90)
		p := ProbabilityTreatmentBetter(control, treatment)
		assert.Less(t, p, 0.001)
	})

	t.Run("complementary by symmetry", func(t *testing.T) {
		a := NewBetaDistribution(12, 8)
		b := NewBetaDistribution(15, 25)
		forward := ProbabilityTreatmentBetter(a, b)
		backward := ProbabilityTreatmentBetter(b, a)
		assert.InDelta(t, 1.0, forward+backward, 0.01)
	})

	t.Run("stays in unit interval", func(t *testing.T) {
		p := ProbabilityTreatmentBetter(NewBetaDistribution(0, 0), NewBetaDistribution(1000, 0))
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	})
}

func TestCompareVariants(t *testing.T) {
	t.Run("small samples still produce a confident direction", func(t *testing.T) {
		result := CompareVariants(
			Observations{SuccessRate: 0.3, SampleSize: 10},
			Observations{SuccessRate: 0.7, SampleSize: 10},
		)
		assert.Greater(t, result.ProbabilityTreatmentBetter, 0.9)
		assert.True(t, result.HasMinSamples)
	})

	t.Run("reconstructs counts from the rate", func(t *testing.T) {
		result := CompareVariants(
			Observations{SuccessRate: 0.3, SampleSize: 10},
			Observations{SuccessRate: 0.7, SampleSize: 10},
		)
		// round(0.3*10)=3 successes, 7 failures; plus the prior.
		assert.Equal(t, 3.5, result.Control.Alpha)
		assert.Equal(t, 7.5, result.Control.Beta)
		assert.Equal(t, 7.5, result.Treatment.Alpha)
		assert.Equal(t, 3.5, result.Treatment.Beta)
	})

	t.Run("flags underpowered arms", func(t *testing.T) {
		result := CompareVariants(
			Observations{SuccessRate: 0.5, SampleSize: 9},
			Observations{SuccessRate: 0.5, SampleSize: 100},
		)
		assert.False(t, result.HasMinSamples)
		// The probability is still computed, just flagged.
		assert.InDelta(t, 0.5, result.ProbabilityTreatmentBetter, 0.05)
	})

	t.Run("intervals come from the posteriors", func(t *testing.T) {
		result := CompareVariants(
			Observations{SuccessRate: 0.8, SampleSize: 50},
			Observations{SuccessRate: 0.9, SampleSize: 50},
		)
		assert.Equal(t, result.Control.CredibleInterval(), result.ControlInterval)
		assert.Equal(t, result.Treatment.CredibleInterval(), result.TreatmentInterval)
		assert.True(t, result.ControlInterval.Contains(0.8))
		assert.True(t, result.TreatmentInterval.Contains(0.9))
	})

	t.Run("zero sample sizes", func(t *testing.T) {
		result := CompareVariants(Observations{}, Observations{})
		assert.False(t, result.HasMinSamples)
		assert.InDelta(t, 0.5, result.ProbabilityTreatmentBetter, 0.02)
	})
}
