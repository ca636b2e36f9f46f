// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import "math"

// -----------------------------------------------------------------------------
// Bayesian Variant Comparison
// -----------------------------------------------------------------------------

// MinBayesianSampleSize is the per-variant sample size below which the
// comparison result is flagged as underpowered. The Bayesian machinery still
// produces a probability; the flag is surfaced for UI messaging rather than
// raised as an error.
const MinBayesianSampleSize = 10

// simpsonIntervals is the number of subintervals used for the superiority
// integral. Must be even.
const simpsonIntervals = 1000

// Observations is the per-variant input to a Bayesian comparison.
//
// Description:
//
//	Carries the success rate and sample size of one A/B arm as reported by
//	a variant summary. Success and failure counts are reconstructed from
//	these two fields; see CompareVariants for the precision caveat.
type Observations struct {
	// SuccessRate is the observed success fraction in [0,1].
	SuccessRate float64 `json:"success_rate"`

	// SampleSize is the number of generation attempts observed.
	SampleSize int `json:"sample_size"`
}

// counts reconstructs integer success/failure counts from the rate.
func (o Observations) counts() (successes, failures int) {
	successes = int(math.Round(o.SuccessRate * float64(o.SampleSize)))
	failures = o.SampleSize - successes
	return successes, failures
}

// ComparisonResult holds the output of a Bayesian variant comparison.
//
// Thread Safety: Safe for concurrent read access after creation.
type ComparisonResult struct {
	// Control is the posterior for the control variant.
	Control BetaDistribution `json:"control"`

	// Treatment is the posterior for the treatment variant.
	Treatment BetaDistribution `json:"treatment"`

	// ProbabilityTreatmentBetter is P(treatment success rate > control
	// success rate) under the two posteriors, in [0,1].
	ProbabilityTreatmentBetter float64 `json:"probability_treatment_better"`

	// ControlInterval is the 95% credible interval for the control rate.
	ControlInterval CredibleInterval `json:"control_interval"`

	// TreatmentInterval is the 95% credible interval for the treatment rate.
	TreatmentInterval CredibleInterval `json:"treatment_interval"`

	// HasMinSamples is true when both arms have at least
	// MinBayesianSampleSize observations.
	HasMinSamples bool `json:"has_min_samples"`
}

// ProbabilityTreatmentBetter computes P(T > C) for draws T ~ treatment and
// C ~ control.
//
// Description:
//
//	Numerically integrates controlPDF(x) * (1 - treatmentCDF(x)) over [0,1]
//	using composite Simpson's rule with 1000 subintervals (weights
//	1,4,2,...,2,4,1 scaled by h/3). The integrand is the probability that
//	the control draw lands at x while the treatment draw exceeds it. The
//	result is clamped to [0,1] to absorb quadrature noise at extreme
//	posteriors.
//
// Inputs:
//   - control: Posterior for the control arm.
//   - treatment: Posterior for the treatment arm.
//
// Outputs:
//   - float64: Probability of treatment superiority in [0,1].
//
// Thread Safety: This function is stateless and safe for concurrent use.
func ProbabilityTreatmentBetter(control, treatment BetaDistribution) float64 {
	h := 1.0 / float64(simpsonIntervals)

	integrand := func(x float64) float64 {
		return control.PDF(x) * (1 - treatment.CDF(x))
	}

	sum := integrand(0) + integrand(1)
	for i := 1; i < simpsonIntervals; i++ {
		x := float64(i) * h
		if i%2 == 1 {
			sum += 4 * integrand(x)
		} else {
			sum += 2 * integrand(x)
		}
	}

	p := sum * h / 3
	return math.Max(0, math.Min(1, p))
}

// CompareVariants runs a full Bayesian comparison of two variants.
//
// Description:
//
//	Reconstructs integer success/failure counts from each arm's success
//	rate via round(successRate * sampleSize). This is lossy: if the rate
//	was computed over a filtered or re-derived sample elsewhere, the
//	reconstructed counts can misrepresent the true tallies. The behavior is
//	kept for compatibility with the summaries this engine produces, where
//	the rate and the sample size always refer to the same record set.
//
// Inputs:
//   - control: Control arm observations.
//   - treatment: Treatment arm observations.
//
// Outputs:
//   - ComparisonResult: Posteriors, superiority probability, credible
//     intervals, and the minimum-sample flag.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func CompareVariants(control, treatment Observations) ComparisonResult {
	cs, cf := control.counts()
	ts, tf := treatment.counts()

	controlDist := NewBetaDistribution(cs, cf)
	treatmentDist := NewBetaDistribution(ts, tf)

	return ComparisonResult{
		Control:                    controlDist,
		Treatment:                  treatmentDist,
		ProbabilityTreatmentBetter: ProbabilityTreatmentBetter(controlDist, treatmentDist),
		ControlInterval:            controlDist.CredibleInterval(),
		TreatmentInterval:          treatmentDist.CredibleInterval(),
		HasMinSamples: control.SampleSize >= MinBayesianSampleSize &&
			treatment.SampleSize >= MinBayesianSampleSize,
	}
}
