// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

// -----------------------------------------------------------------------------
// Beta Distribution
// -----------------------------------------------------------------------------

// jeffreysPrior is the Beta(0.5, 0.5) prior applied before any observations.
// It keeps both shape parameters strictly positive even with zero successes
// or zero failures, so every derived quantity stays well-defined.
const jeffreysPrior = 0.5

// BetaDistribution is a Beta(alpha, beta) posterior over a success rate.
//
// Description:
//
//	Both parameters are strictly positive by construction; use
//	NewBetaDistribution to build one from observed counts.
//
// Thread Safety: Immutable after creation; safe for concurrent use.
type BetaDistribution struct {
	// Alpha is the first shape parameter (successes + prior).
	Alpha float64 `json:"alpha"`

	// Beta is the second shape parameter (failures + prior).
	Beta float64 `json:"beta"`
}

// NewBetaDistribution builds the posterior for the given observed counts
// under a Jeffreys prior.
//
// Inputs:
//   - successes: Observed success count. Negative values are treated as 0.
//   - failures: Observed failure count. Negative values are treated as 0.
//
// Outputs:
//   - BetaDistribution: Posterior with alpha = successes + 0.5 and
//     beta = failures + 0.5.
func NewBetaDistribution(successes, failures int) BetaDistribution {
	if successes < 0 {
		successes = 0
	}
	if failures < 0 {
		failures = 0
	}
	return BetaDistribution{
		Alpha: float64(successes) + jeffreysPrior,
		Beta:  float64(failures) + jeffreysPrior,
	}
}

// Mean returns the posterior mean alpha / (alpha + beta).
func (d BetaDistribution) Mean() float64 {
	return d.Alpha / (d.Alpha + d.Beta)
}

// PDF evaluates the posterior density at x.
func (d BetaDistribution) PDF(x float64) float64 {
	return BetaPDF(x, d.Alpha, d.Beta)
}

// CDF evaluates the posterior distribution function at x.
func (d BetaDistribution) CDF(x float64) float64 {
	return BetaCDF(x, d.Alpha, d.Beta)
}

// Quantile returns the posterior inverse CDF at p.
func (d BetaDistribution) Quantile(p float64) float64 {
	return BetaQuantile(p, d.Alpha, d.Beta)
}

// CredibleInterval is a central Bayesian credible interval.
type CredibleInterval struct {
	// Lower is the 2.5th percentile of the posterior.
	Lower float64 `json:"lower"`

	// Upper is the 97.5th percentile of the posterior.
	Upper float64 `json:"upper"`
}

// Contains returns true if the interval contains the value.
func (ci CredibleInterval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// Width returns the interval width.
func (ci CredibleInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// CredibleInterval returns the central 95% credible interval
// [quantile(0.025), quantile(0.975)] of the posterior.
func (d BetaDistribution) CredibleInterval() CredibleInterval {
	return CredibleInterval{
		Lower: d.Quantile(0.025),
		Upper: d.Quantile(0.975),
	}
}
