// Copyright (C) 2025 Framewright (oss@framewright.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogGamma(t *testing.T) {
	t.Run("known values", func(t *testing.T) {
		cases := []struct {
			name string
			z    float64
			want float64
		}{
			{"gamma(1)=1", 1, 0},
			{"gamma(2)=1", 2, 0},
			{"gamma(3)=2", 3, math.Log(2)},
			{"gamma(5)=24", 5, math.Log(24)},
			{"gamma(0.5)=sqrt(pi)", 0.5, 0.5 * math.Log(math.Pi)},
			{"gamma(10)=362880", 10, math.Log(362880)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.InDelta(t, tc.want, LogGamma(tc.z), 1e-9)
			})
		}
	})

	t.Run("reflection for small arguments", func(t *testing.T) {
		// Gamma(0.25) = 3.6256099082...
		assert.InDelta(t, math.Log(3.62560990822190831), LogGamma(0.25), 1e-9)
	})

	t.Run("recurrence gamma(z+1) = z*gamma(z)", func(t *testing.T) {
		for _, z := range []float64{0.7, 1.3, 2.5, 7.5} {
			lhs := LogGamma(z + 1)
			rhs := math.Log(z) + LogGamma(z)
			assert.InDelta(t, rhs, lhs, 1e-9, "z=%v", z)
		}
	})
}

func TestBetaPDF(t *testing.T) {
	t.Run("zero outside open interval", func(t *testing.T) {
		assert.Zero(t, BetaPDF(0, 2, 3))
		assert.Zero(t, BetaPDF(1, 2, 3))
		assert.Zero(t, BetaPDF(-0.1, 2, 3))
		assert.Zero(t, BetaPDF(1.1, 2, 3))
	})

	t.Run("uniform for alpha=beta=1", func(t *testing.T) {
		for _, x := range []float64{0.1, 0.5, 0.9} {
			assert.InDelta(t, 1.0, BetaPDF(x, 1, 1), 1e-9)
		}
	})

	t.Run("beta(2,2) peaks at 1.5", func(t *testing.T) {
		// 6x(1-x) at x=0.5
		assert.InDelta(t, 1.5, BetaPDF(0.5, 2, 2), 1e-9)
	})
}

func TestBetaCDF(t *testing.T) {
	t.Run("boundaries", func(t *testing.T) {
		for _, shapes := range [][2]float64{{0.5, 0.5}, {1, 1}, {2, 5}, {30, 70}} {
			a, b := shapes[0], shapes[1]
			assert.Zero(t, BetaCDF(0, a, b))
			assert.Equal(t, 1.0, BetaCDF(1, a, b))
			assert.Zero(t, BetaCDF(-1, a, b))
			assert.Equal(t, 1.0, BetaCDF(2, a, b))
		}
	})

	t.Run("uniform CDF is identity", func(t *testing.T) {
		for _, x := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
			assert.InDelta(t, x, BetaCDF(x, 1, 1), 1e-9)
		}
	})

	t.Run("symmetric distribution has median 0.5", func(t *testing.T) {
		for _, a := range []float64{0.5, 2, 7.5, 40} {
			assert.InDelta(t, 0.5, BetaCDF(0.5, a, a), 1e-9, "a=b=%v", a)
		}
	})

	t.Run("closed form beta(2,1)", func(t *testing.T) {
		// I_x(2,1) = x^2
		for _, x := range []float64{0.2, 0.5, 0.8} {
			assert.InDelta(t, x*x, BetaCDF(x, 2, 1), 1e-9)
		}
	})

	t.Run("symmetry identity", func(t *testing.T) {
		// I_x(a,b) = 1 - I_{1-x}(b,a), including across the flip point.
		for _, x := range []float64{0.05, 0.3, 0.6, 0.95} {
			lhs := BetaCDF(x, 3, 7)
			rhs := 1 - BetaCDF(1-x, 7, 3)
			assert.InDelta(t, rhs, lhs, 1e-9, "x=%v", x)
		}
	})

	t.Run("monotone nondecreasing", func(t *testing.T) {
		prev := 0.0
		for x := 0.0; x <= 1.0; x += 0.01 {
			cur := BetaCDF(x, 7.5, 3.5)
			assert.GreaterOrEqual(t, cur+1e-12, prev, "x=%v", x)
			prev = cur
		}
	})
}

func TestBetaQuantile(t *testing.T) {
	t.Run("boundaries", func(t *testing.T) {
		assert.Zero(t, BetaQuantile(0, 2, 3))
		assert.Equal(t, 1.0, BetaQuantile(1, 2, 3))
		assert.Zero(t, BetaQuantile(-0.5, 2, 3))
		assert.Equal(t, 1.0, BetaQuantile(1.5, 2, 3))
	})

	t.Run("inverts the CDF", func(t *testing.T) {
		for _, p := range []float64{0.025, 0.25, 0.5, 0.75, 0.975} {
			x := BetaQuantile(p, 7.5, 3.5)
			assert.InDelta(t, p, BetaCDF(x, 7.5, 3.5), 1e-6, "p=%v", p)
		}
	})

	t.Run("uniform quantile is identity", func(t *testing.T) {
		for _, p := range []float64{0.1, 0.5, 0.9} {
			assert.InDelta(t, p, BetaQuantile(p, 1, 1), 1e-6)
		}
	})
}
