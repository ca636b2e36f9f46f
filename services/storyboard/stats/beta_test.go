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

func TestNewBetaDistribution(t *testing.T) {
	t.Run("applies Jeffreys prior to counts", func(t *testing.T) {
		d := NewBetaDistribution(7, 3)
		assert.Equal(t, 7.5, d.Alpha)
		assert.Equal(t, 3.5, d.Beta)
		assert.InDelta(t, 0.682, d.Mean(), 1e-3)
	})

	t.Run("zero counts stay well defined", func(t *testing.T) {
		d := NewBetaDistribution(0, 0)
		assert.Equal(t, 0.5, d.Alpha)
		assert.Equal(t, 0.5, d.Beta)
		assert.InDelta(t, 0.5, d.Mean(), 1e-9)
	})

	t.Run("negative counts clamp to zero", func(t *testing.T) {
		d := NewBetaDistribution(-4, -1)
		assert.Equal(t, 0.5, d.Alpha)
		assert.Equal(t, 0.5, d.Beta)
	})

	t.Run("all successes", func(t *testing.T) {
		d := NewBetaDistribution(20, 0)
		assert.Equal(t, 20.5, d.Alpha)
		assert.Equal(t, 0.5, d.Beta)
		assert.Greater(t, d.Mean(), 0.95)
	})
}

func TestCredibleInterval(t *testing.T) {
	t.Run("central interval brackets the mean", func(t *testing.T) {
		d := NewBetaDistribution(7, 3)
		ci := d.CredibleInterval()

		assert.Greater(t, ci.Lower, 0.0)
		assert.Less(t, ci.Upper, 1.0)
		assert.Less(t, ci.Lower, ci.Upper)
		assert.True(t, ci.Contains(d.Mean()))
	})

	t.Run("covers 95 percent of mass", func(t *testing.T) {
		d := NewBetaDistribution(42, 18)
		ci := d.CredibleInterval()
		assert.InDelta(t, 0.95, d.CDF(ci.Upper)-d.CDF(ci.Lower), 1e-4)
	})

	t.Run("interval narrows with more data", func(t *testing.T) {
		small := NewBetaDistribution(7, 3).CredibleInterval()
		large := NewBetaDistribution(700, 300).CredibleInterval()
		assert.Less(t, large.Width(), small.Width())
	})

	t.Run("contains respects bounds", func(t *testing.T) {
		ci := CredibleInterval{Lower: 0.2, Upper: 0.6}
		assert.True(t, ci.Contains(0.2))
		assert.True(t, ci.Contains(0.6))
		assert.False(t, ci.Contains(0.19))
		assert.False(t, ci.Contains(0.61))
		assert.InDelta(t, 0.4, ci.Width(), 1e-12)
	})
}
