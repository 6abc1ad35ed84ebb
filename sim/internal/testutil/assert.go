// Package testutil provides shared assertion helpers and fakes used across
// the sim/ test packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// SumFloat64 adds values in order, matching the accumulation order of the simulator.
func SumFloat64(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// ConstantNoise is a NoiseSource that always returns Value.
type ConstantNoise struct {
	Value float64
	Calls int
}

// NormFloat64 returns Value and counts the call.
func (n *ConstantNoise) NormFloat64() float64 {
	n.Calls++
	return n.Value
}
