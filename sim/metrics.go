package sim

import (
	"math"
	"sort"
)

// LapTimeDistribution captures the statistical summary of a lap-time sequence (seconds).
type LapTimeDistribution struct {
	Mean    float64 `json:"mean"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Fastest int     `json:"fastest_lap"` // 1-based lap index of Min
	Count   int     `json:"count"`
}

// NewLapTimeDistribution computes a LapTimeDistribution from raw lap times.
// Returns zero-value LapTimeDistribution for empty input.
func NewLapTimeDistribution(laps []float64) LapTimeDistribution {
	if len(laps) == 0 {
		return LapTimeDistribution{}
	}
	fastest := 0
	for i, v := range laps {
		if v < laps[fastest] {
			fastest = i
		}
	}

	sorted := make([]float64, len(laps))
	copy(sorted, laps)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return LapTimeDistribution{
		Mean:    sum / float64(len(sorted)),
		P50:     percentile(sorted, 50),
		P95:     percentile(sorted, 95),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Fastest: fastest + 1,
		Count:   len(sorted),
	}
}

// percentile computes the p-th percentile using linear interpolation.
// Input must be sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
