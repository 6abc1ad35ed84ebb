package trace

import "math"

// TraceSummary aggregates statistics from an OptimizationTrace.
type TraceSummary struct {
	TotalEvaluated   int             `json:"total_evaluated"`
	SkippedCount     int             `json:"skipped"`
	MeanGap          float64         `json:"mean_gap_s"`
	MaxGap           float64         `json:"max_gap_s"`
	StopDistribution map[int]int     `json:"stop_distribution"`  // pit stops → evaluated plans
	BestByStops      map[int]float64 `json:"best_time_by_stops"` // pit stops → fastest total time
}

// Summarize computes aggregate statistics from an OptimizationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(ot *OptimizationTrace) *TraceSummary {
	summary := &TraceSummary{
		StopDistribution: make(map[int]int),
		BestByStops:      make(map[int]float64),
	}
	if ot == nil {
		return summary
	}

	summary.SkippedCount = len(ot.Skipped)
	summary.TotalEvaluated = len(ot.Evaluations)
	if len(ot.Evaluations) == 0 {
		return summary
	}

	totalGap := 0.0
	for _, e := range ot.Evaluations {
		summary.StopDistribution[e.Stops]++
		best, seen := summary.BestByStops[e.Stops]
		if !seen {
			best = math.Inf(1)
		}
		summary.BestByStops[e.Stops] = math.Min(best, e.TotalTime)
		totalGap += e.GapToBest
		if e.GapToBest > summary.MaxGap {
			summary.MaxGap = e.GapToBest
		}
	}
	summary.MeanGap = totalGap / float64(len(ot.Evaluations))

	return summary
}
