// Package trace provides decision-trace recording for strategy optimization.
// This package has no dependencies on sim/ or sim/strategy/. It stores pure data types.
package trace

// EvaluationRecord captures one evaluated candidate plan after ranking.
type EvaluationRecord struct {
	PlanKey   string
	Stops     int
	Rank      int     // 1-based position after the stable sort
	TotalTime float64 // seconds
	GapToBest float64 // TotalTime - best TotalTime (≥ 0)
}

// SkipRecord captures a candidate plan dropped before evaluation.
type SkipRecord struct {
	PlanKey string
	Reason  string
}
