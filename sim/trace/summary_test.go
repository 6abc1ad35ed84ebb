package trace

import (
	"math"
	"testing"
)

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	ot := NewOptimizationTrace(TraceConfig{Level: TraceLevelEvaluations})

	// WHEN summarized
	summary := Summarize(ot)

	// THEN all counts are zero
	if summary.TotalEvaluated != 0 || summary.SkippedCount != 0 {
		t.Errorf("expected zero counts, got evaluated=%d skipped=%d", summary.TotalEvaluated, summary.SkippedCount)
	}
	if summary.MeanGap != 0 || summary.MaxGap != 0 {
		t.Error("expected 0 gap values")
	}
	if len(summary.StopDistribution) != 0 || len(summary.BestByStops) != 0 {
		t.Error("expected empty distributions")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil {
		t.Fatal("expected non-nil summary")
	}
	if summary.TotalEvaluated != 0 {
		t.Errorf("expected 0 evaluated, got %d", summary.TotalEvaluated)
	}
}

func TestSummarize_PopulatedTrace_CorrectAggregates(t *testing.T) {
	// GIVEN a ranked trace across stop counts
	ot := NewOptimizationTrace(TraceConfig{Level: TraceLevelEvaluations})
	ot.RecordEvaluation(EvaluationRecord{PlanKey: "a", Stops: 2, Rank: 1, TotalTime: 100, GapToBest: 0})
	ot.RecordEvaluation(EvaluationRecord{PlanKey: "b", Stops: 1, Rank: 2, TotalTime: 101, GapToBest: 1})
	ot.RecordEvaluation(EvaluationRecord{PlanKey: "c", Stops: 2, Rank: 3, TotalTime: 103, GapToBest: 3})
	ot.RecordEvaluation(EvaluationRecord{PlanKey: "d", Stops: 0, Rank: 4, TotalTime: 108, GapToBest: 8})
	ot.RecordSkip(SkipRecord{PlanKey: "e", Reason: "invalid"})

	// WHEN summarized
	summary := Summarize(ot)

	// THEN counts and gaps match
	if summary.TotalEvaluated != 4 {
		t.Errorf("expected 4 evaluated, got %d", summary.TotalEvaluated)
	}
	if summary.SkippedCount != 1 {
		t.Errorf("expected 1 skipped, got %d", summary.SkippedCount)
	}
	if math.Abs(summary.MeanGap-3.0) > 1e-12 {
		t.Errorf("expected mean gap 3.0, got %f", summary.MeanGap)
	}
	if summary.MaxGap != 8 {
		t.Errorf("expected max gap 8, got %f", summary.MaxGap)
	}
	if summary.StopDistribution[2] != 2 || summary.StopDistribution[1] != 1 || summary.StopDistribution[0] != 1 {
		t.Errorf("unexpected stop distribution %v", summary.StopDistribution)
	}
	if summary.BestByStops[2] != 100 || summary.BestByStops[1] != 101 || summary.BestByStops[0] != 108 {
		t.Errorf("unexpected best-by-stops %v", summary.BestByStops)
	}
}
