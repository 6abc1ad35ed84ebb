package trace

// TraceLevel controls the verbosity of optimization tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvaluations captures every ranked evaluation and every skipped plan.
	TraceLevelEvaluations TraceLevel = "evaluations"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelEvaluations: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelEvaluations
}

// OptimizationTrace collects decision records during one optimizer run.
type OptimizationTrace struct {
	Config      TraceConfig
	Evaluations []EvaluationRecord
	Skipped     []SkipRecord
}

// NewOptimizationTrace creates an OptimizationTrace ready for recording.
func NewOptimizationTrace(config TraceConfig) *OptimizationTrace {
	return &OptimizationTrace{
		Config:      config,
		Evaluations: make([]EvaluationRecord, 0),
		Skipped:     make([]SkipRecord, 0),
	}
}

// RecordEvaluation appends an evaluation record.
func (ot *OptimizationTrace) RecordEvaluation(record EvaluationRecord) {
	ot.Evaluations = append(ot.Evaluations, record)
}

// RecordSkip appends a skip record.
func (ot *OptimizationTrace) RecordSkip(record SkipRecord) {
	ot.Skipped = append(ot.Skipped, record)
}
