package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// DegradationModel is a learned sequence model over a feature window.
// Implementations must be safe for concurrent Predict calls.
type DegradationModel interface {
	// InputDim is the feature width the model consumes (0 = use the layout width).
	InputDim() int

	// Predict returns the incremental degradation for the next lap given a
	// seqLen x InputDim window, oldest row first.
	Predict(window [][]float64) (float64, error)
}

// PredictionOutcome records which branch produced a Prediction.
type PredictionOutcome int

const (
	OutcomeModel           PredictionOutcome = iota // model produced a finite value
	OutcomeNoModel                                  // no model configured; delta is 0
	OutcomeInferenceFailed                          // model errored or returned non-finite; delta is 0
)

func (o PredictionOutcome) String() string {
	switch o {
	case OutcomeModel:
		return "model"
	case OutcomeNoModel:
		return "no-model"
	case OutcomeInferenceFailed:
		return "inference-failed"
	default:
		return fmt.Sprintf("PredictionOutcome(%d)", int(o))
	}
}

// Prediction is the result of one predictor query.
type Prediction struct {
	Delta   float64
	Outcome PredictionOutcome
}

// DegradationPredictor wraps an optional DegradationModel with the feature
// layout and window length it was trained on.
type DegradationPredictor struct {
	model  DegradationModel // nil = always fall back to 0
	layout FeatureLayout
	seqLen int
	dim    int
}

// NewDegradationPredictor builds a predictor. model may be nil.
func NewDegradationPredictor(model DegradationModel, layout FeatureLayout, seqLen int) (*DegradationPredictor, error) {
	if seqLen <= 0 {
		return nil, fmt.Errorf("degradation predictor: seq_len must be positive, got %d", seqLen)
	}
	dim := layout.Width()
	if model != nil {
		if d := model.InputDim(); d > 0 {
			dim = d
		}
	}
	return &DegradationPredictor{model: model, layout: layout, seqLen: seqLen, dim: dim}, nil
}

// HasModel reports whether a trained model is configured.
func (p *DegradationPredictor) HasModel() bool {
	return p.model != nil
}

// InputDim returns the width of every window row.
func (p *DegradationPredictor) InputDim() int {
	return p.dim
}

// NewWindow returns a fresh zero-filled window for one stint.
func (p *DegradationPredictor) NewWindow() *FeatureWindow {
	return NewFeatureWindow(p.seqLen, p.dim)
}

// FeatureRow builds the feature vector for one lap.
func (p *DegradationPredictor) FeatureRow(prevDelta float64, stintLap int, c Compound, env Environment) []float64 {
	return p.layout.Row(prevDelta, stintLap, c, env, p.dim)
}

// Predict queries the model. Missing models and failed inferences yield a
// zero delta with the matching outcome; they are never returned as errors.
func (p *DegradationPredictor) Predict(w *FeatureWindow) Prediction {
	if p == nil || !p.HasModel() {
		return Prediction{Outcome: OutcomeNoModel}
	}
	delta, err := p.model.Predict(w.Rows())
	if err != nil {
		logrus.Debugf("degradation model inference failed: %v", err)
		return Prediction{Outcome: OutcomeInferenceFailed}
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		logrus.Debugf("degradation model returned non-finite delta %v", delta)
		return Prediction{Outcome: OutcomeInferenceFailed}
	}
	return Prediction{Delta: delta, Outcome: OutcomeModel}
}
