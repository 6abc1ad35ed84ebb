package sim

import (
	"github.com/sirupsen/logrus"
)

// RaceContext holds the per-race inputs shared by every lap of a simulation.
// Read-only for the duration of a simulation.
type RaceContext struct {
	BaseLapTime float64     // seconds, fresh-tyre reference lap
	PitLoss     float64     // seconds lost per pit stop
	Env         Environment // optional ambient conditions
	Pace        *PaceKey    // optional driver/constructor/circuit identity
}

// RaceResult is the outcome of SimulateRace.
type RaceResult struct {
	TotalTime  float64
	LapTimes   []float64 // flat, in stint order
	PitStops   int
	PaceFactor PaceFactor
}

// Simulator composes the tyre model, environment adjuster, degradation
// predictor and pace factor provider into lap-by-lap race simulation.
//
// A Simulator is immutable after construction and safe to share across
// goroutines; per-call state (feature window, noise source) is owned by the caller.
type Simulator struct {
	tyres     *TyreModel
	env       *EnvironmentAdjuster
	predictor *DegradationPredictor
	pace      *PaceFactorProvider
}

// NewSimulator builds a Simulator. model and pace may be nil; both then
// fall back to their neutral outputs.
func NewSimulator(cfg SimConfig, model DegradationModel, pace *PaceFactorProvider) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tyres, err := NewTyreModel(cfg.Profiles)
	if err != nil {
		return nil, err
	}
	env, err := NewEnvironmentAdjuster(cfg.Environment)
	if err != nil {
		return nil, err
	}
	predictor, err := NewDegradationPredictor(model, cfg.Layout(), cfg.SeqLen)
	if err != nil {
		return nil, err
	}
	if pace == nil {
		pace = NewPaceFactorProvider(nil, nil, DefaultPaceSlope)
	}
	return &Simulator{tyres: tyres, env: env, predictor: predictor, pace: pace}, nil
}

// HasDegradationModel reports whether lap deltas come from a trained model.
func (s *Simulator) HasDegradationModel() bool {
	return s.predictor.HasModel()
}

// PaceFactor resolves the pace multiplier for rc.
func (s *Simulator) PaceFactor(rc RaceContext) PaceFactor {
	return s.pace.Factor(rc.Pace)
}

// SimulateStint simulates one stint and returns its lap times.
func (s *Simulator) SimulateStint(stint Stint, rc RaceContext, noise NoiseSource) []float64 {
	return s.simulateStint(stint, rc, s.PaceFactor(rc), noise)
}

// simulateStint runs the per-lap state machine:
//
//	prev delta -> feature row -> window push -> predictor -> base + delta + wear
//	-> environment -> pace multiplier
//
// The delta carried to the next lap is taken before the pace multiplier so
// the degradation signal stays independent of driver scaling.
func (s *Simulator) simulateStint(stint Stint, rc RaceContext, pace PaceFactor, noise NoiseSource) []float64 {
	times := make([]float64, 0, max(0, stint.Laps))
	window := s.predictor.NewWindow()
	prevDelta := 0.0
	fallbacks := 0

	for lap := 1; lap <= stint.Laps; lap++ {
		window.Push(s.predictor.FeatureRow(prevDelta, lap, stint.Compound, rc.Env))
		pred := s.predictor.Predict(window)
		if pred.Outcome == OutcomeInferenceFailed {
			fallbacks++
		}

		lapTime := rc.BaseLapTime + pred.Delta + s.tyres.Degradation(stint.Compound, lap)
		lapTime = s.env.Adjust(lapTime, lap, rc.Env, noise)
		prevDelta = lapTime - rc.BaseLapTime

		times = append(times, lapTime*pace.Value)
	}

	if fallbacks > 0 {
		logrus.Debugf("stint %s x%d: %d laps fell back to zero predicted delta", stint.Compound, stint.Laps, fallbacks)
	}
	return times
}

// SimulateRace concatenates the stints of strategy and adds one pit loss per
// stint transition (none after the final stint):
//
//	total = sum(lap times) + pitLoss * (len(strategy) - 1)
//
// The strategy is assumed valid; callers holding external input must call
// Strategy.Validate first.
func (s *Simulator) SimulateRace(strategy Strategy, rc RaceContext, noise NoiseSource) RaceResult {
	pace := s.PaceFactor(rc)
	laps := make([]float64, 0, strategy.TotalLaps())
	for _, stint := range strategy {
		laps = append(laps, s.simulateStint(stint, rc, pace, noise)...)
	}

	lapSum := 0.0
	for _, t := range laps {
		lapSum += t
	}
	stops := strategy.PitStops()
	return RaceResult{
		TotalTime:  lapSum + rc.PitLoss*float64(stops),
		LapTimes:   laps,
		PitStops:   stops,
		PaceFactor: pace,
	}
}
