package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// PaceKey identifies a driver/constructor pairing at a circuit.
type PaceKey struct {
	DriverID      int
	ConstructorID int
	CircuitID     int
}

func (k PaceKey) String() string {
	return fmt.Sprintf("driver=%d constructor=%d circuit=%d", k.DriverID, k.ConstructorID, k.CircuitID)
}

// PaceFeatureNames lists the regressor inputs in the order of PaceFeatures.Vector.
var PaceFeatureNames = [8]string{
	"grid_position",
	"driver_strength_career",
	"driver_strength_season",
	"team_strength",
	"driver_dnf_rate",
	"team_dnf_rate",
	"driver_track_form",
	"team_track_form",
}

// PaceFeatures is one precomputed historical performance row.
type PaceFeatures struct {
	GridPosition         float64 `yaml:"grid_position"`
	DriverStrengthCareer float64 `yaml:"driver_strength_career"`
	DriverStrengthSeason float64 `yaml:"driver_strength_season"`
	TeamStrength         float64 `yaml:"team_strength"`
	DriverDNFRate        float64 `yaml:"driver_dnf_rate"`
	TeamDNFRate          float64 `yaml:"team_dnf_rate"`
	DriverTrackForm      float64 `yaml:"driver_track_form"`
	TeamTrackForm        float64 `yaml:"team_track_form"`
}

// Vector returns the features in PaceFeatureNames order.
func (f PaceFeatures) Vector() []float64 {
	return []float64{
		f.GridPosition,
		f.DriverStrengthCareer,
		f.DriverStrengthSeason,
		f.TeamStrength,
		f.DriverDNFRate,
		f.TeamDNFRate,
		f.DriverTrackForm,
		f.TeamTrackForm,
	}
}

// PaceReference looks up historical feature rows.
type PaceReference interface {
	Lookup(key PaceKey) (PaceFeatures, bool)
}

// RankRegressor predicts a finishing rank (1 = winner) from a feature row.
type RankRegressor interface {
	PredictRank(f PaceFeatures) (float64, error)
}

// PaceOutcome records which branch produced a PaceFactor.
type PaceOutcome int

const (
	PaceApplied         PaceOutcome = iota // regressor evaluated
	PaceNoKey                              // no driver/constructor/circuit given
	PaceNoReference                        // no reference table or no row for key
	PaceNoRegressor                        // no regressor configured
	PaceRegressorFailed                    // regressor errored or returned non-finite
)

func (o PaceOutcome) String() string {
	switch o {
	case PaceApplied:
		return "applied"
	case PaceNoKey:
		return "no-key"
	case PaceNoReference:
		return "no-reference"
	case PaceNoRegressor:
		return "no-regressor"
	case PaceRegressorFailed:
		return "regressor-failed"
	default:
		return fmt.Sprintf("PaceOutcome(%d)", int(o))
	}
}

// PaceFactor is a lap-time multiplier with its provenance.
type PaceFactor struct {
	Value         float64
	PredictedRank float64 // 0 unless Outcome == PaceApplied
	Outcome       PaceOutcome
}

// NeutralPace is the no-op multiplier.
func NeutralPace(outcome PaceOutcome) PaceFactor {
	return PaceFactor{Value: 1.0, Outcome: outcome}
}

// DefaultPaceSlope is the lap-time fraction added per predicted rank below first.
const DefaultPaceSlope = 0.011

// PaceFactorProvider turns historical performance into a lap-time multiplier:
// 1 + (predictedRank - 1) * slope.
type PaceFactorProvider struct {
	reference PaceReference
	regressor RankRegressor
	slope     float64
}

// NewPaceFactorProvider builds a provider. reference and regressor may be nil.
func NewPaceFactorProvider(reference PaceReference, regressor RankRegressor, slope float64) *PaceFactorProvider {
	return &PaceFactorProvider{reference: reference, regressor: regressor, slope: slope}
}

// Factor returns the multiplier for key. Every missing collaborator or
// failure yields the neutral factor 1.0.
func (p *PaceFactorProvider) Factor(key *PaceKey) PaceFactor {
	if key == nil {
		return NeutralPace(PaceNoKey)
	}
	if p == nil || p.reference == nil {
		return NeutralPace(PaceNoReference)
	}
	if p.regressor == nil {
		return NeutralPace(PaceNoRegressor)
	}
	row, ok := p.reference.Lookup(*key)
	if !ok {
		logrus.Debugf("no pace reference row for %s", key)
		return NeutralPace(PaceNoReference)
	}
	rank, err := p.regressor.PredictRank(row)
	if err != nil {
		logrus.Debugf("pace regressor failed for %s: %v", key, err)
		return NeutralPace(PaceRegressorFailed)
	}
	if math.IsNaN(rank) || math.IsInf(rank, 0) {
		logrus.Debugf("pace regressor returned non-finite rank %v for %s", rank, key)
		return NeutralPace(PaceRegressorFailed)
	}
	return PaceFactor{
		Value:         1.0 + (rank-1.0)*p.slope,
		PredictedRank: rank,
		Outcome:       PaceApplied,
	}
}
