package pace

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/pitwall-sim/pitwall/sim"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// LinearRankModel predicts a finishing rank as intercept + coeffs · features,
// with coefficients in sim.PaceFeatureNames order.
type LinearRankModel struct {
	Intercept float64            `yaml:"intercept"`
	Coeffs    map[string]float64 `yaml:"coefficients"`

	weights []float64
}

// NewLinearRankModel validates coefficient names and values.
// Features without a coefficient get weight 0.
func NewLinearRankModel(intercept float64, coeffs map[string]float64) (*LinearRankModel, error) {
	m := &LinearRankModel{Intercept: intercept, Coeffs: coeffs}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LinearRankModel) compile() error {
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("rank model: intercept must be finite, got %f", m.Intercept)
	}
	index := make(map[string]int, len(sim.PaceFeatureNames))
	for i, n := range sim.PaceFeatureNames {
		index[n] = i
	}
	m.weights = make([]float64, len(sim.PaceFeatureNames))
	for name, v := range m.Coeffs {
		i, ok := index[name]
		if !ok {
			return fmt.Errorf("rank model: unknown feature %q", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("rank model: coefficient %s must be finite, got %f", name, v)
		}
		m.weights[i] = v
	}
	return nil
}

// PredictRank implements sim.RankRegressor.
func (m *LinearRankModel) PredictRank(f sim.PaceFeatures) (float64, error) {
	if m.weights == nil {
		return 0, fmt.Errorf("rank model: not compiled")
	}
	return m.Intercept + floats.Dot(m.weights, f.Vector()), nil
}

// LoadLinearRankModel reads a YAML rank model:
//
//	intercept: 0.4
//	coefficients:
//	  grid_position: 0.35
//	  team_strength: 0.3
func LoadLinearRankModel(path string) (*LinearRankModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rank model: %w", err)
	}
	var m LinearRankModel
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing rank model: %w", err)
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}
