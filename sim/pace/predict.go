package pace

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pitwall-sim/pitwall/sim"
)

// ErrNoReferenceRows is returned when no grid entry has a reference row, so
// missing features cannot be imputed.
var ErrNoReferenceRows = errors.New("no grid entry has a pace reference row")

// RowGetter fetches one reference row. *Store implements it.
type RowGetter interface {
	Get(key sim.PaceKey) (sim.PaceFeatures, bool, error)
}

// GridEntry is one car on the starting grid.
type GridEntry struct {
	DriverID      int `yaml:"driver_id"`
	ConstructorID int `yaml:"constructor_id"`
	GridPosition  int `yaml:"grid_position"`
}

// Grid is a race to predict.
type Grid struct {
	CircuitID int         `yaml:"circuit_id"`
	Entries   []GridEntry `yaml:"drivers"`
}

// PredictedFinish is one line of a predicted classification.
type PredictedFinish struct {
	Position        int     `json:"predicted_position"`
	DriverID        int     `json:"driver_id"`
	ConstructorID   int     `json:"constructor_id"`
	GridPosition    int     `json:"grid_position"`
	PredictedFinish float64 `json:"predicted_finish"`
	Imputed         bool    `json:"imputed"` // no reference row; features are the grid means
}

// PredictOrder predicts the finishing order of a grid. Each entry's reference
// row is looked up by (driver, constructor, circuitID) and its grid_position
// replaced by the entry's own. Entries without a row get the per-feature mean
// of the entries that have one. The result is sorted by predicted finish
// (ties keep grid entry order) and numbered from 1.
func PredictOrder(rows RowGetter, regressor sim.RankRegressor, circuitID int, entries []GridEntry) ([]PredictedFinish, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("predict order: grid is empty")
	}
	if rows == nil || regressor == nil {
		return nil, fmt.Errorf("predict order: reference rows and a rank regressor are required")
	}

	features := make([]sim.PaceFeatures, len(entries))
	found := make([]bool, len(entries))
	sums := make([]float64, len(sim.PaceFeatureNames))
	n := 0
	for i, e := range entries {
		key := sim.PaceKey{DriverID: e.DriverID, ConstructorID: e.ConstructorID, CircuitID: circuitID}
		f, ok, err := rows.Get(key)
		if err != nil {
			return nil, fmt.Errorf("predict order: %w", err)
		}
		if !ok {
			logrus.Debugf("no pace reference row for %s; imputing grid means", key)
			continue
		}
		f.GridPosition = float64(e.GridPosition)
		features[i], found[i] = f, true
		for j, v := range f.Vector() {
			sums[j] += v
		}
		n++
	}

	if n == 0 {
		return nil, ErrNoReferenceRows
	}
	means := make([]float64, len(sums))
	for j := range sums {
		means[j] = sums[j] / float64(n)
	}

	out := make([]PredictedFinish, len(entries))
	for i, e := range entries {
		f := features[i]
		if !found[i] {
			f = featuresFromVector(means)
			f.GridPosition = float64(e.GridPosition)
		}
		rank, err := regressor.PredictRank(f)
		if err != nil {
			return nil, fmt.Errorf("predict order: driver %d: %w", e.DriverID, err)
		}
		if math.IsNaN(rank) || math.IsInf(rank, 0) {
			return nil, fmt.Errorf("predict order: driver %d: non-finite prediction %v", e.DriverID, rank)
		}
		out[i] = PredictedFinish{
			DriverID:        e.DriverID,
			ConstructorID:   e.ConstructorID,
			GridPosition:    e.GridPosition,
			PredictedFinish: rank,
			Imputed:         !found[i],
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].PredictedFinish < out[b].PredictedFinish })
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

func featuresFromVector(v []float64) sim.PaceFeatures {
	return sim.PaceFeatures{
		GridPosition:         v[0],
		DriverStrengthCareer: v[1],
		DriverStrengthSeason: v[2],
		TeamStrength:         v[3],
		DriverDNFRate:        v[4],
		TeamDNFRate:          v[5],
		DriverTrackForm:      v[6],
		TeamTrackForm:        v[7],
	}
}

// LoadGrid parses a YAML grid file:
//
//	circuit_id: 3
//	drivers:
//	  - {driver_id: 830, constructor_id: 9, grid_position: 1}
//
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadGrid(path string) (Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Grid{}, fmt.Errorf("reading grid: %w", err)
	}
	var g Grid
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&g); err != nil {
		return Grid{}, fmt.Errorf("parsing grid: %w", err)
	}
	return g, nil
}
