package pace

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pitwall-sim/pitwall/sim"
	"gopkg.in/yaml.v3"
)

// ReferenceTable is an immutable in-memory sim.PaceReference.
type ReferenceTable struct {
	rows map[sim.PaceKey]sim.PaceFeatures
}

// NewReferenceTable indexes rows by key; the first row for a key wins.
func NewReferenceTable(rows []Row) *ReferenceTable {
	t := &ReferenceTable{rows: make(map[sim.PaceKey]sim.PaceFeatures, len(rows))}
	for _, r := range rows {
		if _, dup := t.rows[r.Key]; dup {
			continue
		}
		t.rows[r.Key] = r.Features
	}
	return t
}

// Lookup implements sim.PaceReference.
func (t *ReferenceTable) Lookup(key sim.PaceKey) (sim.PaceFeatures, bool) {
	f, ok := t.rows[key]
	return f, ok
}

// Len returns the number of distinct keys.
func (t *ReferenceTable) Len() int {
	return len(t.rows)
}

// rowFile is the YAML import format for reference rows.
type rowFile struct {
	Rows []rowEntry `yaml:"rows"`
}

type rowEntry struct {
	DriverID         int `yaml:"driver_id"`
	ConstructorID    int `yaml:"constructor_id"`
	CircuitID        int `yaml:"circuit_id"`
	sim.PaceFeatures `yaml:",inline"`
}

// LoadRows parses a YAML file of reference rows:
//
//	rows:
//	  - {driver_id: 1, constructor_id: 131, circuit_id: 3, grid_position: 2, ...}
//
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadRows(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pace rows: %w", err)
	}
	var f rowFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing pace rows: %w", err)
	}
	out := make([]Row, len(f.Rows))
	for i, e := range f.Rows {
		out[i] = Row{
			Key:      sim.PaceKey{DriverID: e.DriverID, ConstructorID: e.ConstructorID, CircuitID: e.CircuitID},
			Features: e.PaceFeatures,
		}
	}
	return out, nil
}
