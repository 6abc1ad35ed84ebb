package pace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/pitwall/sim"
)

var _ sim.PaceReference = (*ReferenceTable)(nil)

func TestReferenceTable_FirstRowWins(t *testing.T) {
	table := NewReferenceTable([]Row{sampleRow(1, 5), sampleRow(1, 8)})
	assert.Equal(t, 1, table.Len())
	f, ok := table.Lookup(sampleRow(1, 0).Key)
	assert.True(t, ok)
	assert.Equal(t, 5.0, f.GridPosition)
}

func TestReferenceTable_Lookup_RequiresFullKey(t *testing.T) {
	table := NewReferenceTable([]Row{sampleRow(1, 5)})
	_, ok := table.Lookup(sim.PaceKey{DriverID: 1, ConstructorID: 131, CircuitID: 2})
	assert.False(t, ok)
}

func TestLoadRows_ParsesInlineFeatures(t *testing.T) {
	// GIVEN a YAML file with two rows
	path := filepath.Join(t.TempDir(), "rows.yaml")
	yamlContent := `
rows:
  - driver_id: 830
    constructor_id: 9
    circuit_id: 1
    grid_position: 1
    driver_strength_career: 0.92
    driver_strength_season: 0.95
    team_strength: 0.88
    driver_dnf_rate: 0.02
    team_dnf_rate: 0.03
    driver_track_form: 1.5
    team_track_form: 2.0
  - {driver_id: 1, constructor_id: 131, circuit_id: 1, grid_position: 3}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	// WHEN loading
	rows, err := LoadRows(path)

	// THEN keys and features are populated, missing features default to 0
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sim.PaceKey{DriverID: 830, ConstructorID: 9, CircuitID: 1}, rows[0].Key)
	assert.Equal(t, 0.92, rows[0].Features.DriverStrengthCareer)
	assert.Equal(t, 2.0, rows[0].Features.TeamTrackForm)
	assert.Equal(t, 3.0, rows[1].Features.GridPosition)
	assert.Zero(t, rows[1].Features.TeamStrength)
}

func TestLoadRows_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows:\n  - {driver_id: 1, grid_postion: 2}\n"), 0o644))

	_, err := LoadRows(path)
	assert.Error(t, err)
}

func TestLoadRows_MissingFile(t *testing.T) {
	_, err := LoadRows(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
