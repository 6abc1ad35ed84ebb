package pace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/pitwall/sim"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "pace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRow(driver int, grid float64) Row {
	return Row{
		Key: sim.PaceKey{DriverID: driver, ConstructorID: 131, CircuitID: 1},
		Features: sim.PaceFeatures{
			GridPosition:         grid,
			DriverStrengthCareer: 0.8,
			DriverStrengthSeason: 0.75,
			TeamStrength:         0.9,
			DriverDNFRate:        0.05,
			TeamDNFRate:          0.04,
			DriverTrackForm:      2.5,
			TeamTrackForm:        3.0,
		},
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	// GIVEN a fresh store with one row
	s := testStore(t)
	row := sampleRow(830, 2)
	n, err := s.Insert([]Row{row})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// WHEN fetching by key
	got, ok, err := s.Get(row.Key)

	// THEN every feature round-trips
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, row.Features, got)
}

func TestStore_Get_MissingKey(t *testing.T) {
	s := testStore(t)
	_, ok, err := s.Get(sim.PaceKey{DriverID: 1, ConstructorID: 2, CircuitID: 3})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Insert_FirstRowWins(t *testing.T) {
	// GIVEN two rows with the same key in one batch, then a third later
	s := testStore(t)
	n, err := s.Insert([]Row{sampleRow(1, 4), sampleRow(1, 9), sampleRow(2, 6)})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "duplicate key ignored")

	n, err = s.Insert([]Row{sampleRow(1, 12)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// THEN the first grid position is kept
	got, ok, err := s.Get(sampleRow(1, 0).Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4.0, got.GridPosition)
}

func TestStore_LoadTable(t *testing.T) {
	s := testStore(t)
	_, err := s.Insert([]Row{sampleRow(1, 3), sampleRow(2, 7), sampleRow(3, 11)})
	require.NoError(t, err)

	table, err := s.LoadTable()
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	f, ok := table.Lookup(sampleRow(2, 0).Key)
	assert.True(t, ok)
	assert.Equal(t, 7.0, f.GridPosition)
}

func TestOpenStore_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pace.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	_, err = s.Insert([]Row{sampleRow(44, 1)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, ok, err := reopened.Get(sampleRow(44, 0).Key)
	require.NoError(t, err)
	assert.True(t, ok)
}
