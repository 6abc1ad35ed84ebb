// Package pace provides the historical pace reference table and the
// finishing-rank regressor consumed by sim.PaceFactorProvider.
package pace

import (
	"database/sql"
	"fmt"

	"github.com/pitwall-sim/pitwall/sim"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pace_features (
	driver_id               INTEGER NOT NULL,
	constructor_id          INTEGER NOT NULL,
	circuit_id              INTEGER NOT NULL,
	grid_position           REAL NOT NULL,
	driver_strength_career  REAL NOT NULL,
	driver_strength_season  REAL NOT NULL,
	team_strength           REAL NOT NULL,
	driver_dnf_rate         REAL NOT NULL,
	team_dnf_rate           REAL NOT NULL,
	driver_track_form       REAL NOT NULL,
	team_track_form         REAL NOT NULL,
	PRIMARY KEY (driver_id, constructor_id, circuit_id)
);
`

// Row is one keyed reference row.
type Row struct {
	Key      sim.PaceKey
	Features sim.PaceFeatures
}

// Store persists pace reference rows in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a SQLite database and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert adds rows in one transaction. A row whose key already exists is
// skipped: the first row seen for a key wins. Returns the number inserted.
func (s *Store) Insert(rows []Row) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO pace_features (
		driver_id, constructor_id, circuit_id,
		grid_position, driver_strength_career, driver_strength_season, team_strength,
		driver_dnf_rate, team_dnf_rate, driver_track_form, team_track_form
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rows {
		f := r.Features
		res, err := stmt.Exec(
			r.Key.DriverID, r.Key.ConstructorID, r.Key.CircuitID,
			f.GridPosition, f.DriverStrengthCareer, f.DriverStrengthSeason, f.TeamStrength,
			f.DriverDNFRate, f.TeamDNFRate, f.DriverTrackForm, f.TeamTrackForm,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.Key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Get returns the row for key, if any.
func (s *Store) Get(key sim.PaceKey) (sim.PaceFeatures, bool, error) {
	var f sim.PaceFeatures
	err := s.db.QueryRow(`SELECT
		grid_position, driver_strength_career, driver_strength_season, team_strength,
		driver_dnf_rate, team_dnf_rate, driver_track_form, team_track_form
		FROM pace_features WHERE driver_id = ? AND constructor_id = ? AND circuit_id = ?`,
		key.DriverID, key.ConstructorID, key.CircuitID,
	).Scan(
		&f.GridPosition, &f.DriverStrengthCareer, &f.DriverStrengthSeason, &f.TeamStrength,
		&f.DriverDNFRate, &f.TeamDNFRate, &f.DriverTrackForm, &f.TeamTrackForm,
	)
	if err == sql.ErrNoRows {
		return sim.PaceFeatures{}, false, nil
	}
	if err != nil {
		return sim.PaceFeatures{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	return f, true, nil
}

// LoadTable reads every row into an in-memory ReferenceTable.
func (s *Store) LoadTable() (*ReferenceTable, error) {
	rows, err := s.db.Query(`SELECT
		driver_id, constructor_id, circuit_id,
		grid_position, driver_strength_career, driver_strength_season, team_strength,
		driver_dnf_rate, team_dnf_rate, driver_track_form, team_track_form
		FROM pace_features`)
	if err != nil {
		return nil, fmt.Errorf("query pace features: %w", err)
	}
	defer rows.Close()

	var all []Row
	for rows.Next() {
		var r Row
		f := &r.Features
		if err := rows.Scan(
			&r.Key.DriverID, &r.Key.ConstructorID, &r.Key.CircuitID,
			&f.GridPosition, &f.DriverStrengthCareer, &f.DriverStrengthSeason, &f.TeamStrength,
			&f.DriverDNFRate, &f.TeamDNFRate, &f.DriverTrackForm, &f.TeamTrackForm,
		); err != nil {
			return nil, fmt.Errorf("scan pace features: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pace features: %w", err)
	}
	return NewReferenceTable(all), nil
}
