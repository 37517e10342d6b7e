// Package store persists ghosting results in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mrighosting/internal/models"
	"mrighosting/pkg/ghosting"
)

// Store keeps one row per acquisition and one row per analysed file
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at dbPath, creating parent directories
// as needed
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS acquisition (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		description VARCHAR(140),
		series_instance_uid VARCHAR(140),
		files INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_acquisition_series ON acquisition(series_instance_uid);

	CREATE TABLE IF NOT EXISTS ghosting_result (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		acquisition_id INTEGER NOT NULL REFERENCES acquisition(id),
		path TEXT NOT NULL,
		ghosting REAL NOT NULL,
		phantom_mean REAL,
		ghost_mean REAL,
		noise_mean REAL,
		analysed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_result_acquisition ON ghosting_result(acquisition_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record is one stored ghosting measurement joined with its acquisition
type Record struct {
	ID                int64
	Key               string
	Description       string
	SeriesInstanceUID string
	Files             int
	Path              string
	Ghosting          float64
	PhantomMean       float64
	GhostMean         float64
	NoiseMean         float64
	AnalysedAt        time.Time
}

// SaveResult stores one measurement, creating the acquisition row on first
// use and refreshing its file count. It returns the new result id.
func (s *Store) SaveResult(ctx context.Context, acq *models.Acquisition, result *ghosting.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO acquisition (key, description, series_instance_uid)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		description = excluded.description,
		series_instance_uid = excluded.series_instance_uid
	`, acq.Key(), acq.SeriesDescription, acq.SeriesInstanceUID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert acquisition: %w", err)
	}

	var acqID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM acquisition WHERE key = ?`, acq.Key()).Scan(&acqID); err != nil {
		return 0, fmt.Errorf("failed to look up acquisition: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO ghosting_result (acquisition_id, path, ghosting, phantom_mean, ghost_mean, noise_mean)
	VALUES (?, ?, ?, ?, ?, ?)
	`, acqID, acq.Path, result.Ghosting,
		result.Regions.PhantomMean, result.Regions.GhostMean, result.Regions.NoiseMean)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get result id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE acquisition SET files =
		(SELECT COUNT(DISTINCT path) FROM ghosting_result WHERE acquisition_id = ?)
	WHERE id = ?
	`, acqID, acqID)
	if err != nil {
		return 0, fmt.Errorf("failed to update file count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit result: %w", err)
	}
	return id, nil
}

// Results returns every stored measurement, oldest first
func (s *Store) Results(ctx context.Context) ([]Record, error) {
	return s.query(ctx, "", nil)
}

// ResultsForSeries returns the measurements of one series instance UID
func (s *Store) ResultsForSeries(ctx context.Context, seriesUID string) ([]Record, error) {
	return s.query(ctx, "WHERE a.series_instance_uid = ?", []any{seriesUID})
}

func (s *Store) query(ctx context.Context, where string, args []any) ([]Record, error) {
	q := `
	SELECT r.id, a.key, COALESCE(a.description, ''), COALESCE(a.series_instance_uid, ''), a.files,
		r.path, r.ghosting, r.phantom_mean, r.ghost_mean, r.noise_mean, r.analysed_at
	FROM ghosting_result r
	JOIN acquisition a ON a.id = r.acquisition_id
	` + where + `
	ORDER BY r.id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var analysedAt string
		if err := rows.Scan(&rec.ID, &rec.Key, &rec.Description, &rec.SeriesInstanceUID, &rec.Files,
			&rec.Path, &rec.Ghosting, &rec.PhantomMean, &rec.GhostMean, &rec.NoiseMean, &analysedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		rec.AnalysedAt = parseTimestamp(analysedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SQLite hands DATETIME columns back in more than one layout
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no layout matches
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
