package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-entropy-forensics/pkg/models"
)

// Schema for the scan-history store.
const schema = `
CREATE TABLE IF NOT EXISTS scans (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    input_path    TEXT NOT NULL,
    kind          TEXT NOT NULL,
    score         REAL NOT NULL,
    detector      TEXT NOT NULL,
    scanned_at    INTEGER NOT NULL,
    elapsed_sec   REAL NOT NULL,
    result_json   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_time ON scans(scanned_at);
CREATE INDEX IF NOT EXISTS idx_scans_input ON scans(input_path, scanned_at);
`

// Record is one persisted scan.
type Record struct {
	ID        int64
	ScannedAt time.Time
	Result    models.ScanResult
}

// Store is the SQLite scan-history store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs
// migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert persists a completed scan and returns its row ID.
func (s *Store) Insert(result *models.ScanResult) (int64, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshal scan result: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO scans (input_path, kind, score, detector, scanned_at, elapsed_sec, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.InputPath, string(result.Kind), result.Score, result.DetectorTag,
		result.Timestamp.UnixNano(), result.ElapsedSec, string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// Get retrieves one scan by row ID; a missing row yields (nil, nil).
func (s *Store) Get(id int64) (*Record, error) {
	var rec Record
	var scannedNs int64
	var payload string

	err := s.db.QueryRow(`
		SELECT id, scanned_at, result_json FROM scans WHERE id = ?`, id,
	).Scan(&rec.ID, &scannedNs, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scan: %w", err)
	}

	rec.ScannedAt = time.Unix(0, scannedNs).UTC()
	if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshal scan result: %w", err)
	}
	return &rec, nil
}

// ListRecent returns the most recent scans, newest first.
func (s *Store) ListRecent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, scanned_at, result_json
		FROM scans
		ORDER BY scanned_at DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent scans: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByInput returns scans for one input path, newest first.
func (s *Store) ListByInput(inputPath string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, scanned_at, result_json
		FROM scans
		WHERE input_path = ?
		ORDER BY scanned_at DESC
		LIMIT ?`, inputPath, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query scans by input: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var scannedNs int64
		var payload string

		if err := rows.Scan(&rec.ID, &scannedNs, &payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.ScannedAt = time.Unix(0, scannedNs).UTC()
		if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
			return nil, fmt.Errorf("unmarshal scan result: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return records, nil
}
