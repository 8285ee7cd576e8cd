// Package calibstore keeps accepted sensor calibrations in SQLite so a restart
// can skip recalibration.
package calibstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Latest when nothing has been saved.
var ErrNotFound = errors.New("no calibration stored")

const schema = `
CREATE TABLE IF NOT EXISTS calibrations (
	seq               INTEGER PRIMARY KEY AUTOINCREMENT,
	id                TEXT NOT NULL UNIQUE,
	r0                REAL NOT NULL,
	precision_percent REAL NOT NULL,
	samples           INTEGER NOT NULL,
	table_fingerprint TEXT NOT NULL,
	created_at        TEXT NOT NULL
);
`

// Record is one accepted calibration.
type Record struct {
	ID        string
	R0        float64
	Precision float64
	Samples   int
	// TableFingerprint identifies the state table that produced the record.
	TableFingerprint uint64
	CreatedAt        time.Time
}

// Store persists calibration records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One writer at a time keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts rec. A missing ID or timestamp is filled in, and the stored
// record is returned.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	rec.CreatedAt = rec.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calibrations (id, r0, precision_percent, samples, table_fingerprint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.R0, rec.Precision, rec.Samples,
		strconv.FormatUint(rec.TableFingerprint, 16),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert calibration: %w", err)
	}

	return rec, nil
}

// Latest returns the most recently saved record.
func (s *Store) Latest(ctx context.Context) (Record, error) {
	rows, err := s.List(ctx, 1)
	if err != nil {
		return Record{}, err
	}

	if len(rows) == 0 {
		return Record{}, ErrNotFound
	}

	return rows[0], nil
}

// List returns up to limit records, newest first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, r0, precision_percent, samples, table_fingerprint, created_at
		 FROM calibrations ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calibrations: %w", err)
	}
	defer rows.Close()

	var out []Record

	for rows.Next() {
		var (
			rec         Record
			fingerprint string
			createdAt   string
		)

		if err := rows.Scan(&rec.ID, &rec.R0, &rec.Precision, &rec.Samples, &fingerprint, &createdAt); err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}

		rec.TableFingerprint, err = strconv.ParseUint(fingerprint, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse fingerprint of %s: %w", rec.ID, err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", rec.ID, err)
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calibrations: %w", err)
	}

	return out, nil
}

// Clear deletes every record and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calibrations`)
	if err != nil {
		return 0, fmt.Errorf("delete calibrations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}
