package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

// SQLiteStore keeps the fetch log across restarts.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open fetch log: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS fetches (
		id TEXT PRIMARY KEY,
		at DATETIME NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT,
		activations INTEGER NOT NULL,
		broadcast INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create fetch log: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, rec models.FetchRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetches (id, at, ok, error, activations, broadcast, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.At.UTC(), rec.OK, rec.Error, rec.Activations, rec.Broadcast, rec.DurationMilli)
	return err
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]models.FetchRecord, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, ok, error, activations, broadcast, duration_ms FROM fetches ORDER BY at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FetchRecord
	for rows.Next() {
		var (
			rec    models.FetchRecord
			at     time.Time
			errMsg sql.NullString
		)
		if err := rows.Scan(&rec.ID, &at, &rec.OK, &errMsg, &rec.Activations, &rec.Broadcast, &rec.DurationMilli); err != nil {
			return nil, err
		}
		rec.At = at
		rec.Error = errMsg.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
