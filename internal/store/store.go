// Package store persists merged user documents in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// DefaultPath is used when Config.Path is empty.
const DefaultPath = "data/users.db"

// Config configures the document store.
type Config struct {
	Path string
}

// Store is a SQLite-backed per-user document store.
type Store struct {
	db    *sql.DB
	path  string
	nowFn func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL UNIQUE,
	document    JSON NOT NULL,
	check_ins   INTEGER NOT NULL DEFAULT 0,
	connections INTEGER NOT NULL DEFAULT 0,
	updated_at  TIMESTAMP NOT NULL
);
`

const upsertUserSQL = `
INSERT INTO users (user_id, document, check_ins, connections, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	document    = excluded.document,
	check_ins   = excluded.check_ins,
	connections = excluded.connections,
	updated_at  = excluded.updated_at
`

// Open creates or opens the database at cfg.Path and ensures the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	// A single connection keeps :memory: databases and write transactions consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db, path: path, nowFn: time.Now}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// SaveCollection upserts every record of the collection in one transaction.
func (s *Store) SaveCollection(ctx context.Context, coll *domain.UserCollection) error {
	return s.save(ctx, coll, false)
}

// ReplaceCollection drops all stored users and writes the collection in their
// place, atomically.
func (s *Store) ReplaceCollection(ctx context.Context, coll *domain.UserCollection) error {
	return s.save(ctx, coll, true)
}

func (s *Store) save(ctx context.Context, coll *domain.UserCollection, replace bool) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, upsertUserSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.nowFn().UTC()
	for _, rec := range coll.Records() {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode user %d: %w", rec.UserID, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.UserID, string(doc), rec.CheckInCount(), len(rec.Connections), now); err != nil {
			return fmt.Errorf("upsert user %d: %w", rec.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadCollection reads every stored document in insertion order.
func (s *Store) LoadCollection(ctx context.Context) (*domain.UserCollection, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT document FROM users ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var records []domain.UserRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		var rec domain.UserRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.NewUserCollection(records), nil
}

// Get returns the document for one user.
func (s *Store) Get(ctx context.Context, userID int64) (domain.UserRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM users WHERE user_id = ?", userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserRecord{}, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("get user %d: %w", userID, err)
	}

	var rec domain.UserRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return domain.UserRecord{}, fmt.Errorf("decode user %d: %w", userID, err)
	}
	return rec, nil
}

// Count returns the number of stored users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountWithConnections returns how many stored users have at least one outgoing connection.
func (s *Store) CountWithConnections(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE connections > 0").Scan(&n); err != nil {
		return 0, fmt.Errorf("count connected users: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
