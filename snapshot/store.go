// Package snapshot keeps a history of serialized documents in SQLite so
// that changes to the generated API surface can be tracked over time.
package snapshot

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vitalvas/svcdoc/swagger"
)

// ErrNotFound is returned when a document has no snapshot.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is one recorded rendition of a document.
type Snapshot struct {
	ID        int64
	Name      string
	Digest    string
	Data      []byte
	CreatedAt time.Time
}

// Store records document snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the store at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			digest TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("snapshot: init: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the hex encoded SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Record stores data as the newest snapshot of name unless it is
// byte-identical to the current newest one. It reports whether a new
// snapshot was written.
func (s *Store) Record(ctx context.Context, name string, data []byte) (bool, error) {
	digest := Digest(data)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("snapshot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest string
	err = tx.QueryRowContext(ctx,
		`SELECT digest FROM snapshots WHERE name=? ORDER BY id DESC LIMIT 1`, name).Scan(&latest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("snapshot: query %s: %w", name, err)
	case latest == digest:
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots(name,digest,data,created_at) VALUES(?,?,?,?)`,
		name, digest, data, s.now().UTC()); err != nil {
		return false, fmt.Errorf("snapshot: insert %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("snapshot: commit: %w", err)
	}
	return true, nil
}

// Keys returns the key each document is recorded under, in order. A
// document is keyed by its name when the name is set and no other
// document shares it, ignoring case. Otherwise it is keyed by the
// service it was built from, and failing that by its name and position.
func Keys(docs []*swagger.Document) []string {
	names := make(map[string]int, len(docs))
	for _, doc := range docs {
		names[strings.ToLower(doc.Name)]++
	}

	keys := make([]string, len(docs))
	used := make(map[string]bool, len(docs))
	for i, doc := range docs {
		key := doc.Name
		if key == "" || names[strings.ToLower(key)] > 1 {
			key = doc.Key
		}
		if key == "" || used[key] {
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s#%d", doc.Name, n)
				if !used[candidate] {
					key = candidate
					break
				}
			}
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

// RecordDocuments serializes every document and records it under its
// key, see Keys. It returns the keys whose snapshot changed.
func (s *Store) RecordDocuments(ctx context.Context, docs []*swagger.Document) ([]string, error) {
	var changed []string
	for i, key := range Keys(docs) {
		data, err := swagger.Serialize(docs[i])
		if err != nil {
			return changed, fmt.Errorf("snapshot: serialize %s: %w", key, err)
		}
		ok, err := s.Record(ctx, key, data)
		if err != nil {
			return changed, err
		}
		if ok {
			changed = append(changed, key)
		}
	}
	return changed, nil
}

// Latest returns the newest snapshot of name.
func (s *Store) Latest(ctx context.Context, name string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,digest,data,created_at FROM snapshots WHERE name=? ORDER BY id DESC LIMIT 1`, name)

	var out Snapshot
	if err := row.Scan(&out.ID, &out.Name, &out.Digest, &out.Data, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("snapshot: latest %s: %w", name, err)
	}
	return &out, nil
}

// History returns up to limit snapshots of name, newest first. A limit
// of zero or less returns all of them.
func (s *Store) History(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,name,digest,data,created_at FROM snapshots WHERE name=? ORDER BY id DESC LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot: history %s: %w", name, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Digest, &snap.Data, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("snapshot: history %s: %w", name, err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Names lists every document name with at least one snapshot, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("snapshot: names: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
