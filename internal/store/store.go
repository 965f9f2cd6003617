// SPDX-License-Identifier: Apache-2.0

// Package store persists conversion manifests in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/compassoutlaw/rosetta/internal/evidence"
)

// ErrNotFound is returned by Get for an unknown manifest id.
var ErrNotFound = errors.New("manifest not found")

// Schema for the manifests table. Call Store.Init or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS manifests (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	classification TEXT NOT NULL,
	evidence_score INTEGER NOT NULL,
	tier TEXT NOT NULL,
	pfv_metadata TEXT NOT NULL,
	schema_conforms INTEGER,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_manifests_created ON manifests(created_at);
`

// Store is a manifest ledger. It satisfies rosetta.Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies Schema.
// Use ":memory:" for a throwaway ledger.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	s := NewStore(db)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the manifests table if it doesn't exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Record inserts m, replacing any manifest with the same id.
func (s *Store) Record(ctx context.Context, m evidence.Manifest) error {
	var conforms sql.NullBool
	if m.SchemaConforms != nil {
		conforms = sql.NullBool{Bool: *m.SchemaConforms, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO manifests
			(id, file_name, classification, evidence_score, tier, pfv_metadata, schema_conforms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FileName, string(m.Classification), m.EvidenceScore, string(m.Tier),
		m.PFVMetadata, conforms, m.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record manifest %s: %w", m.ID, err)
	}
	return nil
}

const selectColumns = `id, file_name, classification, evidence_score, tier, pfv_metadata, schema_conforms, created_at`

// Get returns the manifest with the given id.
func (s *Store) Get(ctx context.Context, id string) (evidence.Manifest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM manifests WHERE id = ?`, id)
	m, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return evidence.Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, err
}

// List returns up to limit manifests, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]evidence.Manifest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM manifests ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var out []evidence.Manifest
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (evidence.Manifest, error) {
	var (
		m        evidence.Manifest
		class    string
		tier     string
		conforms sql.NullBool
		created  string
	)
	if err := r.Scan(&m.ID, &m.FileName, &class, &m.EvidenceScore, &tier, &m.PFVMetadata, &conforms, &created); err != nil {
		return evidence.Manifest{}, err
	}
	m.Classification = evidence.Classification(class)
	m.Tier = evidence.Tier(tier)
	if conforms.Valid {
		m.SchemaConforms = evidence.Bool(conforms.Bool)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return evidence.Manifest{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	m.CreatedAt = t
	return m, nil
}
