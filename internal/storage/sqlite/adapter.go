package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/orgraph/orgraph/internal/domain"
	"github.com/orgraph/orgraph/internal/storage"
)

// sqliteStorage implements the Store interface for SQLite. Each owner's
// snapshot is stored as one JSON document row.
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite snapshot store
func NewSQLiteStorage(dbPath string) (storage.Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// migrate creates the schema if needed
func (s *sqliteStorage) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		owner TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load reads the owner's document, falling back to a fresh snapshot when
// the row is missing or unparseable.
func (s *sqliteStorage) Load(ctx context.Context, owner string) (*domain.Snapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM snapshots WHERE owner = ?`, owner).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("No existing snapshot for %s. Starting fresh.", owner)
			return domain.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", owner, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		log.Printf("Snapshot for %s is unreadable (%v). Starting fresh.", owner, err)
		return domain.NewSnapshot(), nil
	}
	snap.Normalize()
	return &snap, nil
}

// Save upserts the owner's full document
func (s *sqliteStorage) Save(ctx context.Context, owner string, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", owner, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (owner, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`, owner, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", owner, err)
	}
	return nil
}

// List returns the stored snapshot documents
func (s *sqliteStorage) List(ctx context.Context) ([]storage.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner, updated_at, length(doc) FROM snapshots ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	infos := []storage.SnapshotInfo{}
	for rows.Next() {
		var info storage.SnapshotInfo
		if err := rows.Scan(&info.Owner, &info.LastUpdated, &info.Size); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Raw returns the serialized document bytes
func (s *sqliteStorage) Raw(ctx context.Context, owner string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM snapshots WHERE owner = ?`, owner).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", owner, err)
	}
	return []byte(doc), nil
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
