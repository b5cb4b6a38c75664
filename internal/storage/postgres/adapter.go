package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/orgraph/orgraph/internal/domain"
	"github.com/orgraph/orgraph/internal/storage"
)

// postgresStorage implements the Store interface for PostgreSQL. Each
// owner's snapshot is stored as one JSON document row.
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL snapshot store
func NewPostgresStorage(connURL string) (storage.Store, error) {
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &postgresStorage{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// migrate creates the schema if needed
func (s *postgresStorage) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		owner TEXT PRIMARY KEY,
		doc JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load reads the owner's document, falling back to a fresh snapshot when
// the row is missing or unparseable.
func (s *postgresStorage) Load(ctx context.Context, owner string) (*domain.Snapshot, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM snapshots WHERE owner = $1`, owner).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("No existing snapshot for %s. Starting fresh.", owner)
			return domain.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", owner, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		log.Printf("Snapshot for %s is unreadable (%v). Starting fresh.", owner, err)
		return domain.NewSnapshot(), nil
	}
	snap.Normalize()
	return &snap, nil
}

// Save upserts the owner's full document
func (s *postgresStorage) Save(ctx context.Context, owner string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", owner, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (owner, doc, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (owner) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
	`, owner, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", owner, err)
	}
	return nil
}

// List returns the stored snapshot documents
func (s *postgresStorage) List(ctx context.Context) ([]storage.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner, updated_at, length(doc::text) FROM snapshots ORDER BY owner`)
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
func (s *postgresStorage) Raw(ctx context.Context, owner string) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM snapshots WHERE owner = $1`, owner).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", owner, err)
	}
	return doc, nil
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
