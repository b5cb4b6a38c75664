package storage

import (
	"context"
	"errors"
	"time"

	"github.com/orgraph/orgraph/internal/domain"
)

// ErrNotFound is returned by Raw when no document exists for an owner.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotInfo describes one stored snapshot document
type SnapshotInfo struct {
	Owner       string    `json:"owner"`
	LastUpdated time.Time `json:"lastUpdated"`
	Size        int64     `json:"size"`
}

// Store is the abstract interface for snapshot persistence
type Store interface {
	// Load returns the snapshot for an owner. When no document exists or
	// the stored document cannot be parsed, it logs and returns a fresh
	// default snapshot; load is never fatal.
	Load(ctx context.Context, owner string) (*domain.Snapshot, error)

	// Save rewrites the owner's full document. Called after every page
	// fetched and every per-item update (checkpoint granularity).
	Save(ctx context.Context, owner string, snap *domain.Snapshot) error

	// List returns the stored snapshot documents
	List(ctx context.Context) ([]SnapshotInfo, error)

	// Raw returns the serialized document bytes without transformation
	Raw(ctx context.Context, owner string) ([]byte, error)

	// Connection management
	Close() error
}
