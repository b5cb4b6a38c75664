package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/orgraph/orgraph/internal/domain"
	"github.com/orgraph/orgraph/internal/storage"
)

// fileStorage implements the Store interface with one JSON document per
// owner under a data directory.
type fileStorage struct {
	dir string
}

// NewFileStorage creates a new file-backed snapshot store
func NewFileStorage(dir string) (storage.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &fileStorage{dir: dir}, nil
}

func (s *fileStorage) path(owner string) string {
	return filepath.Join(s.dir, owner+".json")
}

// Load reads the owner's document, falling back to a fresh snapshot when
// the file is missing or unparseable.
func (s *fileStorage) Load(_ context.Context, owner string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(s.path(owner))
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No existing snapshot for %s. Starting fresh.", owner)
			return domain.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", owner, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("Snapshot for %s is unreadable (%v). Starting fresh.", owner, err)
		return domain.NewSnapshot(), nil
	}
	snap.Normalize()
	return &snap, nil
}

// Save writes the full document atomically: a temp file in the same
// directory is renamed over the previous version, so readers never see a
// partial write.
func (s *fileStorage) Save(_ context.Context, owner string, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", owner, err)
	}

	path := s.path(owner)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot for %s: %w", owner, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot for %s: %w", owner, err)
	}
	return nil
}

// List returns the stored snapshot documents
func (s *fileStorage) List(_ context.Context) ([]storage.SnapshotInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	infos := []storage.SnapshotInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		info := storage.SnapshotInfo{Owner: strings.TrimSuffix(name, ".json")}
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}

		// Best effort: lift lastUpdated out of the document
		if data, err := os.ReadFile(filepath.Join(s.dir, name)); err == nil {
			var doc struct {
				LastUpdated time.Time `json:"lastUpdated"`
			}
			if err := json.Unmarshal(data, &doc); err == nil {
				info.LastUpdated = doc.LastUpdated
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Raw returns the serialized document bytes
func (s *fileStorage) Raw(_ context.Context, owner string) ([]byte, error) {
	data, err := os.ReadFile(s.path(owner))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", owner, err)
	}
	return data, nil
}

// Close is a no-op for the file store
func (s *fileStorage) Close() error {
	return nil
}
