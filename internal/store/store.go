package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const backupSuffix = ".backup"

// Store persists JSON documents under a single data directory. Access to a
// given document is expected to be serialized by the caller; the store does
// no locking of its own.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads the named document into v. When the file is absent or its
// contents cannot be parsed, v is left untouched so the caller's default
// value survives. Only the parse failure is worth logging.
func (s *Store) Load(name string, v any) {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read document, using default", "document", name, "error", err)
		}
		return
	}
	if err = json.Unmarshal(data, v); err != nil {
		slog.Error("failed to parse document, using default", "document", name, "error", err)
	}
}

// Save writes v as the named document. Before overwriting an existing
// document its current durable bytes are copied to a sibling backup file;
// the save is aborted when the backup copy fails, so a crash mid-write can
// always be recovered from either the primary or the backup.
func (s *Store) Save(name string, v any) error {
	path := s.path(name)
	if err := s.backup(path); err != nil {
		return fmt.Errorf("backup %s: %w", name, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+backupSuffix, data, 0o644)
}

// PruneBackups removes backup files older than maxAge.
func (s *Store) PruneBackups(maxAge time.Duration) {
	backups, err := filepath.Glob(filepath.Join(s.dir, "*"+backupSuffix))
	if err != nil {
		slog.Error("failed to list backup files", "error", err)
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, path := range backups {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err = os.Remove(path); err != nil {
				slog.Error("failed to remove old backup", "path", path, "error", err)
				continue
			}
			slog.Info("removed old backup", "path", path)
		}
	}
}
