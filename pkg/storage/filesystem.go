package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps generated schedule artifacts (timetable and exam
// exports) on disk under a single base directory. Artifact names are
// relative paths such as "artifacts/<job-id>/timetable.csv".
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the artifact directory if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory %s: %w", baseDir, err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes an artifact and returns the name it is stored under.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.artifactPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read-only handle on a stored artifact.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.artifactPath(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return file, nil
}

// Delete removes an artifact. Missing files are not an error.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.artifactPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	return nil
}

// CleanupOlderThan removes artifacts whose mtime is past the TTL and
// returns the names it deleted.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)

	var stale []string
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().After(cutoff) {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}

	deleted := make([]string, 0, len(stale))
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("remove stale artifact: %w", err)
		}
		if rel, err := filepath.Rel(s.baseDir, path); err == nil {
			deleted = append(deleted, rel)
		} else {
			deleted = append(deleted, path)
		}
	}
	return deleted, nil
}

// artifactPath confines names to the base directory so a signed token can
// never be minted for a file outside it.
func (s *LocalStorage) artifactPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("artifact name required")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("artifact name %s escapes storage root", name)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
