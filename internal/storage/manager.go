package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/keyforge/backend/internal/models"
)

// Store writes generated sources and locates build artifacts.
type Store interface {
	Dir(dir string) string
	WriteFiles(dir string, files []models.GeneratedFile) ([]*models.FileInfo, error)
	FindArtifact(dir string, patterns []string, since time.Time) (*models.FileInfo, error)
	List(dir string) ([]*models.FileInfo, error)
	Delete(dir, name string) error
}

// LocalStore implements Store using the local filesystem. Relative
// directories are resolved against the root.
type LocalStore struct {
	mu   sync.Mutex
	root string
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the base output directory.
func (s *LocalStore) Root() string {
	return s.root
}

// Dir resolves dir against the root.
func (s *LocalStore) Dir(dir string) string {
	if dir == "" {
		return s.root
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.root, dir)
}

// WriteFiles writes every file into dir. Each file is written to a temp file
// and renamed into place, so readers never see a partial file.
func (s *LocalStore) WriteFiles(dir string, files []models.GeneratedFile) ([]*models.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.Dir(dir)
	if err := os.MkdirAll(target, 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	infos := make([]*models.FileInfo, 0, len(files))
	for _, f := range files {
		if err := checkName(f.Name); err != nil {
			return nil, err
		}
		path := filepath.Join(target, f.Name)
		if err := writeAtomic(path, []byte(f.Content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
		info, err := stat(path)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// FindArtifact returns the newest file in dir matching any of the glob
// patterns and modified no earlier than since. A zero since accepts any file.
func (s *LocalStore) FindArtifact(dir string, patterns []string, since time.Time) (*models.FileInfo, error) {
	target := s.Dir(dir)

	var newest *models.FileInfo
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(target, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad artifact pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			info, err := stat(path)
			if err != nil {
				continue
			}
			if !since.IsZero() && info.ModifiedAt.Before(since) {
				continue
			}
			if newest == nil || info.ModifiedAt.After(newest.ModifiedAt) {
				newest = info
			}
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("no artifact matching %s in %s", strings.Join(patterns, ", "), target)
	}
	return newest, nil
}

// List returns the regular files in dir sorted by name.
func (s *LocalStore) List(dir string) ([]*models.FileInfo, error) {
	target := s.Dir(dir)
	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var list []*models.FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := stat(filepath.Join(target, e.Name()))
		if err != nil {
			continue
		}
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// Delete removes one file from dir.
func (s *LocalStore) Delete(dir, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.Dir(dir), name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", name)
		}
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".keyforge-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func stat(path string) (*models.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &models.FileInfo{
		Name:       fi.Name(),
		Path:       path,
		Size:       fi.Size(),
		ModifiedAt: fi.ModTime(),
	}, nil
}
