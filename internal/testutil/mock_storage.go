// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/keyforge/backend/internal/models"
	"github.com/keyforge/backend/internal/storage"
)

// MockStorage implements storage.Store in memory.
type MockStorage struct {
	mu        sync.RWMutex
	files     map[string]map[string][]byte // dir -> name -> content
	artifacts map[string]*models.FileInfo  // dir -> artifact

	// WriteErr, when set, is returned by WriteFiles.
	WriteErr error
	writes   int
}

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:     make(map[string]map[string][]byte),
		artifacts: make(map[string]*models.FileInfo),
	}
}

func (m *MockStorage) Dir(dir string) string {
	return path.Join("/mock", dir)
}

func (m *MockStorage) WriteFiles(dir string, files []models.GeneratedFile) ([]*models.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	if m.files[dir] == nil {
		m.files[dir] = make(map[string][]byte)
	}

	infos := make([]*models.FileInfo, 0, len(files))
	for _, f := range files {
		m.files[dir][f.Name] = []byte(f.Content)
		infos = append(infos, &models.FileInfo{
			Name:       f.Name,
			Path:       path.Join("/mock", dir, f.Name),
			Size:       int64(len(f.Content)),
			ModifiedAt: time.Now(),
		})
	}
	return infos, nil
}

func (m *MockStorage) FindArtifact(dir string, patterns []string, since time.Time) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.artifacts[dir]
	if !ok {
		return nil, fmt.Errorf("no artifact in %s", dir)
	}
	return a, nil
}

func (m *MockStorage) List(dir string) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files, ok := m.files[dir]
	if !ok {
		return nil, errors.New("directory not found")
	}
	var list []*models.FileInfo
	for name, data := range files {
		list = append(list, &models.FileInfo{Name: name, Path: path.Join("/mock", dir, name), Size: int64(len(data))})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *MockStorage) Delete(dir, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[dir][name]; !ok {
		return errors.New("file not found")
	}
	delete(m.files[dir], name)
	return nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// SetArtifact makes FindArtifact report an artifact of the given size in dir.
func (m *MockStorage) SetArtifact(dir, name string, size int64) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.FileInfo{
		Name:       name,
		Path:       path.Join("/mock", dir, name),
		Size:       size,
		ModifiedAt: time.Now(),
	}
	m.artifacts[dir] = info
	return info
}

// GetFileData returns the content written for dir/name.
func (m *MockStorage) GetFileData(dir, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[dir][name]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

// WriteCount returns how many times WriteFiles was called.
func (m *MockStorage) WriteCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Clear removes all files and artifacts.
func (m *MockStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string]map[string][]byte)
	m.artifacts = make(map[string]*models.FileInfo)
	m.writes = 0
}
