package session

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"sectioncal/internal/config"
)

// CacheKey is the only key the state file holds.
const CacheKey = "last_section"

// Cache remembers the last displayed section code. Load returns "" when
// nothing is cached.
type Cache interface {
	Load() (string, error)
	Store(code string) error
	Clear() error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu   sync.Mutex
	code string
}

func (m *MemoryCache) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code, nil
}

func (m *MemoryCache) Store(code string) error {
	m.mu.Lock()
	m.code = code
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Clear() error { return m.Store("") }

// FileCache persists the code in a small YAML file:
//
//	last_section: S01
type FileCache struct {
	path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (f *FileCache) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	var state map[string]string
	if err := yaml.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("session: parse %s: %w", f.path, err)
	}
	return state[CacheKey], nil
}

func (f *FileCache) Store(code string) error {
	data, err := yaml.Marshal(map[string]string{CacheKey: code})
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(f.path, data, 0o600)
}

// Clear removes the state file.
func (f *FileCache) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
