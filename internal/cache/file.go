package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fedibtc/fedicore/internal/fileutil"
)

const cacheFilePermissions = 0o640

// ErrCorruptCache indicates the cache file is malformed JSON.
var ErrCorruptCache = errors.New("cache file is corrupted")

// FileStorage persists a ProfileCache as a JSON file.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Save writes the cache to disk, creating parent directories as needed.
func (s *FileStorage) Save(cache *ProfileCache) error {
	cache.mu.RLock()
	data, err := json.MarshalIndent(cache, "", "  ")
	cache.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, cacheFilePermissions); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Load reads the cache from disk. A missing file yields an empty cache. A
// corrupt file is moved aside and an empty cache is returned together with
// ErrCorruptCache.
func (s *FileStorage) Load() (*ProfileCache, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return NewProfileCache(), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var cache ProfileCache
	if err := json.Unmarshal(data, &cache); err != nil {
		corruptPath, moveErr := fileutil.MoveAside(s.path, "corrupt")
		if moveErr != nil {
			return NewProfileCache(), fmt.Errorf("%w: %w (%w)", ErrCorruptCache, err, moveErr)
		}
		return NewProfileCache(), fmt.Errorf("%w: %w (moved to %s)", ErrCorruptCache, err, corruptPath)
	}

	if cache.Entries == nil {
		cache.Entries = make(map[string]ProfileEntry)
	}
	return &cache, nil
}
