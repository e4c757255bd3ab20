package docstore

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore persists each document as one JSON file under a data directory.
// Writes go to a temporary file first and are moved into place with an
// atomic rename, so a crash leaves either the old document or the new one,
// never a torn file.
type FileStore struct {
	dataDir string
	mu      sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, err
	}
	return &FileStore{dataDir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(key)+".json")
}

func (s *FileStore) Get(ctx context.Context, key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	// Corrupted documents are treated as absent.
	if err := json.Unmarshal(b, v); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Put(ctx context.Context, key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o660); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0)
	err := filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
