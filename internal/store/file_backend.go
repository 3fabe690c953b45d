package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores each key as a JSON file in a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a FileBackend rooted at dir. The directory is created on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Load reads the record for key. A missing file is not an error.
func (b *FileBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save writes the record atomically (temp file, then rename).
func (b *FileBackend) Save(ctx context.Context, key string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return err
	}

	path := b.Path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (b *FileBackend) Delete(ctx context.Context, key string) error {
	err := os.Remove(b.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path returns the file used for key.
func (b *FileBackend) Path(key string) string {
	name := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(b.dir, name+".json")
}

var _ Backend = (*FileBackend)(nil)
