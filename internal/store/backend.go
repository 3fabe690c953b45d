package store

import (
	"context"
	"fmt"
)

// Backend stores opaque state records by key.
// Load returns ok=false and a nil error when the key has never been written.
type Backend interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// OpenBackend opens the backend named by kind ("file", "sqlite" or "memory")
// at path. The returned close function releases it.
func OpenBackend(kind, path string) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case "file":
		return NewFileBackend(path), noop, nil
	case "sqlite":
		b, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case "memory":
		return NewMemoryBackend(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", kind)
	}
}
