package store

import (
	"fmt"

	"github.com/fenestra-io/configurator/internal/core"
)

// Closeable is an optional interface for stores that need cleanup.
type Closeable interface {
	Close() error
}

// New creates a ConfigStore of the given type at path. For "json" the path
// is a directory; for "sqlite" it is the database file.
func New(storeType, path string) (core.ConfigStore, error) {
	switch storeType {
	case "json":
		return NewJSONStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store type %q (want json or sqlite)", storeType)
	}
}

// CloseStore safely closes a store if it implements Closeable.
func CloseStore(s core.ConfigStore) error {
	if c, ok := s.(Closeable); ok {
		return c.Close()
	}
	return nil
}
