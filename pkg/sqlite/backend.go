// Package sqlite is the public entry point for the SQLite record store.
// It exposes constructors while the implementation stays internal.
package sqlite

import (
	"github.com/mesh-intelligence/tracker/internal/sqlite"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

var _ types.Store = (*sqlite.Backend)(nil)

// NewBackend creates a new, detached SQLite store.
// Call Attach with a Config before use.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/tracker",
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}

// Open creates a store and attaches it to dataDir.
func Open(dataDir string) (types.Store, error) {
	store := NewBackend()
	if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
		return nil, err
	}
	return store, nil
}
