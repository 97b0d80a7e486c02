//go:generate mockgen -destination=./mocks/backend.go . Backend

// Package database keeps the durable record of installed packages.
//
// The Store holds records in memory and writes the whole set through a
// Backend after every mutation. Backends replace their persisted state
// atomically, so a crash never leaves a half-written record.
package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/zpkg/pkg/model"
)

// Backend persists the installed package set.
type Backend interface {
	// Load returns every persisted record keyed by qualified name. A backend
	// that has never been written returns an empty map.
	Load(ctx context.Context) (map[string]*model.InstalledPackage, error)
	// Persist atomically replaces the persisted set with records.
	Persist(ctx context.Context, records map[string]*model.InstalledPackage) error
}

// Prober is implemented by backends that can check writability up front.
type Prober interface {
	Probe(ctx context.Context) error
}

// Backend kinds accepted by NewBackend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// NewBackend creates the backend of the given kind storing its data in stateDir.
func NewBackend(kind, stateDir string) (Backend, error) {
	switch kind {
	case "", BackendJSON:
		return NewJSONBackend(filepath.Join(stateDir, "installed.json")), nil
	case BackendSQLite:
		return NewSQLiteBackend(filepath.Join(stateDir, "installed.db")), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", kind)
	}
}
