package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// FormatVersion is written to every JSON state file.
const FormatVersion = "1"

type jsonDocument struct {
	FormatVersion string                    `json:"format_version"`
	LastUpdate    time.Time                 `json:"last_update"`
	Packages      []*model.InstalledPackage `json:"packages"`
}

// JSONBackend stores installed packages in a single JSON file.
type JSONBackend struct {
	path string
}

// NewJSONBackend creates a backend writing to path.
func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{path: filepath.Clean(path)}
}

// Path returns the state file location.
func (b *JSONBackend) Path() string {
	return b.path
}

// Load reads the state file. A missing file yields an empty set.
func (b *JSONBackend) Load(_ context.Context) (map[string]*model.InstalledPackage, error) {
	if !filepath.IsAbs(b.path) {
		return nil, fmt.Errorf("database path must be absolute: %s: %w", b.path, errors.ErrInvalidPath)
	}

	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return map[string]*model.InstalledPackage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read database file: %w", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse database: %w", err)
	}

	records := make(map[string]*model.InstalledPackage, len(doc.Packages))
	for _, ip := range doc.Packages {
		records[ip.Name()] = ip
	}
	return records, nil
}

// Persist writes records to a temporary file and renames it over the state file.
func (b *JSONBackend) Persist(_ context.Context, records map[string]*model.InstalledPackage) error {
	if !filepath.IsAbs(b.path) {
		return fmt.Errorf("database path must be absolute: %s: %w", b.path, errors.ErrInvalidPath)
	}

	doc := jsonDocument{
		FormatVersion: FormatVersion,
		LastUpdate:    time.Now().UTC(),
		Packages:      sortedRecords(records),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database to JSON: %w", err)
	}

	if err := fsutil.EnsureFileDir(b.path); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(b.path, data, fsutil.FileModeDefault)
}

// Probe checks that the state directory accepts new files.
func (b *JSONBackend) Probe(_ context.Context) error {
	if err := fsutil.EnsureFileDir(b.path); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(b.path), ".zpkg-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
