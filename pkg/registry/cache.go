package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// CacheFormatVersion is written into every cached index file.
const CacheFormatVersion = "1"

// Index is the cached package list of one source.
type Index struct {
	FormatVersion string           `json:"format_version"`
	LastUpdate    time.Time        `json:"last_update"`
	Source        string           `json:"source"`
	Location      string           `json:"location"`
	Packages      []*model.Package `json:"packages"`
}

// IndexPath returns the cache file of the named source below dir.
func IndexPath(dir, source string) string {
	return filepath.Join(dir, source+".json")
}

// ParseIndexFromFile reads a cached index.
func ParseIndexFromFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", path, err)
	}
	return &idx, nil
}

// WriteIndexToFile stores idx atomically.
func WriteIndexToFile(idx *Index, path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := fsutil.EnsureFileDir(path); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, fsutil.FileModeDefault)
}
