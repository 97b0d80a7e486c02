package cache

import (
	"fmt"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
)

// Operation renders cache management results for the command line.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{
		manager: manager,
	}
}

// Clean cleans the cache based on the provided options.
func (op *Operation) Clean(all, indexes, staging bool) (string, error) {
	options := CleanOptions{
		All:     all,
		Indexes: indexes,
		Staging: staging,
	}

	logger.Debug("Cleaning cache", logger.Fields{
		"all":     options.All,
		"indexes": options.Indexes,
		"staging": options.Staging,
	})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", err
	}

	if result.TotalFreed == 0 {
		return "No files were removed from the cache.", nil
	}
	msg := fmt.Sprintf("Successfully cleaned cache. Freed %s of disk space.", FormatBytes(result.TotalFreed))
	if result.IndexFreed > 0 {
		msg += fmt.Sprintf("\n- Indexes: %s", FormatBytes(result.IndexFreed))
	}
	if result.StagingFreed > 0 {
		msg += fmt.Sprintf("\n- Staging: %s", FormatBytes(result.StagingFreed))
	}
	return msg, nil
}

// GetInfo returns information about the cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Cache Information:
  Directory:  %s
  Total Size: %s
  Indexes:    %s (%d files)
  Staging:    %s (%d files)`,
		info.Directory,
		FormatBytes(info.TotalSize),
		FormatBytes(info.IndexSize),
		info.IndexFiles,
		FormatBytes(info.StagingSize),
		info.StagingFiles,
	), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// SetDirectory sets a new cache directory.
func (op *Operation) SetDirectory(dir string) error {
	if dir == "" {
		return errors.ErrCacheDirectory
	}

	logger.Debug("Setting cache directory", logger.Fields{"directory": dir})
	return op.manager.SetDirectory(dir)
}

// FormatBytes converts bytes to a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
