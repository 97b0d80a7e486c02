package cache

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
)

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	directory string
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// NewDefaultManager creates a new cache manager with default directory.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}

	if err := os.MkdirAll(cacheDir, fsutil.DirModePrivate); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory")
	}

	return NewManager(cacheDir), nil
}

// IndexDir returns the directory holding cached source indexes.
func (cm *DefaultManager) IndexDir() string {
	return filepath.Join(cm.directory, fsutil.IndexCacheDirName)
}

// StagingDir returns the directory holding staging workspaces and downloads.
func (cm *DefaultManager) StagingDir() string {
	return filepath.Join(cm.directory, fsutil.StagingDirName)
}

// Clean removes cached files according to the specified options. Without
// any option set everything is cleaned.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	if !options.Indexes && !options.Staging {
		options.All = true
	}

	if options.All || options.Indexes {
		size, err := cleanDirectory(cm.IndexDir())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCacheClean, err.Error())
		}
		result.IndexFreed = size
		result.TotalFreed += size
	}

	if options.All || options.Staging {
		size, err := cleanDirectory(cm.StagingDir())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCacheClean, err.Error())
		}
		result.StagingFreed = size
		result.TotalFreed += size
	}

	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}

	indexSize, indexFiles, err := fsutil.DirSize(cm.IndexDir())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCacheInfo, err.Error())
	}
	info.IndexSize = indexSize
	info.IndexFiles = indexFiles

	stagingSize, stagingFiles, err := fsutil.DirSize(cm.StagingDir())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCacheInfo, err.Error())
	}
	info.StagingSize = stagingSize
	info.StagingFiles = stagingFiles

	info.TotalSize = info.IndexSize + info.StagingSize
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return errors.ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

// cleanDirectory empties dir and returns the bytes freed.
func cleanDirectory(dir string) (int64, error) {
	size, _, err := fsutil.DirSize(dir)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
			return 0, nil
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, errors.Wrapf(err, "failed to remove directory %s", dir)
	}
	if err := os.MkdirAll(dir, fsutil.DirModePrivate); err != nil {
		return size, errors.Wrapf(err, "failed to recreate directory %s", dir)
	}
	return size, nil
}
