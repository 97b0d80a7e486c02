//go:generate mockgen -destination=./mocks/cache.go . Manager

// Package cache inspects and cleans the zpkg cache directory: cached source
// indexes and the staging area used while fetching packages.
package cache

// Manager defines the interface for cache management operations.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to clean from the cache.
type CleanOptions struct {
	All     bool
	Indexes bool
	Staging bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed   int64 `json:"total_freed"`
	IndexFreed   int64 `json:"index_freed"`
	StagingFreed int64 `json:"staging_freed"`
}

// Info represents cache information.
type Info struct {
	Directory    string `json:"directory"`
	TotalSize    int64  `json:"total_size"`
	IndexSize    int64  `json:"index_size"`
	IndexFiles   int    `json:"index_files"`
	StagingSize  int64  `json:"staging_size"`
	StagingFiles int    `json:"staging_files"`
}
