//go:generate mockgen -destination=./mocks/registry.go . IndexFetcher

// Package registry keeps the configured package sources and the snapshot of
// packages their indexes advertise.
package registry

import (
	"context"
	"time"

	"github.com/glorpus-work/zpkg/pkg/model"
)

// IndexFetcher fetches the package list of one source.
type IndexFetcher interface {
	FetchIndex(ctx context.Context, source model.PackageSource) ([]*model.Package, error)
}

// Diff lists qualified names that appeared or disappeared in a refresh.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// SourceFailure records a source whose index could not be fetched.
type SourceFailure struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

// Error implements error.
func (f SourceFailure) Error() string {
	return f.Source + ": " + f.Err.Error()
}

// Unwrap returns the underlying error.
func (f SourceFailure) Unwrap() error { return f.Err }

// RefreshResult is the outcome of Refresh. Failed sources keep their previous
// entries in the snapshot.
type RefreshResult struct {
	Diff     Diff            `json:"diff"`
	Failures []SourceFailure `json:"failures,omitempty"`
}

// Partial reports whether at least one source failed.
func (r RefreshResult) Partial() bool {
	return len(r.Failures) > 0
}

// SourceInfo describes a configured source and its cached index.
type SourceInfo struct {
	model.PackageSource
	Packages   int       `json:"packages"`
	LastUpdate time.Time `json:"last_update"`
}
