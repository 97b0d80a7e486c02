package registry

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
	"github.com/glorpus-work/zpkg/pkg/transport"
)

var sourceNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Snapshot is an immutable view of every package known from the sources.
type Snapshot struct {
	bySource map[string][]*model.Package
	updated  map[string]time.Time
	packages []*model.Package
}

func newSnapshot(bySource map[string][]*model.Package, updated map[string]time.Time) *Snapshot {
	var all []*model.Package
	for _, pkgs := range bySource {
		all = append(all, pkgs...)
	}
	model.SortPackages(all)
	return &Snapshot{bySource: bySource, updated: updated, packages: all}
}

// Packages returns every package ordered by qualified name. The slice must
// not be modified.
func (s *Snapshot) Packages() []*model.Package {
	return s.packages
}

// Find returns the package with the given qualified name.
func (s *Snapshot) Find(qualifiedName string) (*model.Package, bool) {
	i, ok := slices.BinarySearchFunc(s.packages, qualifiedName, func(p *model.Package, name string) int {
		switch qn := p.QualifiedName(); {
		case qn < name:
			return -1
		case qn > name:
			return 1
		}
		return 0
	})
	if !ok {
		return nil, false
	}
	return s.packages[i], true
}

func (s *Snapshot) names() map[string]struct{} {
	out := make(map[string]struct{}, len(s.packages))
	for _, p := range s.packages {
		out[p.QualifiedName()] = struct{}{}
	}
	return out
}

// Registry owns the configured sources and the current snapshot. Readers
// always see a complete snapshot, either the old or the new one.
type Registry struct {
	fetcher     IndexFetcher
	cacheDir    string
	concurrency int

	mu        sync.Mutex // guards sources and serialises snapshot writers
	sources   []model.PackageSource
	snapshot  atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
	now       func() time.Time
}

// New creates a registry for sources and loads their cached indexes from
// cacheDir. A missing or unreadable cache file leaves that source empty until
// the next refresh.
func New(fetcher IndexFetcher, cacheDir string, sources []model.PackageSource, concurrency int) (*Registry, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	r := &Registry{fetcher: fetcher, cacheDir: cacheDir, concurrency: concurrency, now: time.Now}

	bySource := map[string][]*model.Package{}
	updated := map[string]time.Time{}
	for _, src := range sources {
		if err := r.validate(src.Name, src.Location); err != nil {
			return nil, err
		}
		r.sources = append(r.sources, src)

		idx, err := ParseIndexFromFile(IndexPath(cacheDir, src.Name))
		switch {
		case err == nil:
			bySource[src.Name] = idx.Packages
			updated[src.Name] = idx.LastUpdate
		case !os.IsNotExist(err):
			logger.Warn("Ignoring unreadable index cache", logger.Fields{"source": src.Name, "error": err.Error()})
		}
	}
	r.snapshot.Store(newSnapshot(bySource, updated))
	return r, nil
}

// validate checks name and location syntax and uniqueness. Callers hold mu
// or own r exclusively.
func (r *Registry) validate(name, location string) error {
	if !sourceNamePattern.MatchString(name) {
		return errors.Wrapf(errors.ErrInvalidSource, "invalid source name %q", name)
	}
	if err := transport.ValidateLocation(location); err != nil {
		return err
	}
	for _, s := range r.sources {
		if s.Name == name {
			return fmt.Errorf("%w: %s", errors.ErrSourceExists, name)
		}
	}
	return nil
}

// Snapshot returns the current snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Packages returns every known package ordered by qualified name.
func (r *Registry) Packages() []*model.Package {
	return r.Snapshot().Packages()
}

// Sources returns the sources in configuration order.
func (r *Registry) Sources() []model.PackageSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.sources)
}

// SourceInfos reports every source with the size and age of its index.
func (r *Registry) SourceInfos() []SourceInfo {
	snap := r.Snapshot()
	sources := r.Sources()
	out := make([]SourceInfo, 0, len(sources))
	for _, s := range sources {
		out = append(out, SourceInfo{
			PackageSource: s,
			Packages:      len(snap.bySource[s.Name]),
			LastUpdate:    snap.updated[s.Name],
		})
	}
	return out
}

// CacheAge returns how long ago the named source was last fetched.
func (r *Registry) CacheAge(name string) (time.Duration, error) {
	if !r.hasSource(name) {
		return -1, fmt.Errorf("%w: %s", errors.ErrSourceNotFound, name)
	}
	updated, ok := r.Snapshot().updated[name]
	if !ok || updated.IsZero() {
		return -1, nil
	}
	return r.now().Sub(updated), nil
}

// IsCacheStale reports whether the named source has no index or one older than ttl.
func (r *Registry) IsCacheStale(name string, ttl time.Duration) bool {
	age, err := r.CacheAge(name)
	return err != nil || age < 0 || age > ttl
}

func (r *Registry) hasSource(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// AddSource registers a new source. The location is probed by fetching its
// index; an unreachable source is not added.
func (r *Registry) AddSource(ctx context.Context, name, location string) ([]*model.Package, error) {
	src := model.PackageSource{Name: name, Location: location}

	r.mu.Lock()
	err := r.validate(name, location)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	pkgs, err := r.fetcher.FetchIndex(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidSource, location, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.validate(name, location); err != nil {
		return nil, err
	}
	now := r.now()
	r.storeCache(src, pkgs, now)
	r.sources = append(r.sources, src)

	prev := r.snapshot.Load()
	bySource, updated := prev.copyMaps()
	bySource[name] = pkgs
	updated[name] = now
	r.snapshot.Store(newSnapshot(bySource, updated))

	logger.Debug("Added source", logger.Fields{"source": name, "packages": len(pkgs)})
	return pkgs, nil
}

// RemoveSource unregisters a source and drops its packages from the snapshot.
func (r *Registry) RemoveSource(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.sources, func(s model.PackageSource) bool { return s.Name == name })
	if i < 0 {
		return fmt.Errorf("%w: %s", errors.ErrSourceNotFound, name)
	}
	r.sources = slices.Delete(r.sources, i, i+1)

	prev := r.snapshot.Load()
	bySource, updated := prev.copyMaps()
	delete(bySource, name)
	delete(updated, name)
	r.snapshot.Store(newSnapshot(bySource, updated))

	if err := os.Remove(IndexPath(r.cacheDir, name)); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove index cache", logger.Fields{"source": name, "error": err.Error()})
	}
	return nil
}

type fetchResult struct {
	pkgs []*model.Package
	err  error
}

// Refresh fetches every source's index, swaps in the new snapshot and
// reports what changed. Sources that fail keep their previous entries.
// Refreshing twice without upstream changes yields an empty diff.
func (r *Registry) Refresh(ctx context.Context) (RefreshResult, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	sources := r.Sources()
	results := make([]fetchResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			pkgs, err := r.fetcher.FetchIndex(gctx, src)
			results[i] = fetchResult{pkgs: pkgs, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return RefreshResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.snapshot.Load()
	bySource, updated := prev.copyMaps()
	var res RefreshResult
	now := r.now()
	for i, src := range sources {
		if !slices.ContainsFunc(r.sources, func(s model.PackageSource) bool { return s.Name == src.Name }) {
			continue // removed while fetching
		}
		if err := results[i].err; err != nil {
			logger.Warn("Source refresh failed", logger.Fields{"source": src.Name, "error": err.Error()})
			res.Failures = append(res.Failures, SourceFailure{Source: src.Name, Err: err})
			continue
		}
		bySource[src.Name] = results[i].pkgs
		updated[src.Name] = now
		r.storeCache(src, results[i].pkgs, now)
	}

	next := newSnapshot(bySource, updated)
	res.Diff = diff(prev, next)
	r.snapshot.Store(next)

	logger.Debug("Refreshed sources", logger.Fields{
		"sources": len(sources), "failed": len(res.Failures),
		"added": len(res.Diff.Added), "removed": len(res.Diff.Removed),
	})
	return res, nil
}

func (r *Registry) storeCache(src model.PackageSource, pkgs []*model.Package, now time.Time) {
	if r.cacheDir == "" {
		return
	}
	idx := &Index{
		FormatVersion: CacheFormatVersion,
		LastUpdate:    now,
		Source:        src.Name,
		Location:      src.Location,
		Packages:      pkgs,
	}
	if err := WriteIndexToFile(idx, IndexPath(r.cacheDir, src.Name)); err != nil {
		logger.Warn("Failed to write index cache", logger.Fields{"source": src.Name, "error": err.Error()})
	}
}

func (s *Snapshot) copyMaps() (map[string][]*model.Package, map[string]time.Time) {
	bySource := make(map[string][]*model.Package, len(s.bySource))
	for k, v := range s.bySource {
		bySource[k] = v
	}
	updated := make(map[string]time.Time, len(s.updated))
	for k, v := range s.updated {
		updated[k] = v
	}
	return bySource, updated
}

func diff(prev, next *Snapshot) Diff {
	before, after := prev.names(), next.names()
	var d Diff
	for name := range after {
		if _, ok := before[name]; !ok {
			d.Added = append(d.Added, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			d.Removed = append(d.Removed, name)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d
}
