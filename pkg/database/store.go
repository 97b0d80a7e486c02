package database

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// Store is the in-memory authority over installed packages. Every mutation
// is persisted before it becomes visible; a failed persist leaves the
// previous state in place.
type Store struct {
	backend Backend
	rwMutex sync.RWMutex
	records map[string]*model.InstalledPackage
	now     func() time.Time
}

// Open loads the store from backend. Failure to read or write the backend
// is reported as ErrStateUnwritable.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	if p, ok := backend.(Prober); ok {
		if err := p.Probe(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrStateUnwritable, err)
		}
	}

	records, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStateUnwritable, err)
	}
	if records == nil {
		records = map[string]*model.InstalledPackage{}
	}

	logger.Debug("Loaded installed package state", logger.Fields{"packages": len(records)})
	return &Store{backend: backend, records: records, now: time.Now}, nil
}

// Find returns a copy of the record stored under name.
func (s *Store) Find(name string) (*model.InstalledPackage, bool) {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()

	ip, ok := s.records[name]
	if !ok {
		return nil, false
	}
	return ip.Clone(), true
}

// All returns copies of every record ordered by qualified name.
func (s *Store) All() []*model.InstalledPackage {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()

	out := sortedRecords(s.records)
	for i, ip := range out {
		out[i] = ip.Clone()
	}
	return out
}

// Len returns the number of installed packages.
func (s *Store) Len() int {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	return len(s.records)
}

// Upsert creates or replaces the record of ip.
func (s *Store) Upsert(ctx context.Context, ip *model.InstalledPackage) error {
	rec := ip.Clone()
	now := s.now()
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = now
	}
	rec.UpdatedAt = now

	return s.commit(ctx, func(next map[string]*model.InstalledPackage) error {
		next[rec.Name()] = rec
		return nil
	})
}

// Remove deletes the record stored under name.
func (s *Store) Remove(ctx context.Context, name string) error {
	return s.commit(ctx, func(next map[string]*model.InstalledPackage) error {
		if _, ok := next[name]; !ok {
			return fmt.Errorf("%w: %s", errors.ErrNotInstalled, name)
		}
		delete(next, name)
		return nil
	})
}

// Update applies fn to a copy of the record stored under name and persists
// the result. fn returning an error aborts the update.
func (s *Store) Update(ctx context.Context, name string, fn func(ip *model.InstalledPackage) error) (*model.InstalledPackage, error) {
	var updated *model.InstalledPackage
	err := s.commit(ctx, func(next map[string]*model.InstalledPackage) error {
		cur, ok := next[name]
		if !ok {
			return fmt.Errorf("%w: %s", errors.ErrNotInstalled, name)
		}
		rec := cur.Clone()
		if err := fn(rec); err != nil {
			return err
		}
		rec.UpdatedAt = s.now()
		next[name] = rec
		updated = rec.Clone()
		return nil
	})
	return updated, err
}

// SetLoaded changes the load state. Setting the current value fails with
// ErrAlreadyLoaded or ErrNotLoaded.
func (s *Store) SetLoaded(ctx context.Context, name string, loaded bool) (*model.InstalledPackage, error) {
	return s.Update(ctx, name, func(ip *model.InstalledPackage) error {
		switch {
		case loaded && ip.Status.IsLoaded:
			return fmt.Errorf("%w: %s", errors.ErrAlreadyLoaded, name)
		case !loaded && !ip.Status.IsLoaded:
			return fmt.Errorf("%w: %s", errors.ErrNotLoaded, name)
		}
		ip.Status.IsLoaded = loaded
		return nil
	})
}

// SetPinned changes the pin state. When pinning with a selection the
// installed version and hash are replaced by it. Pinning never leaves a
// package outdated.
func (s *Store) SetPinned(ctx context.Context, name string, pinned bool, sel *model.Selection) (*model.InstalledPackage, error) {
	return s.Update(ctx, name, func(ip *model.InstalledPackage) error {
		switch {
		case pinned && ip.Status.IsPinned && sel == nil:
			return fmt.Errorf("%w: %s", errors.ErrAlreadyPinned, name)
		case !pinned && !ip.Status.IsPinned:
			return fmt.Errorf("%w: %s", errors.ErrNotPinned, name)
		}
		ip.Status.IsPinned = pinned
		if pinned {
			ip.Status.IsOutdated = false
		}
		if sel != nil {
			ip.Status.CurrentVersion = sel.Label
			ip.Status.CurrentHash = sel.Hash
			ip.Status.VersionKind = sel.Kind
		}
		return nil
	})
}

// SetOutdated records the result of a staleness check.
func (s *Store) SetOutdated(ctx context.Context, name string, outdated bool) (*model.InstalledPackage, error) {
	return s.Update(ctx, name, func(ip *model.InstalledPackage) error {
		ip.Status.IsOutdated = outdated && !ip.Status.IsPinned
		return nil
	})
}

// commit applies mutate to a copy of the record map, persists the copy and
// swaps it in only on success.
func (s *Store) commit(ctx context.Context, mutate func(next map[string]*model.InstalledPackage) error) error {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	next := maps.Clone(s.records)
	if err := mutate(next); err != nil {
		return err
	}
	if err := s.backend.Persist(ctx, next); err != nil {
		return fmt.Errorf("failed to persist installed packages: %w", err)
	}
	s.records = next
	return nil
}

func sortedRecords(records map[string]*model.InstalledPackage) []*model.InstalledPackage {
	out := make([]*model.InstalledPackage, 0, len(records))
	for _, ip := range records {
		out = append(out, ip)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
