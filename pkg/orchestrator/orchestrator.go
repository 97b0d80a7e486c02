// Package orchestrator drives package lifecycle operations: it resolves
// references against the source registry, picks versions, fetches and
// promotes package trees and records the result in the installed package
// store. Batches run concurrently with per-package isolation.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/database"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/hook"
	"github.com/glorpus-work/zpkg/pkg/identity"
	"github.com/glorpus-work/zpkg/pkg/loader"
	"github.com/glorpus-work/zpkg/pkg/model"
	"github.com/glorpus-work/zpkg/pkg/platform"
)

// DefaultOperationTimeout bounds a single package operation when Options
// leaves it unset.
const DefaultOperationTimeout = 5 * time.Minute

// Orchestrator ties the registry, version resolver, transport and store
// together. Scripts, Loader and Hooks are optional.
type Orchestrator struct {
	Catalog  Catalog
	Versions VersionResolver
	Fetcher  ContentFetcher
	Store    *database.Store
	Scripts  hook.Runner
	Loader   *loader.Writer
	Hooks    Hooks // Hooks for progress and event notifications

	opts     Options
	locks    nameLocks
	loaderMu sync.Mutex
}

// New constructs an Orchestrator from existing managers.
func New(catalog Catalog, versions VersionResolver, fetcher ContentFetcher, store *database.Store, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = DefaultOperationTimeout
	}
	if opts.Platform == (platform.Platform{}) {
		opts.Platform = platform.Current()
	}
	return &Orchestrator{
		Catalog:  catalog,
		Versions: versions,
		Fetcher:  fetcher,
		Store:    store,
		opts:     opts,
		locks:    nameLocks{held: map[string]*nameLock{}},
	}
}

func (o *Orchestrator) emit(e Event) {
	if o.Hooks.OnEvent != nil {
		o.Hooks.OnEvent(e)
	}
}

// runBatch runs op for every reference concurrently and returns the results
// in request order.
func (o *Orchestrator) runBatch(ctx context.Context, action Action, refs []string, op func(ctx context.Context, i int) Result) []Result {
	results := make([]Result, len(refs))
	g := new(errgroup.Group)
	g.SetLimit(o.opts.Concurrency)
	for i := range refs {
		g.Go(func() error {
			results[i] = o.bounded(ctx, action, refs[i], func(ctx context.Context) Result { return op(ctx, i) })
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// bounded runs op under the operation timeout. When the deadline passes
// before op starts committing, the result is ErrTimeout even if op is still
// blocked, and op is refused any later commit. Once op has started
// committing, bounded waits for its real result.
func (o *Orchestrator) bounded(ctx context.Context, action Action, ref string, op func(ctx context.Context) Result) Result {
	ctx, cancel := context.WithTimeout(ctx, o.opts.OperationTimeout)
	defer cancel()
	guard := &commitGuard{}
	ctx = context.WithValue(ctx, commitGuardKey{}, guard)

	done := make(chan Result, 1)
	go func() { done <- op(ctx) }()

	var res Result
	select {
	case res = <-done:
	case <-ctx.Done():
		if guard.expire() {
			res = Result{Err: ctx.Err()}
		} else {
			res = <-done
		}
	}
	res.Ref, res.Action = ref, action

	if res.Err != nil && errors.Is(res.Err, context.DeadlineExceeded) && !errors.Is(res.Err, errors.ErrTimeout) {
		res.Err = fmt.Errorf("%w: %s after %s", errors.ErrTimeout, ref, o.opts.OperationTimeout)
	}
	if res.Err != nil {
		res.Package = nil
		o.emit(Event{Phase: "error", ID: ref, Msg: res.Err.Error()})
		logger.Debug("Package operation failed", logger.Fields{"action": string(action), "ref": ref, "error": res.Err.Error()})
	} else {
		o.emit(Event{Phase: "done", ID: ref, Msg: string(action)})
	}
	return res
}

type commitGuardKey struct{}

// commitGuard settles the race between a committing operation and its
// deadline: whichever of begin and expire runs first wins.
type commitGuard struct {
	mu    sync.Mutex
	state int
}

const (
	guardOpen = iota
	guardCommitting
	guardExpired
)

func (g *commitGuard) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == guardExpired {
		return false
	}
	g.state = guardCommitting
	return true
}

func (g *commitGuard) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == guardCommitting {
		return false
	}
	g.state = guardExpired
	return true
}

// commit runs fn, which persists the outcome of an operation, unless the
// operation has already been reported as timed out. fn runs to completion
// with a context that is no longer canceled by the deadline, so it must not
// block on the network.
func (o *Orchestrator) commit(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g, ok := ctx.Value(commitGuardKey{}).(*commitGuard); ok && !g.begin() {
		return context.DeadlineExceeded
	}
	return fn(context.WithoutCancel(ctx))
}

// resolveKnown resolves ref against the advertised packages.
func (o *Orchestrator) resolveKnown(ref string) (*model.Package, error) {
	return identity.Resolve(identity.Canonicalize(ref), o.Catalog.Packages())
}

// resolveInstalled resolves ref against installed records. Installed
// packages match even when their source no longer advertises them.
func (o *Orchestrator) resolveInstalled(ref string) (*model.InstalledPackage, error) {
	ip, err := identity.ResolveInstalled(identity.Canonicalize(ref), o.Store.All())
	if errors.Is(err, errors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotInstalled, ref)
	}
	return ip, err
}

// writeLoadFile regenerates the auto-load file from the store.
func (o *Orchestrator) writeLoadFile() {
	if o.Loader == nil {
		return
	}
	o.loaderMu.Lock()
	defer o.loaderMu.Unlock()
	if err := o.Loader.Write(o.Store.All()); err != nil {
		logger.Warn("Failed to write load file", logger.Fields{"path": o.Loader.Path(), "error": err.Error()})
	}
}

// nameLocks serializes operations per qualified name.
type nameLocks struct {
	mu   sync.Mutex
	held map[string]*nameLock
}

type nameLock struct {
	ch   chan struct{}
	refs int
}

// lock acquires the lock of name or gives up when ctx is done.
func (l *nameLocks) lock(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	nl, ok := l.held[name]
	if !ok {
		nl = &nameLock{ch: make(chan struct{}, 1)}
		l.held[name] = nl
	}
	nl.refs++
	l.mu.Unlock()

	release := func() {
		l.mu.Lock()
		nl.refs--
		if nl.refs == 0 {
			delete(l.held, name)
		}
		l.mu.Unlock()
	}

	select {
	case nl.ch <- struct{}{}:
		return func() {
			<-nl.ch
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}
