//go:generate mockgen -destination=./mocks/orchestrator.go . Catalog

package orchestrator

import (
	"context"
	"time"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
	"github.com/glorpus-work/zpkg/pkg/platform"
	"github.com/glorpus-work/zpkg/pkg/registry"
)

// Catalog is the subset of the source registry used by the orchestrator.
type Catalog interface {
	Packages() []*model.Package
	Sources() []model.PackageSource
	Refresh(ctx context.Context) (registry.RefreshResult, error)
	AddSource(ctx context.Context, name, location string) ([]*model.Package, error)
	RemoveSource(name string) error
}

// VersionResolver picks versions and detects stale installs.
type VersionResolver interface {
	Resolve(ctx context.Context, pkg *model.Package, requested string) (model.Selection, error)
	CheckOutdated(ctx context.Context, ip *model.InstalledPackage) (bool, error)
}

// ContentFetcher retrieves package trees and their version references.
type ContentFetcher interface {
	FetchContent(ctx context.Context, pkg *model.Package, sel model.Selection, dir string) error
	ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error)
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|fetching|validating|installing|removing|done|error
	ID    string // package reference the event belongs to
	Msg   string
}

// Hooks carries callbacks for progress events. OnEvent is called from batch
// workers concurrently.
type Hooks struct {
	OnEvent func(Event)
}

// ChannelHooks forwards every event to ch until ctx is done; later events
// are dropped. The caller keeps draining ch until it cancels ctx.
func ChannelHooks(ctx context.Context, ch chan<- Event) Hooks {
	return Hooks{OnEvent: func(e Event) {
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	}}
}

// Action names the operation a Result belongs to.
type Action string

// Orchestrator actions.
const (
	ActionInstall Action = "install"
	ActionRemove  Action = "remove"
	ActionUpgrade Action = "upgrade"
	ActionPin     Action = "pin"
	ActionUnpin   Action = "unpin"
	ActionLoad    Action = "load"
	ActionUnload  Action = "unload"
)

// Result is the outcome of one package operation.
type Result struct {
	Ref    string `json:"ref"`
	Action Action `json:"action"`
	// Package is the resulting record. It is nil on failure and after a removal.
	Package *model.InstalledPackage `json:"package,omitempty"`
	// Previous is the version label installed before the operation, if any.
	Previous string `json:"previous,omitempty"`
	// Changed is false for successful operations that had nothing to do.
	Changed bool  `json:"changed"`
	Err     error `json:"-"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind returns the error label of the result, "ok" on success.
func (r Result) Kind() string {
	return errors.Kind(r.Err)
}

// InstallRequest names a package and an optional version.
type InstallRequest struct {
	Ref     string
	Version string
}

// InstallOptions control orchestrator install execution.
type InstallOptions struct {
	// Load adds the installed packages to the auto-load set.
	Load bool
	// DryRun resolves identity and version without fetching anything.
	DryRun bool
}

// Options control orchestrator execution.
type Options struct {
	InstallDir       string
	StagingDir       string
	Concurrency      int
	OperationTimeout time.Duration
	// Platform is checked against each manifest's platforms list. The zero
	// value means the running platform.
	Platform platform.Platform
}

// PackageFailure records a package whose staleness could not be checked.
type PackageFailure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// RefreshReport is the outcome of Refresh.
type RefreshReport struct {
	registry.RefreshResult
	// Outdated lists installed packages that have a newer version.
	Outdated []string `json:"outdated"`
	// CheckFailures lists installed packages whose versions could not be listed.
	CheckFailures []PackageFailure `json:"check_failures,omitempty"`
}

// ListFilter selects packages for List.
type ListFilter string

// List filters.
const (
	FilterAll          ListFilter = "all"
	FilterInstalled    ListFilter = "installed"
	FilterNotInstalled ListFilter = "not-installed"
	FilterLoaded       ListFilter = "loaded"
	FilterUnloaded     ListFilter = "unloaded"
	FilterOutdated     ListFilter = "outdated"
	FilterPinned       ListFilter = "pinned"
)

// Filters lists every valid ListFilter.
var Filters = []ListFilter{
	FilterAll, FilterInstalled, FilterNotInstalled, FilterLoaded,
	FilterUnloaded, FilterOutdated, FilterPinned,
}

// Entry pairs an advertised package with its installed record, if any.
// Installed packages that no source advertises have only Installed set,
// with Package pointing at the recorded package.
type Entry struct {
	Package   *model.Package          `json:"package"`
	Installed *model.InstalledPackage `json:"installed,omitempty"`
}

// Info describes one package in detail.
type Info struct {
	Entry
	Refs    *model.VersionRefs `json:"refs,omitempty"`
	RefsErr error              `json:"-"`
}
