package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/hook"
	"github.com/glorpus-work/zpkg/pkg/manifest"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// directDirName holds packages installed straight from a URL.
const directDirName = "_direct"

// Install installs every request concurrently. An explicit version pins the
// package; without one, an installed package fails with ErrAlreadyInstalled.
func (o *Orchestrator) Install(ctx context.Context, reqs []InstallRequest, opts InstallOptions) []Result {
	refs := make([]string, len(reqs))
	for i, r := range reqs {
		refs[i] = r.Ref
	}
	return o.runBatch(ctx, ActionInstall, refs, func(ctx context.Context, i int) Result {
		return o.install(ctx, reqs[i], opts)
	})
}

func (o *Orchestrator) install(ctx context.Context, req InstallRequest, opts InstallOptions) Result {
	o.emit(Event{Phase: "resolving", ID: req.Ref})
	pkg, err := o.resolveKnown(req.Ref)
	if err != nil {
		return Result{Err: err}
	}

	unlock, err := o.locks.lock(ctx, pkg.QualifiedName())
	if err != nil {
		return Result{Err: err}
	}
	defer unlock()

	existing, installed := o.Store.Find(pkg.QualifiedName())
	if installed && req.Version == "" {
		return Result{Package: existing, Err: fmt.Errorf("%w: %s", errors.ErrAlreadyInstalled, pkg.QualifiedName())}
	}
	if !installed {
		existing = nil
	}
	return o.installLocked(ctx, pkg, existing, req.Version, opts)
}

// installLocked installs pkg at version while holding its name lock.
// existing is the current record or nil.
func (o *Orchestrator) installLocked(ctx context.Context, pkg *model.Package, existing *model.InstalledPackage, version string, opts InstallOptions) Result {
	name := pkg.QualifiedName()
	sel, err := o.Versions.Resolve(ctx, pkg, version)
	if err != nil {
		return Result{Err: err}
	}

	pinned := version != ""
	previous := ""
	rec := &model.InstalledPackage{
		Package:     *pkg.Clone(),
		InstallPath: o.installPath(pkg),
		Status: model.Status{
			CurrentVersion: sel.Label,
			CurrentHash:    sel.Hash,
			VersionKind:    sel.Kind,
			IsPinned:       pinned,
			IsLoaded:       opts.Load,
		},
	}
	if existing != nil {
		previous = existing.Status.CurrentVersion
		rec.InstalledAt = existing.InstalledAt
		rec.Status.IsLoaded = rec.Status.IsLoaded || existing.Status.IsLoaded
		rec.Status.IsPinned = rec.Status.IsPinned || existing.Status.IsPinned

		// Same content: only the version bookkeeping changes.
		if sel.Hash == existing.Status.CurrentHash && !opts.DryRun {
			return o.repin(ctx, existing, sel, rec.Status.IsPinned, opts.Load)
		}
	}

	if opts.DryRun {
		return Result{Package: rec, Previous: previous}
	}

	saved, err := o.deploy(ctx, rec, sel)
	if err != nil {
		return Result{Err: err}
	}
	if saved.Status.IsLoaded {
		o.writeLoadFile()
	}
	logger.Debug("Installed package", logger.Fields{"package": name, "version": sel.Label, "hash": sel.Hash})
	return Result{Package: saved, Previous: previous, Changed: true}
}

func (o *Orchestrator) repin(ctx context.Context, existing *model.InstalledPackage, sel model.Selection, pinned, load bool) Result {
	changed := false
	var updated *model.InstalledPackage
	err := o.commit(ctx, func(ctx context.Context) error {
		var err error
		updated, err = o.Store.Update(ctx, existing.Name(), func(ip *model.InstalledPackage) error {
			changed = ip.Status.IsPinned != pinned ||
				ip.Status.CurrentVersion != sel.Label ||
				(load && !ip.Status.IsLoaded)
			ip.Status.IsPinned = pinned
			ip.Status.CurrentVersion = sel.Label
			ip.Status.VersionKind = sel.Kind
			if pinned {
				ip.Status.IsOutdated = false
			}
			if load {
				ip.Status.IsLoaded = true
			}
			return nil
		})
		return err
	})
	if err != nil {
		return Result{Err: err}
	}
	if load {
		o.writeLoadFile()
	}
	return Result{Package: updated, Previous: existing.Status.CurrentVersion, Changed: changed}
}

// Upgrade moves every named package to its newest version. Without
// references all unpinned installed packages are upgraded.
func (o *Orchestrator) Upgrade(ctx context.Context, refs []string) []Result {
	if len(refs) == 0 {
		// Installed names are exact store keys and skip reference resolution.
		var names []string
		for _, ip := range o.Store.All() {
			if !ip.Status.IsPinned {
				names = append(names, ip.Name())
			}
		}
		return o.runBatch(ctx, ActionUpgrade, names, func(ctx context.Context, i int) Result {
			return o.withInstalledName(ctx, names[i], func(ip *model.InstalledPackage) Result {
				return o.upgradeLocked(ctx, ip)
			})
		})
	}
	return o.runBatch(ctx, ActionUpgrade, refs, func(ctx context.Context, i int) Result {
		return o.upgrade(ctx, refs[i])
	})
}

func (o *Orchestrator) upgrade(ctx context.Context, ref string) Result {
	o.emit(Event{Phase: "resolving", ID: ref})
	return o.withInstalled(ctx, ref, func(ip *model.InstalledPackage) Result {
		return o.upgradeLocked(ctx, ip)
	})
}

func (o *Orchestrator) upgradeLocked(ctx context.Context, ip *model.InstalledPackage) Result {
	if ip.Status.IsPinned {
		return Result{Err: fmt.Errorf("%w: %s is pinned at %s", errors.ErrPinnedConflict, ip.Name(), ip.Status.CurrentVersion)}
	}

	pkg := o.currentPackage(ip)
	sel, err := o.Versions.Resolve(ctx, pkg, "")
	if err != nil {
		return Result{Err: err}
	}
	if sel.Hash == ip.Status.CurrentHash {
		if ip.Status.IsOutdated {
			var updated *model.InstalledPackage
			err := o.commit(ctx, func(ctx context.Context) error {
				var err error
				updated, err = o.Store.SetOutdated(ctx, ip.Name(), false)
				return err
			})
			if err != nil {
				return Result{Err: err}
			}
			ip = updated
		}
		return Result{Package: ip, Previous: ip.Status.CurrentVersion}
	}

	rec := ip.Clone()
	rec.Package = *pkg
	rec.Status.CurrentVersion = sel.Label
	rec.Status.CurrentHash = sel.Hash
	rec.Status.VersionKind = sel.Kind
	rec.Status.IsOutdated = false

	saved, err := o.deploy(ctx, rec, sel)
	if err != nil {
		return Result{Err: err}
	}
	if saved.Status.IsLoaded {
		o.writeLoadFile()
	}
	logger.Debug("Upgraded package", logger.Fields{"package": ip.Name(), "from": ip.Status.CurrentVersion, "to": sel.Label})
	return Result{Package: saved, Previous: ip.Status.CurrentVersion, Changed: true}
}

// deploy fetches sel into a staging workspace, validates it, runs the
// post-install hook and promotes the tree to rec.InstallPath before
// persisting rec. Any failure leaves the previous tree and record in place.
func (o *Orchestrator) deploy(ctx context.Context, rec *model.InstalledPackage, sel model.Selection) (*model.InstalledPackage, error) {
	name := rec.Name()
	stage := filepath.Join(o.opts.StagingDir, uuid.NewString())
	if err := os.MkdirAll(stage, fsutil.DirModePrivate); err != nil {
		return nil, errors.Wrapf(err, "failed to create staging directory")
	}
	defer func() { _ = os.RemoveAll(stage) }()

	dir := filepath.Join(stage, "content")
	o.emit(Event{Phase: "fetching", ID: name, Msg: sel.Label})
	if err := o.Fetcher.FetchContent(ctx, &rec.Package, sel, dir); err != nil {
		return nil, err
	}

	o.emit(Event{Phase: "validating", ID: name})
	man, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := man.Supports(o.opts.Platform); err != nil {
		return nil, err
	}
	man.Apply(&rec.Package)
	rec.ScriptDir = man.ScriptDir

	if man.Hooks.PostInstall != "" && o.Scripts != nil {
		hc := hookContext(rec, dir)
		if err := o.Scripts.Run(ctx, hook.PostInstall, filepath.Join(dir, man.Hooks.PostInstall), hc); err != nil {
			return nil, err
		}
	}

	err = o.commit(ctx, func(ctx context.Context) error {
		o.emit(Event{Phase: "installing", ID: name, Msg: rec.InstallPath})
		if err := fsutil.EnsureFileDir(rec.InstallPath); err != nil {
			return errors.Wrapf(err, "failed to create install directory")
		}
		finish, err := fsutil.ReplaceDir(dir, rec.InstallPath)
		if err != nil {
			return errors.Wrapf(err, "failed to promote %s", name)
		}
		if err := o.Store.Upsert(ctx, rec); err != nil {
			if restoreErr := fsutil.RestoreDir(rec.InstallPath); restoreErr != nil {
				logger.Warn("Failed to restore previous package tree", logger.Fields{"package": name, "error": restoreErr.Error()})
			}
			return err
		}
		if err := finish(); err != nil {
			logger.Warn("Failed to remove previous package tree", logger.Fields{"package": name, "error": err.Error()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved, ok := o.Store.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotInstalled, name)
	}
	return saved, nil
}

// installPath returns where pkg lives once installed. Every package of a
// source is a direct child of the source directory, its source directory
// path-escaped into a single component, so package trees never nest. Escaped
// names contain no bare '%' and cannot collide with fsutil.BackupSuffix.
func (o *Orchestrator) installPath(pkg *model.Package) string {
	if pkg.IsSourced() {
		dir := pkg.SourceDirectory
		if dir == "" {
			dir = pkg.Name
		}
		return filepath.Join(o.opts.InstallDir, pkg.Source, url.PathEscape(dir))
	}
	sum := sha256.Sum256([]byte(model.CanonicalURL(pkg.URL)))
	return filepath.Join(o.opts.InstallDir, directDirName, url.PathEscape(pkg.Name)+"-"+hex.EncodeToString(sum[:4]))
}

// currentPackage returns the advertised entry of an installed package, which
// may carry a newer URL or metadata, or the recorded package.
func (o *Orchestrator) currentPackage(ip *model.InstalledPackage) *model.Package {
	name := ip.Name()
	for _, p := range o.Catalog.Packages() {
		if p.QualifiedName() == name {
			return p.Clone()
		}
	}
	return ip.Package.Clone()
}

func hookContext(ip *model.InstalledPackage, packagePath string) hook.HookContext {
	return hook.HookContext{
		PackageName:    ip.Name(),
		PackageVersion: ip.Status.CurrentVersion,
		PackagePath:    packagePath,
		InstallPath:    ip.InstallPath,
		ScriptDir:      ip.ScriptDir,
	}
}
