package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/hook"
	"github.com/glorpus-work/zpkg/pkg/manifest"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// Remove uninstalls every named package concurrently. A failing pre-remove
// hook is logged and does not stop the removal.
func (o *Orchestrator) Remove(ctx context.Context, refs []string) []Result {
	return o.runBatch(ctx, ActionRemove, refs, func(ctx context.Context, i int) Result {
		return o.remove(ctx, refs[i])
	})
}

func (o *Orchestrator) remove(ctx context.Context, ref string) Result {
	return o.withInstalled(ctx, ref, func(ip *model.InstalledPackage) Result {
		name := ip.Name()
		o.emit(Event{Phase: "removing", ID: name})
		o.runPreRemove(ctx, ip)

		if err := o.commit(ctx, func(ctx context.Context) error {
			return o.Store.Remove(ctx, name)
		}); err != nil {
			return Result{Err: err}
		}
		if err := os.RemoveAll(ip.InstallPath); err != nil {
			logger.Warn("Failed to delete package files", logger.Fields{"package": name, "path": ip.InstallPath, "error": err.Error()})
		}
		if ip.Status.IsLoaded {
			o.writeLoadFile()
		}
		logger.Debug("Removed package", logger.Fields{"package": name})
		return Result{Previous: ip.Status.CurrentVersion, Changed: true}
	})
}

func (o *Orchestrator) runPreRemove(ctx context.Context, ip *model.InstalledPackage) {
	if o.Scripts == nil {
		return
	}
	man, err := manifest.Load(ip.InstallPath)
	if err != nil {
		logger.Warn("Skipping pre-remove hook", logger.Fields{"package": ip.Name(), "error": err.Error()})
		return
	}
	if man.Hooks.PreRemove == "" {
		return
	}
	script := filepath.Join(ip.InstallPath, man.Hooks.PreRemove)
	if err := o.Scripts.Run(ctx, hook.PreRemove, script, hookContext(ip, ip.InstallPath)); err != nil {
		logger.Warn("Pre-remove hook failed", logger.Fields{"package": ip.Name(), "error": err.Error()})
	}
}

// Pin freezes the installed version of ref. With a version the package is
// first switched to it, as an install with an explicit version would.
func (o *Orchestrator) Pin(ctx context.Context, ref, version string) Result {
	return o.bounded(ctx, ActionPin, ref, func(ctx context.Context) Result {
		return o.withInstalled(ctx, ref, func(ip *model.InstalledPackage) Result {
			if version != "" {
				return o.installLocked(ctx, o.currentPackage(ip), ip, version, InstallOptions{})
			}
			updated, err := o.setPinned(ctx, ip.Name(), true)
			return Result{Package: updated, Previous: ip.Status.CurrentVersion, Changed: err == nil, Err: err}
		})
	})
}

// Unpin releases a pinned package for upgrades.
func (o *Orchestrator) Unpin(ctx context.Context, ref string) Result {
	return o.bounded(ctx, ActionUnpin, ref, func(ctx context.Context) Result {
		return o.withInstalled(ctx, ref, func(ip *model.InstalledPackage) Result {
			updated, err := o.setPinned(ctx, ip.Name(), false)
			return Result{Package: updated, Previous: ip.Status.CurrentVersion, Changed: err == nil, Err: err}
		})
	})
}

// Load adds ref to the auto-load set.
func (o *Orchestrator) Load(ctx context.Context, ref string) Result {
	return o.bounded(ctx, ActionLoad, ref, func(ctx context.Context) Result {
		return o.setLoaded(ctx, ref, true)
	})
}

// Unload removes ref from the auto-load set.
func (o *Orchestrator) Unload(ctx context.Context, ref string) Result {
	return o.bounded(ctx, ActionUnload, ref, func(ctx context.Context) Result {
		return o.setLoaded(ctx, ref, false)
	})
}

func (o *Orchestrator) setLoaded(ctx context.Context, ref string, loaded bool) Result {
	return o.withInstalled(ctx, ref, func(ip *model.InstalledPackage) Result {
		var updated *model.InstalledPackage
		err := o.commit(ctx, func(ctx context.Context) error {
			var err error
			updated, err = o.Store.SetLoaded(ctx, ip.Name(), loaded)
			return err
		})
		if err != nil {
			return Result{Err: err}
		}
		o.writeLoadFile()
		return Result{Package: updated, Previous: ip.Status.CurrentVersion, Changed: true}
	})
}

func (o *Orchestrator) setPinned(ctx context.Context, name string, pinned bool) (*model.InstalledPackage, error) {
	var updated *model.InstalledPackage
	err := o.commit(ctx, func(ctx context.Context) error {
		var err error
		updated, err = o.Store.SetPinned(ctx, name, pinned, nil)
		return err
	})
	return updated, err
}

// withInstalled resolves ref to an installed package and runs fn under its
// name lock with a fresh copy of the record.
func (o *Orchestrator) withInstalled(ctx context.Context, ref string, fn func(ip *model.InstalledPackage) Result) Result {
	found, err := o.resolveInstalled(ref)
	if err != nil {
		return Result{Err: err}
	}
	return o.withInstalledName(ctx, found.Name(), fn)
}

// withInstalledName runs fn under the lock of the exact installed name.
func (o *Orchestrator) withInstalledName(ctx context.Context, name string, fn func(ip *model.InstalledPackage) Result) Result {
	unlock, err := o.locks.lock(ctx, name)
	if err != nil {
		return Result{Err: err}
	}
	defer unlock()

	ip, ok := o.Store.Find(name)
	if !ok {
		return Result{Err: fmt.Errorf("%w: %s", errors.ErrNotInstalled, name)}
	}
	return fn(ip)
}
