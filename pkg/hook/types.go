//go:generate mockgen -destination=./mocks/hook.go . Runner

// Package hook runs the tengo scripts a package manifest names for its
// lifecycle events.
package hook

import "context"

// HookType represents the lifecycle event a hook runs on.
type HookType string

// Supported hook types.
const (
	PostInstall HookType = "post_install"
	PreRemove   HookType = "pre_remove"
)

// HookContext contains information passed to hooks.
type HookContext struct {
	PackageName    string
	PackageVersion string
	PackagePath    string // directory holding the package tree the hook belongs to
	InstallPath    string // final install location
	ScriptDir      string
	Vars           map[string]interface{}
}

// Runner executes one hook script.
type Runner interface {
	// Run executes the script at scriptPath. Script failures, runtime errors
	// and a non-empty err variable are reported as ErrHookFailed.
	Run(ctx context.Context, hookType HookType, scriptPath string, hc HookContext) error
}
