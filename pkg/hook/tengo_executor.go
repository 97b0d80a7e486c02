package hook

import (
	"context"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
)

// StdlibModules are importable from hook scripts.
var StdlibModules = []string{"fmt", "os", "text", "times", "json"}

// TengoExecutor runs hook scripts with the tengo interpreter.
type TengoExecutor struct {
	modules []string
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{modules: StdlibModules}
}

// Run implements Runner. The script is aborted when ctx is done.
func (e *TengoExecutor) Run(ctx context.Context, hookType HookType, scriptPath string, hc HookContext) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookFailed, err)
	}
	return e.Execute(ctx, hookType, src, hc)
}

// Execute runs script source with the context variables bound.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, src []byte, hc HookContext) error {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(e.modules...))

	vars := map[string]interface{}{
		"packageName":    hc.PackageName,
		"packageVersion": hc.PackageVersion,
		"packagePath":    hc.PackagePath,
		"installPath":    hc.InstallPath,
		"scriptDir":      hc.ScriptDir,
		"err":            "",
	}
	for k, v := range hc.Vars {
		vars[k] = v
	}
	for k, v := range vars {
		if err := script.Add(k, v); err != nil {
			return fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	logger.Debug("Running hook", logger.Fields{"hook": string(hookType), "package": hc.PackageName})
	compiled, err := script.RunContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookFailed, err)
	}

	// A script reports failure by assigning err.
	errVar := compiled.Get("err")
	if te, ok := errVar.Object().(*tengo.Error); ok {
		msg, _ := tengo.ToString(te.Value)
		return fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookFailed, msg)
	}
	switch v := errVar.Value().(type) {
	case error:
		return fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookFailed, v)
	case string:
		if v != "" {
			return fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookFailed, v)
		}
	}
	return nil
}
