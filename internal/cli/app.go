package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/glorpus-work/zpkg/pkg/archive"
	"github.com/glorpus-work/zpkg/pkg/config"
	"github.com/glorpus-work/zpkg/pkg/database"
	"github.com/glorpus-work/zpkg/pkg/download"
	"github.com/glorpus-work/zpkg/pkg/hook"
	"github.com/glorpus-work/zpkg/pkg/loader"
	"github.com/glorpus-work/zpkg/pkg/orchestrator"
	"github.com/glorpus-work/zpkg/pkg/registry"
	"github.com/glorpus-work/zpkg/pkg/transport"
	"github.com/glorpus-work/zpkg/pkg/version"
)

// app holds the components one command invocation works with.
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	store    *database.Store
	orch     *orchestrator.Orchestrator
	backend  database.Backend
}

// newApp loads the configuration and wires the orchestrator. A state store
// that cannot be opened aborts the command before any operation starts.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := cfg.Settings

	creds := cfg.ToCredentials()
	dl := download.NewManager(s.HTTPTimeout, "")
	mux := transport.NewMux(
		transport.NewGitTransport(creds, cfg.GetStagingDir()),
		transport.NewArchiveTransport(dl, archive.NewManager(), creds, cfg.GetStagingDir()),
		transport.NewLocalTransport(),
	)

	reg, err := registry.New(mux, cfg.GetIndexDir(), cfg.PackageSources(), s.MaxConcurrent)
	if err != nil {
		return nil, err
	}

	backend, err := database.NewBackend(s.StateBackend, s.StateDir)
	if err != nil {
		return nil, err
	}
	store, err := database.Open(ctx, backend)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(reg, version.NewResolver(mux, s.DefaultBranches), mux, store, orchestrator.Options{
		InstallDir:       s.InstallDir,
		StagingDir:       cfg.GetStagingDir(),
		Concurrency:      s.MaxConcurrent,
		OperationTimeout: s.OperationTimeout,
	})
	orch.Scripts = hook.NewTengoExecutor()
	orch.Loader = loader.NewWriter(s.LoadFile)

	return &app{cfg: cfg, registry: reg, store: store, orch: orch, backend: backend}, nil
}

// Close releases the state backend.
func (a *app) Close() error {
	if c, ok := a.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// withApp runs fn with a freshly wired app.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

// saveSources writes the registry's sources to the configuration file. The
// file is re-read so that flag overrides are not persisted; credentials of
// sources that stay are kept.
func (a *app) saveSources() error {
	path := getConfigPath()
	raw, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kept := []*config.SourceConfig{}
	for _, src := range a.registry.Sources() {
		sc := raw.GetSource(src.Name)
		if sc == nil {
			sc = &config.SourceConfig{Name: src.Name, URL: src.Location}
		}
		kept = append(kept, sc)
	}
	raw.Sources = kept
	if err := raw.SaveConfig(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
