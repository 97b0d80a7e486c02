//go:build integration

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/internal/cli"
)

// testEnv is a throwaway zpkg installation with one local source.
type testEnv struct {
	root       string
	configPath string
	sourceDir  string
	loadFile   string
}

const postInstallHook = `if packageName == "" { err = "package name missing" }`

// newTestEnv creates a local source advertising the given packages. Each
// package directory carries a manifest with a post-install hook.
func newTestEnv(t *testing.T, packages ...string) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:       root,
		configPath: filepath.Join(root, "config", "config.yaml"),
		sourceDir:  filepath.Join(root, "source"),
		loadFile:   filepath.Join(root, "data", "packages.load"),
	}

	var index strings.Builder
	for _, name := range packages {
		dir := createPackageDir(t, filepath.Join(root, "upstream"), name)
		index.WriteString("file://" + dir + "\n")
	}
	require.NoError(t, os.MkdirAll(env.sourceDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.sourceDir, "default.index"), []byte(index.String()), 0o644))

	yamlContent := "settings:\n" +
		"  cache_dir: " + filepath.Join(root, "cache") + "\n" +
		"  state_dir: " + filepath.Join(root, "data", "state") + "\n" +
		"  install_dir: " + filepath.Join(root, "data", "packages") + "\n" +
		"  load_file: " + env.loadFile + "\n" +
		"  http_timeout: 5s\n" +
		"  operation_timeout: 30s\n" +
		"  max_concurrent: 2\n" +
		"  log_level: error\n" +
		"sources:\n" +
		"  - name: local\n" +
		"    url: " + env.sourceDir + "\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(env.configPath), 0o755))
	require.NoError(t, os.WriteFile(env.configPath, []byte(yamlContent), 0o644))
	return env
}

func createPackageDir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	manifest := "description: The " + name + " package\n" +
		"tags: [demo]\n" +
		"hooks:\n" +
		"  post_install: scripts/post_install.tengo\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zpkg.yaml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "post_install.tengo"), []byte(postInstallHook), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "main.zeek"), []byte("# "+name+"\n"), 0o644))
	return dir
}

// run executes the CLI in-process and returns what it printed.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli.SetOutput(&out)
	t.Cleanup(func() { cli.SetOutput(os.Stdout) })

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "zpkg %s: %s", strings.Join(args, " "), out)
	return out
}
