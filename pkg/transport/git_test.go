package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

func TestMain(m *testing.M) {
	// Serve file:// remotes in-process so the tests do not need a git binary.
	client.InstallProtocol("file", server.DefaultServer)
	os.Exit(m.Run())
}

// testRepo is a local repository used as a remote.
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo}
}

// URL points at the git directory so the remote is read as a bare repository.
func (r *testRepo) URL() string {
	return filepath.Join(r.dir, git.GitDirName)
}

func (r *testRepo) commit(files map[string]string) string {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)
	for name, content := range files {
		path := filepath.Join(r.dir, name)
		require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(r.t, err)
	}
	hash, err := wt.Commit("change", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.org", When: time.Now()},
	})
	require.NoError(r.t, err)
	return hash.String()
}

func (r *testRepo) tag(name, hash string) {
	r.t.Helper()
	_, err := r.repo.CreateTag(name, plumbing.NewHash(hash), nil)
	require.NoError(r.t, err)
}

func TestGitTransport_ListVersionRefs(t *testing.T) {
	remote := newTestRepo(t)
	c1 := remote.commit(map[string]string{"init.script": "v1"})
	remote.tag("1.0", c1)
	c2 := remote.commit(map[string]string{"init.script": "v2"})
	remote.tag("2.0", c2)

	g := NewGitTransport(nil, t.TempDir())
	refs, err := g.ListVersionRefs(context.Background(), model.NewURLPackage(remote.URL()))
	require.NoError(t, err)

	assert.Equal(t, []model.Ref{{Name: "1.0", Hash: c1}, {Name: "2.0", Hash: c2}}, refs.Tags)
	branch, ok := refs.Branch("master")
	require.True(t, ok)
	assert.Equal(t, c2, branch.Hash)
}

func TestGitTransport_ListVersionRefs_Unreachable(t *testing.T) {
	g := NewGitTransport(nil, t.TempDir())
	_, err := g.ListVersionRefs(context.Background(), model.NewURLPackage(filepath.Join(t.TempDir(), "missing")))
	assert.ErrorIs(t, err, errors.ErrFetch)
}

func TestGitTransport_FetchContent(t *testing.T) {
	remote := newTestRepo(t)
	c1 := remote.commit(map[string]string{"init.script": "v1"})
	remote.tag("1.0", c1)
	c2 := remote.commit(map[string]string{"init.script": "v2"})
	c3 := remote.commit(map[string]string{"init.script": "v3"})
	pkg := model.NewURLPackage(remote.URL())
	g := NewGitTransport(nil, t.TempDir())

	tests := []struct {
		name string
		sel  model.Selection
		want string
	}{
		{name: "tag", sel: model.Selection{Label: "1.0", Hash: c1, Kind: model.VersionTag}, want: "v1"},
		{name: "branch head", sel: model.Selection{Label: "master", Hash: c3, Kind: model.VersionBranch}, want: "v3"},
		{name: "branch behind head", sel: model.Selection{Label: "master", Hash: c2, Kind: model.VersionBranch}, want: "v2"},
		{name: "commit", sel: model.Selection{Label: c2[:8], Hash: c2, Kind: model.VersionCommit}, want: "v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "content")
			require.NoError(t, g.FetchContent(context.Background(), pkg, tt.sel, dir))

			got, err := os.ReadFile(filepath.Join(dir, "init.script"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.NoDirExists(t, filepath.Join(dir, ".git"))
		})
	}
}

func TestGitTransport_FetchContent_MissingTag(t *testing.T) {
	remote := newTestRepo(t)
	remote.commit(map[string]string{"init.script": "v1"})
	g := NewGitTransport(nil, t.TempDir())

	dir := filepath.Join(t.TempDir(), "content")
	err := g.FetchContent(context.Background(), model.NewURLPackage(remote.URL()),
		model.Selection{Label: "9.9", Kind: model.VersionTag}, dir)
	assert.ErrorIs(t, err, errors.ErrFetch)
	assert.NoDirExists(t, dir)
}

func TestGitTransport_ResolveRevision(t *testing.T) {
	remote := newTestRepo(t)
	c1 := remote.commit(map[string]string{"init.script": "v1"})
	c2 := remote.commit(map[string]string{"init.script": "v2"})
	pkg := model.NewURLPackage(remote.URL())
	g := NewGitTransport(nil, t.TempDir())

	got, err := g.ResolveRevision(context.Background(), pkg, c2[:7])
	require.NoError(t, err, "advertised hash")
	assert.Equal(t, c2, got)

	got, err = g.ResolveRevision(context.Background(), pkg, c1[:10])
	require.NoError(t, err, "hash only reachable through history")
	assert.Equal(t, c1, got)

	_, err = g.ResolveRevision(context.Background(), pkg, "deadbeef")
	assert.ErrorIs(t, err, errors.ErrNoSuchVersion)

	_, err = g.ResolveRevision(context.Background(), pkg, "not-a-hash")
	assert.ErrorIs(t, err, errors.ErrNoSuchVersion)
}

func TestGitTransport_FetchIndex(t *testing.T) {
	remote := newTestRepo(t)
	remote.commit(map[string]string{
		"alice/packages.index": "https://example.org/alice/a.git\n",
		"aggregate.yaml":       "alice/a:\n  description: from git\n",
	})

	g := NewGitTransport(nil, t.TempDir())
	pkgs, err := g.FetchIndex(context.Background(), model.PackageSource{Name: "s", Location: remote.URL()})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "s/alice/a", pkgs[0].QualifiedName())
	assert.Equal(t, "from git", pkgs[0].Description())
}
