package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/pkg/archive"
	"github.com/glorpus-work/zpkg/pkg/download"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// archiveServer serves tarballs built from the given trees, keyed by URL path.
// Each tree is wrapped in a top-level directory the way forges build snapshots.
func archiveServer(t *testing.T, trees map[string]map[string]string) *httptest.Server {
	t.Helper()
	am := archive.NewManager()
	files := map[string]string{}
	for name, tree := range trees {
		src := filepath.Join(t.TempDir(), "tree")
		for p, content := range tree {
			writeFile(t, filepath.Join(src, "snapshot-main", p), content)
		}
		out := filepath.Join(t.TempDir(), filepath.Base(name))
		require.NoError(t, am.Create(context.Background(), src, out))
		files["/"+name] = out
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	}))
	t.Cleanup(server.Close)
	return server
}

func newArchiveTransport(t *testing.T) *ArchiveTransport {
	t.Helper()
	dm := download.NewManager(5*time.Second, "", download.WithRetries(0, time.Millisecond))
	return NewArchiveTransport(dm, archive.NewManager(), nil, t.TempDir())
}

func TestArchiveTransport_FetchIndex(t *testing.T) {
	server := archiveServer(t, map[string]map[string]string{
		"source.tar.gz": {
			"alice/packages.index": "https://example.org/alice/a.tar.gz\n",
		},
	})

	at := newArchiveTransport(t)
	pkgs, err := at.FetchIndex(context.Background(), model.PackageSource{Name: "s", Location: server.URL + "/source.tar.gz"})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "s/alice/a", pkgs[0].QualifiedName())
}

func TestArchiveTransport_VersionAndContent(t *testing.T) {
	server := archiveServer(t, map[string]map[string]string{
		"a.tar.gz": {"init.script": "hello"},
	})
	pkg := model.NewURLPackage(server.URL + "/a.tar.gz")
	at := newArchiveTransport(t)
	ctx := context.Background()

	refs, err := at.ListVersionRefs(ctx, pkg)
	require.NoError(t, err)
	assert.Equal(t, ArchiveBranch, refs.DefaultBranch)
	branch, ok := refs.Branch(ArchiveBranch)
	require.True(t, ok)
	assert.Len(t, branch.Hash, 64)

	again, err := at.ListVersionRefs(ctx, pkg)
	require.NoError(t, err)
	assert.Equal(t, refs, again, "digest is stable for unchanged archives")

	dir := filepath.Join(t.TempDir(), "content")
	sel := model.Selection{Label: ArchiveBranch, Hash: branch.Hash, Kind: model.VersionBranch}
	require.NoError(t, at.FetchContent(ctx, pkg, sel, dir))
	got, err := os.ReadFile(filepath.Join(dir, "init.script"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = at.ResolveRevision(ctx, pkg, "abcd")
	assert.ErrorIs(t, err, errors.ErrNoSuchVersion)
}

func TestArchiveTransport_ChecksumMismatch(t *testing.T) {
	server := archiveServer(t, map[string]map[string]string{
		"a.tar.gz": {"init.script": "hello"},
	})
	at := newArchiveTransport(t)

	sel := model.Selection{Label: ArchiveBranch, Hash: "0000000000000000000000000000000000000000000000000000000000000000", Kind: model.VersionBranch}
	err := at.FetchContent(context.Background(), model.NewURLPackage(server.URL+"/a.tar.gz"), sel, filepath.Join(t.TempDir(), "content"))
	assert.ErrorIs(t, err, errors.ErrFetch)
}

func TestArchiveTransport_NotFound(t *testing.T) {
	server := archiveServer(t, nil)
	at := newArchiveTransport(t)

	_, err := at.FetchIndex(context.Background(), model.PackageSource{Name: "s", Location: server.URL + "/missing.tar.gz"})
	assert.ErrorIs(t, err, errors.ErrFetch)
}
