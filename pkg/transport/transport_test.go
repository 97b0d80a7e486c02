package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
	mock_transport "github.com/glorpus-work/zpkg/pkg/transport/mocks"
)

func TestIsArchiveLocation(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"https://example.org/source.tar.gz", true},
		{"http://example.org/pkgs/a.ZIP", true},
		{"https://example.org/a.tgz?token=1", true},
		{"https://github.com/example/source.git", false},
		{"https://github.com/example/source", false},
		{"file:///srv/source.tar.gz", false},
		{"git@github.com:example/source.git", false},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArchiveLocation(tt.location))
		})
	}
}

func TestIsLocalDirectory(t *testing.T) {
	plain := t.TempDir()
	repo := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(repo, ".git"), 0o755))

	assert.True(t, IsLocalDirectory(plain))
	assert.True(t, IsLocalDirectory("file://"+plain))
	assert.False(t, IsLocalDirectory(repo))
	assert.False(t, IsLocalDirectory("relative/dir"))
	assert.False(t, IsLocalDirectory(filepath.Join(plain, "missing")))
}

func TestValidateLocation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		location string
		wantErr  bool
	}{
		{name: "https", location: "https://github.com/example/source"},
		{name: "scp", location: "git@github.com:example/source.git"},
		{name: "file url", location: "file://" + dir},
		{name: "absolute path", location: dir},
		{name: "empty", location: "  ", wantErr: true},
		{name: "missing path", location: filepath.Join(dir, "missing"), wantErr: true},
		{name: "bare word", location: "source", wantErr: true},
		{name: "relative path", location: "./source", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocation(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidSource)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMux_Routes(t *testing.T) {
	ctrl := gomock.NewController(t)
	gitT := mock_transport.NewMockTransport(ctrl)
	archiveT := mock_transport.NewMockTransport(ctrl)
	localT := mock_transport.NewMockTransport(ctrl)
	mux := NewMux(gitT, archiveT, localT)
	ctx := context.Background()
	localDir := t.TempDir()

	gitPkg := model.NewURLPackage("https://github.com/example/a.git")
	archivePkg := model.NewURLPackage("https://example.org/a.tar.gz")
	localPkg := model.NewURLPackage("file://" + localDir)

	gitT.EXPECT().ListVersionRefs(ctx, gitPkg).Return(model.VersionRefs{DefaultBranch: "main"}, nil)
	archiveT.EXPECT().ListVersionRefs(ctx, archivePkg).Return(model.VersionRefs{DefaultBranch: ArchiveBranch}, nil)
	localT.EXPECT().ListVersionRefs(ctx, localPkg).Return(model.VersionRefs{DefaultBranch: LocalBranch}, nil)
	gitT.EXPECT().ResolveRevision(ctx, gitPkg, "abcd").Return("abcdef", nil)
	archiveT.EXPECT().FetchContent(ctx, archivePkg, gomock.Any(), "/dst").Return(nil)
	localT.EXPECT().FetchIndex(ctx, model.PackageSource{Name: "l", Location: localDir}).Return(nil, nil)

	refs, err := mux.ListVersionRefs(ctx, gitPkg)
	require.NoError(t, err)
	assert.Equal(t, "main", refs.DefaultBranch)

	refs, err = mux.ListVersionRefs(ctx, archivePkg)
	require.NoError(t, err)
	assert.Equal(t, ArchiveBranch, refs.DefaultBranch)

	refs, err = mux.ListVersionRefs(ctx, localPkg)
	require.NoError(t, err)
	assert.Equal(t, LocalBranch, refs.DefaultBranch)

	hash, err := mux.ResolveRevision(ctx, gitPkg, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", hash)

	require.NoError(t, mux.FetchContent(ctx, archivePkg, model.Selection{}, "/dst"))

	_, err = mux.FetchIndex(ctx, model.PackageSource{Name: "l", Location: localDir})
	require.NoError(t, err)
}
