package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/glorpus-work/zpkg/pkg/database/mocks"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

func installed(source, dir, version, hash string) *model.InstalledPackage {
	return &model.InstalledPackage{
		Package: *model.NewSourcedPackage(source, dir, "https://example.org/"+dir),
		Status:  model.Status{CurrentVersion: version, CurrentHash: hash, VersionKind: model.VersionTag},
	}
}

func openJSONStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "installed.json")
	store, err := Open(context.Background(), NewJSONBackend(path))
	require.NoError(t, err)
	return store, path
}

func TestStore_UpsertFindAll(t *testing.T) {
	ctx := context.Background()
	store, path := openJSONStore(t)

	require.NoError(t, store.Upsert(ctx, installed("s", "b", "main", "bbbb")))
	require.NoError(t, store.Upsert(ctx, installed("s", "a", "2.0", "2222")))

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "s/a", all[0].Name())
	assert.Equal(t, "s/b", all[1].Name())
	assert.False(t, all[0].InstalledAt.IsZero())

	found, ok := store.Find("s/a")
	require.True(t, ok)
	assert.Equal(t, "2222", found.Status.CurrentHash)

	// Returned records are copies.
	found.Status.CurrentHash = "mutated"
	again, _ := store.Find("s/a")
	assert.Equal(t, "2222", again.Status.CurrentHash)

	// State survives a reopen.
	reopened, err := Open(ctx, NewJSONBackend(path))
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	store, _ := openJSONStore(t)
	require.NoError(t, store.Upsert(ctx, installed("s", "a", "2.0", "2222")))

	require.NoError(t, store.Remove(ctx, "s/a"))
	_, ok := store.Find("s/a")
	assert.False(t, ok)

	assert.ErrorIs(t, store.Remove(ctx, "s/a"), errors.ErrNotInstalled)
}

func TestStore_SetLoaded(t *testing.T) {
	ctx := context.Background()
	store, _ := openJSONStore(t)
	require.NoError(t, store.Upsert(ctx, installed("s", "a", "2.0", "2222")))

	ip, err := store.SetLoaded(ctx, "s/a", true)
	require.NoError(t, err)
	assert.True(t, ip.Status.IsLoaded)

	_, err = store.SetLoaded(ctx, "s/a", true)
	assert.ErrorIs(t, err, errors.ErrAlreadyLoaded)

	_, err = store.SetLoaded(ctx, "s/a", false)
	require.NoError(t, err)
	_, err = store.SetLoaded(ctx, "s/a", false)
	assert.ErrorIs(t, err, errors.ErrNotLoaded)

	_, err = store.SetLoaded(ctx, "s/missing", true)
	assert.ErrorIs(t, err, errors.ErrNotInstalled)
}

func TestStore_SetPinned(t *testing.T) {
	ctx := context.Background()
	store, _ := openJSONStore(t)
	rec := installed("s", "a", "2.0", "2222")
	rec.Status.IsOutdated = true
	require.NoError(t, store.Upsert(ctx, rec))

	ip, err := store.SetPinned(ctx, "s/a", true, nil)
	require.NoError(t, err)
	assert.True(t, ip.Status.IsPinned)
	assert.False(t, ip.Status.IsOutdated)
	assert.Equal(t, "2.0", ip.Status.CurrentVersion)

	_, err = store.SetPinned(ctx, "s/a", true, nil)
	assert.ErrorIs(t, err, errors.ErrAlreadyPinned)

	ip, err = store.SetPinned(ctx, "s/a", true, &model.Selection{Label: "1.0", Hash: "1111", Kind: model.VersionTag})
	require.NoError(t, err, "re-pinning to an explicit version is allowed")
	assert.Equal(t, "1.0", ip.Status.CurrentVersion)
	assert.Equal(t, "1111", ip.Status.CurrentHash)

	_, err = store.SetOutdated(ctx, "s/a", true)
	require.NoError(t, err)
	ip, _ = store.Find("s/a")
	assert.False(t, ip.Status.IsOutdated, "a pinned package is never outdated")

	_, err = store.SetPinned(ctx, "s/a", false, nil)
	require.NoError(t, err)
	_, err = store.SetPinned(ctx, "s/a", false, nil)
	assert.ErrorIs(t, err, errors.ErrNotPinned)
}

func TestStore_PersistFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := mock_database.NewMockBackend(ctrl)

	existing := installed("s", "a", "2.0", "2222")
	backend.EXPECT().Load(gomock.Any()).Return(map[string]*model.InstalledPackage{"s/a": existing}, nil)
	backend.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(os.ErrPermission).Times(3)

	store, err := Open(ctx, backend)
	require.NoError(t, err)

	err = store.Upsert(ctx, installed("s", "a", "3.0", "3333"))
	assert.ErrorIs(t, err, os.ErrPermission)
	err = store.Upsert(ctx, installed("s", "b", "1.0", "1111"))
	assert.ErrorIs(t, err, os.ErrPermission)
	err = store.Remove(ctx, "s/a")
	assert.ErrorIs(t, err, os.ErrPermission)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "2222", all[0].Status.CurrentHash)
}

func TestOpen_UnwritableState(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(dir, 0o555))

	_, err := Open(context.Background(), NewJSONBackend(filepath.Join(dir, "installed.json")))
	assert.ErrorIs(t, err, errors.ErrStateUnwritable)
}

func TestOpen_CorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(context.Background(), NewJSONBackend(path))
	assert.ErrorIs(t, err, errors.ErrStateUnwritable)
}

func TestJSONBackend_RelativePath(t *testing.T) {
	_, err := NewJSONBackend("relative/installed.json").Load(context.Background())
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
}

func TestNewBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := NewBackend("", dir)
	require.NoError(t, err)
	assert.IsType(t, &JSONBackend{}, b)

	b, err = NewBackend(BackendSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteBackend{}, b)

	_, err = NewBackend("bolt", dir)
	assert.Error(t, err)
}
