package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "creates new directory",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "newdir") },
		},
		{
			name: "creates nested directories",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "parent", "child", "nested") },
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			path := testCase.path(t)

			require.NoError(t, EnsureDir(path))
			assert.DirExists(t, path)

			if runtime.GOOS != "windows" {
				info, err := os.Stat(path)
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(DirModeDefault), info.Mode().Perm())
			}
		})
	}

	t.Run("succeeds when directory already exists", func(t *testing.T) {
		assert.NoError(t, EnsureDir(t.TempDir()))
	})
}

func TestEnsureFileDir(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "nested", "parent", "file.txt")
	require.NoError(t, EnsureFileDir(filePath))
	assert.DirExists(t, filepath.Dir(filePath))
	assert.NoFileExists(t, filePath)
}

func TestEnsureDir_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	readonlyDir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(readonlyDir, DirModeReadOnly))

	err := EnsureDir(filepath.Join(readonlyDir, "shouldfail"))
	assert.Error(t, err)
	assert.False(t, os.IsExist(err))
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("12345"), FileModeDefault))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), DirModeDefault))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), []byte("123"), FileModeDefault))

	size, files, err := DirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
	assert.Equal(t, 2, files)

	size, files, err = DirSize(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Zero(t, files)
}
