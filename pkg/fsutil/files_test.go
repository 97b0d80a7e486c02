package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_File(t *testing.T) {
	tempDir := t.TempDir()
	srcFile := filepath.Join(tempDir, "source.txt")
	dstFile := filepath.Join(tempDir, "nested", "destination.txt")

	require.NoError(t, os.WriteFile(srcFile, []byte("Hello, World!"), 0o644))
	require.NoError(t, Move(srcFile, dstFile))

	movedContent, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(movedContent))
	assert.NoFileExists(t, srcFile)
}

func TestMove_Directory(t *testing.T) {
	tempDir := t.TempDir()
	srcDir := filepath.Join(tempDir, "source_dir")
	dstDir := filepath.Join(tempDir, "destination_dir")

	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "subdir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "subdir", "file.txt"), []byte("content"), 0o644))

	require.NoError(t, Move(srcDir, dstDir))
	assert.FileExists(t, filepath.Join(dstDir, "subdir", "file.txt"))
	assert.NoDirExists(t, srcDir)
}

func TestMove_Errors(t *testing.T) {
	err := Move("", "destination.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source and destination paths cannot be empty")

	err = Move(filepath.Join(t.TempDir(), "nonexistent.txt"), filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat source")
}

func TestIsCrossFilesystemError(t *testing.T) {
	assert.False(t, isCrossFilesystemError(nil))
	assert.False(t, isCrossFilesystemError(errors.New("regular error")))
	assert.True(t, isCrossFilesystemError(errors.New("rename a b: invalid cross-device link")))
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "scripts", "main.zeek"), []byte("event zeek_init() {}"), 0o600))
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("scripts/main.zeek", filepath.Join(src, "link")))
	}

	require.NoError(t, CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "scripts", "main.zeek"))
	require.NoError(t, err)
	assert.Equal(t, "event zeek_init() {}", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "scripts", "main.zeek"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		target, err := os.Readlink(filepath.Join(dst, "link"))
		require.NoError(t, err)
		assert.Equal(t, "scripts/main.zeek", target)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), FileModeDefault))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), FileModeDefault))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "state.json"), []byte("x"), FileModeDefault)
	assert.Error(t, err)
}

func TestReplaceDir_LeavesDotOldSibling(t *testing.T) {
	base := t.TempDir()
	dst := filepath.Join(base, "pkg")
	sibling := filepath.Join(base, "pkg.old")
	src := filepath.Join(base, "staged")
	for _, dir := range []string{dst, sibling, src} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "version"), []byte(filepath.Base(dir)), 0o644))
	}

	commit, err := ReplaceDir(src, dst)
	require.NoError(t, err)
	require.NoError(t, commit())

	data, err := os.ReadFile(filepath.Join(sibling, "version"))
	require.NoError(t, err)
	assert.Equal(t, "pkg.old", string(data))
}

func TestReplaceDir(t *testing.T) {
	base := t.TempDir()
	dst := filepath.Join(base, "pkg")
	require.NoError(t, os.MkdirAll(dst, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "version"), []byte("old"), 0o644))

	t.Run("commit keeps the new tree", func(t *testing.T) {
		src := filepath.Join(base, "staged-1")
		require.NoError(t, os.MkdirAll(src, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(src, "version"), []byte("new"), 0o644))

		commit, err := ReplaceDir(src, dst)
		require.NoError(t, err)
		require.NoError(t, commit())

		data, err := os.ReadFile(filepath.Join(dst, "version"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
		assert.NoDirExists(t, dst+BackupSuffix)
	})

	t.Run("restore brings back the previous tree", func(t *testing.T) {
		src := filepath.Join(base, "staged-2")
		require.NoError(t, os.MkdirAll(src, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(src, "version"), []byte("newer"), 0o644))

		_, err := ReplaceDir(src, dst)
		require.NoError(t, err)
		require.NoError(t, RestoreDir(dst))

		data, err := os.ReadFile(filepath.Join(dst, "version"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("missing source leaves destination untouched", func(t *testing.T) {
		_, err := ReplaceDir(filepath.Join(base, "nope"), dst)
		require.Error(t, err)
		assert.FileExists(t, filepath.Join(dst, "version"))
	})
}

func TestCreateFilePerm(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")

	file, err := CreateFilePerm(testFile, 0o600)
	require.NoError(t, err)
	_, err = file.WriteString("test content")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(testFile)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}
