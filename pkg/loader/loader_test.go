package loader

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/pkg/model"
)

func record(dir string, loaded bool) *model.InstalledPackage {
	return &model.InstalledPackage{
		Package:     *model.NewSourcedPackage("s", dir, "https://example.org/"+dir+".git"),
		Status:      model.Status{IsLoaded: loaded},
		InstallPath: "/opt/pkgs/s/" + dir,
		ScriptDir:   "scripts",
	}
}

func TestRender(t *testing.T) {
	out := string(Render([]*model.InstalledPackage{
		record("b", true),
		record("c", false),
		record("a", true),
	}))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Equal(t, "@load "+filepath.Join("/opt/pkgs/s/a", "scripts"), lines[1])
	assert.Equal(t, "@load "+filepath.Join("/opt/pkgs/s/b", "scripts"), lines[2])
}

func TestWriteAndRead(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "site", "packages.load"))

	paths, err := w.Read()
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, w.Write([]*model.InstalledPackage{record("a", true), record("b", false)}))
	paths, err = w.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("/opt/pkgs/s/a", "scripts")}, paths)

	require.NoError(t, w.Write(nil))
	paths, err = w.Read()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestWrite_NoPath(t *testing.T) {
	assert.NoError(t, NewWriter("").Write([]*model.InstalledPackage{record("a", true)}))
}
