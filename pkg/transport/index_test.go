package transport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/pkg/model"
)

func TestParseIndex(t *testing.T) {
	input := `
# packages maintained by the core team
https://github.com/example/alpha.git
https://github.com/example/beta

not a url
git@github.com:example/gamma.git
https://example.org/pkgs/delta.tar.gz
`
	entries, err := ParseIndex(strings.NewReader(input), "net")
	require.NoError(t, err)

	assert.Equal(t, []IndexEntry{
		{URL: "https://github.com/example/alpha.git", SourceDirectory: "net/alpha"},
		{URL: "https://github.com/example/beta", SourceDirectory: "net/beta"},
		{URL: "git@github.com:example/gamma.git", SourceDirectory: "net/gamma"},
		{URL: "https://example.org/pkgs/delta.tar.gz", SourceDirectory: "net/delta"},
	}, entries)
}

func TestParseIndex_RootDirectory(t *testing.T) {
	entries, err := ParseIndex(strings.NewReader("https://example.org/a.git\n"), ".")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].SourceDirectory)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseIndexDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alice", "packages.index"), "https://example.org/alice/a.git\nhttps://example.org/alice/b.git\n")
	writeFile(t, filepath.Join(root, "bob", "packages.index"), "https://example.org/bob/a.git\n")
	writeFile(t, filepath.Join(root, ".git", "ignored.index"), "https://example.org/hidden.git\n")
	writeFile(t, filepath.Join(root, AggregateFileName), `
alice/a:
  description: First package
  tags: [net, dns]
  version: 2.0
bob/a:
  tags: "tls, x509"
`)

	pkgs, err := ParseIndexDir("s", root)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		names = append(names, p.QualifiedName())
	}
	assert.Equal(t, []string{"s/alice/a", "s/alice/b", "s/bob/a"}, names)

	a := pkgs[0]
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "First package", a.Description())
	assert.Equal(t, []string{"net", "dns"}, a.Tags)
	assert.Equal(t, []string{model.MetaDescription, model.MetaURL, "version"}, a.Metadata.Keys())
	url, _ := a.Metadata.Get(model.MetaURL)
	assert.Equal(t, "https://example.org/alice/a.git", url)

	assert.Equal(t, []string{"tls", "x509"}, pkgs[2].Tags)
	assert.Empty(t, pkgs[1].Tags)
	assert.Equal(t, "", pkgs[1].Description())
}

func TestParseIndexDir_BadAggregate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, AggregateFileName), "alice/a: [unterminated")

	_, err := ParseIndexDir("s", root)
	assert.Error(t, err)
}

func TestParseIndexDir_Duplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.index"), "https://example.org/one/x.git\n")
	writeFile(t, filepath.Join(root, "b.index"), "https://example.org/two/x.git\n")

	pkgs, err := ParseIndexDir("s", root)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "https://example.org/one/x.git", pkgs[0].URL)
}
