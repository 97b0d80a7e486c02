package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackage_QualifiedName(t *testing.T) {
	tests := []struct {
		name     string
		pkg      *Package
		expected string
	}{
		{
			name:     "sourced package",
			pkg:      NewSourcedPackage("zeek", "alice/foo", "https://github.com/alice/foo.git"),
			expected: "zeek/alice/foo",
		},
		{
			name:     "direct url package strips transport suffix",
			pkg:      NewURLPackage("https://github.com/alice/foo.git/"),
			expected: "https://github.com/alice/foo",
		},
		{
			name:     "scp style url",
			pkg:      NewURLPackage("git@github.com:alice/bar.git"),
			expected: "git@github.com:alice/bar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pkg.QualifiedName())
		})
	}
}

func TestNameFromURL(t *testing.T) {
	assert.Equal(t, "foo", NameFromURL("https://github.com/alice/foo.git"))
	assert.Equal(t, "foo", NameFromURL("https://github.com/alice/foo/"))
	assert.Equal(t, "bar", NameFromURL("git@github.com:bar.git"))
	assert.Equal(t, "baz", NameFromURL("baz"))
	assert.Equal(t, "a", NameFromURL("https://example.org/alice/a.tar.gz"))
	assert.Equal(t, "tool", NameFromURL("https://example.org/tool.ZIP"))
	assert.Equal(t, ".tgz", NameFromURL("https://example.org/.tgz"))
	assert.Equal(t, "a", NewSourcedPackage("s", "alice/a", "https://example.org/alice/a.tar.gz").Name)
}

func TestPackage_NameWithSourceDirectory(t *testing.T) {
	assert.Equal(t, "alice/foo", NewSourcedPackage("zeek", "alice/foo", "https://x/foo").NameWithSourceDirectory())
	assert.Equal(t, "foo", NewURLPackage("https://x/foo").NameWithSourceDirectory())
}

func TestSortPackages(t *testing.T) {
	pkgs := []*Package{
		NewSourcedPackage("s", "b", "https://x/b"),
		NewURLPackage("https://a.example/z"),
		NewSourcedPackage("s", "a", "https://x/a"),
		NewSourcedPackage("r", "c", "https://x/c"),
	}
	SortPackages(pkgs)

	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		names = append(names, p.QualifiedName())
	}
	assert.Equal(t, []string{"https://a.example/z", "r/c", "s/a", "s/b"}, names)
}

func TestPackage_Clone(t *testing.T) {
	p := NewSourcedPackage("s", "a", "https://x/a")
	p.Tags = []string{"net"}
	p.Metadata.Set(MetaDescription, "first")

	c := p.Clone()
	c.Tags[0] = "changed"
	c.Metadata.Set(MetaDescription, "second")

	assert.Equal(t, "net", p.Tags[0])
	assert.Equal(t, "first", p.Description())
	assert.Equal(t, "second", c.Description())
}

func TestMetadata(t *testing.T) {
	var m Metadata
	m.Set("version", "1.0")
	m.Set(MetaDescription, "desc")
	m.Set("version", "2.0")

	v, ok := m.Get("version")
	require.True(t, ok)
	assert.Equal(t, "2.0", v)
	assert.Equal(t, []string{"version", "description"}, m.Keys())

	full := m.WithRequired(map[string]string{MetaURL: "https://x/a"})
	assert.Equal(t, []string{MetaDescription, MetaURL, "version"}, full.Keys())
	url, _ := full.Get(MetaURL)
	assert.Equal(t, "https://x/a", url)
}

func TestVersionRefs(t *testing.T) {
	refs := VersionRefs{
		Tags:     []Ref{{Name: "1.0", Hash: "aaaa1111"}},
		Branches: []Ref{{Name: "main", Hash: "bbbb2222"}},
	}

	tag, ok := refs.Tag("1.0")
	require.True(t, ok)
	assert.Equal(t, "aaaa1111", tag.Hash)

	_, ok = refs.Branch("master")
	assert.False(t, ok)

	hash, ok := refs.CommitByPrefix("BBBB")
	require.True(t, ok)
	assert.Equal(t, "bbbb2222", hash)

	_, ok = refs.CommitByPrefix("bb")
	assert.False(t, ok, "prefixes shorter than four characters are rejected")
}
