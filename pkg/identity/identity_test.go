package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

func knownPackages() []*model.Package {
	return []*model.Package{
		model.NewSourcedPackage("zeek", "alice/foo", "https://github.com/alice/foo.git"),
		model.NewSourcedPackage("zeek", "bob/bar", "https://github.com/bob/bar"),
		model.NewSourcedPackage("extra", "carol/bar", "https://github.com/carol/bar"),
		model.NewSourcedPackage("extra", "alice/foo-tools", "https://github.com/alice/foo-tools"),
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		path  string
		isURL bool
	}{
		{name: "bare name", raw: "foo", path: "foo"},
		{name: "trailing slash and whitespace", raw: "  alice/foo/ ", path: "alice/foo"},
		{name: "duplicate slashes", raw: "zeek//alice/./foo", path: "zeek/alice/foo"},
		{name: "https url", raw: "https://github.com/alice/foo.git", path: "https://github.com/alice/foo", isURL: true},
		{name: "scp url", raw: "git@github.com:alice/foo.git", path: "git@github.com:alice/foo", isURL: true},
		{name: "file url", raw: "file:///srv/pkgs/foo/", path: "file:///srv/pkgs/foo", isURL: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := Canonicalize(tt.raw)
			assert.Equal(t, tt.path, ref.Path)
			assert.Equal(t, tt.isURL, ref.IsURL)
		})
	}
}

func TestResolve(t *testing.T) {
	known := knownPackages()

	tests := []struct {
		name      string
		ref       string
		expected  string
		wantErr   error
		ambiguous []string
	}{
		{name: "base name", ref: "foo", expected: "zeek/alice/foo"},
		{name: "path within source", ref: "alice/foo", expected: "zeek/alice/foo"},
		{name: "qualified name", ref: "zeek/bob/bar", expected: "zeek/bob/bar"},
		{name: "path disambiguates base name", ref: "carol/bar", expected: "extra/carol/bar"},
		{
			name:      "ambiguous base name",
			ref:       "bar",
			wantErr:   errors.ErrAmbiguous,
			ambiguous: []string{"extra/carol/bar", "zeek/bob/bar"},
		},
		{name: "unknown name", ref: "nothing", wantErr: errors.ErrNotFound},
		{name: "empty reference", ref: "  ", wantErr: errors.ErrNotFound},
		{name: "known url", ref: "https://github.com/bob/bar.git", expected: "zeek/bob/bar"},
		{name: "unknown url is synthesised", ref: "https://example.org/x/baz.git", expected: "https://example.org/x/baz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := Resolve(Canonicalize(tt.ref), known)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.ambiguous != nil {
					var amb *errors.AmbiguityError
					require.ErrorAs(t, err, &amb)
					assert.Equal(t, tt.ambiguous, amb.Matches)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pkg.QualifiedName())
		})
	}
}

func TestResolve_QualifiedNameBeatsNestedDirectory(t *testing.T) {
	known := []*model.Package{
		model.NewSourcedPackage("corelight", "foo", "https://github.com/corelight/foo"),
		model.NewSourcedPackage("zeek", "corelight/foo", "https://github.com/zeek/corelight-foo/foo"),
	}

	_, err := Resolve(Canonicalize("foo"), known)
	assert.ErrorIs(t, err, errors.ErrAmbiguous)

	pkg, err := Resolve(Canonicalize("corelight/foo"), known)
	require.NoError(t, err)
	assert.Equal(t, "corelight/foo", pkg.QualifiedName())

	pkg, err = Resolve(Canonicalize("zeek/corelight/foo"), known)
	require.NoError(t, err)
	assert.Equal(t, "zeek/corelight/foo", pkg.QualifiedName())

	installed := []*model.InstalledPackage{{Package: *known[1]}, {Package: *known[0]}}
	ip, err := ResolveInstalled(Canonicalize("corelight/foo"), installed)
	require.NoError(t, err)
	assert.Same(t, installed[1], ip)
}

func TestResolve_SynthesisedURLPackageIsUnsourced(t *testing.T) {
	pkg, err := Resolve(Canonicalize("git@example.org:team/baz.git"), nil)
	require.NoError(t, err)
	assert.False(t, pkg.IsSourced())
	assert.Equal(t, "baz", pkg.Name)
}

func TestResolve_Deterministic(t *testing.T) {
	known := knownPackages()
	first, firstErr := Resolve(Canonicalize("bar"), known)

	// Reversing the input must not change the outcome.
	reversed := make([]*model.Package, len(known))
	for i, p := range known {
		reversed[len(known)-1-i] = p
	}
	for i := 0; i < 10; i++ {
		got, err := Resolve(Canonicalize("bar"), reversed)
		assert.Equal(t, first, got)
		assert.Equal(t, firstErr.Error(), err.Error())
	}
}

func TestResolveInstalled(t *testing.T) {
	installed := []*model.InstalledPackage{
		{Package: *model.NewSourcedPackage("zeek", "alice/foo", "https://github.com/alice/foo")},
		{Package: *model.NewURLPackage("https://example.org/x/baz")},
	}

	ip, err := ResolveInstalled(Canonicalize("foo"), installed)
	require.NoError(t, err)
	assert.Same(t, installed[0], ip)

	ip, err = ResolveInstalled(Canonicalize("https://example.org/x/baz.git"), installed)
	require.NoError(t, err)
	assert.Same(t, installed[1], ip)

	_, err = ResolveInstalled(Canonicalize("https://example.org/other"), installed)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMatchesPath(t *testing.T) {
	assert.True(t, matchesPath("a/b/c", []string{"b", "c"}))
	assert.True(t, matchesPath("a/b/c", []string{"a", "b", "c"}))
	assert.False(t, matchesPath("a/b/c", []string{"a", "b"}))
	assert.False(t, matchesPath("b/c", []string{"a", "b", "c"}))
	assert.False(t, matchesPath("a/bc", []string{"c"}))
	assert.False(t, matchesPath("a/b", nil))
}
