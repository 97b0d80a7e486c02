// Package identity turns user supplied package references into packages.
//
// A reference is one of a bare name ("foo"), a path within a source
// ("alice/foo"), a source qualified path ("zeek/alice/foo") or a direct URL.
// Canonicalize is purely syntactic. Resolve matches a reference against a set
// of known packages and never touches the network.
package identity

import (
	"regexp"
	"strings"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

var (
	schemeURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/\s]*(/\S*)?$`)
	scpURL    = regexp.MustCompile(`^[\w.-]+@[\w.-]+:[^/\s]\S*$`)
)

// Ref is a canonical package reference.
type Ref struct {
	// Raw is the trimmed user input.
	Raw string
	// Path is the reference with redundant slashes removed. For URLs it is
	// the canonical URL.
	Path string
	// IsURL reports whether the reference is a direct URL.
	IsURL bool
}

// String returns the user facing form of the reference.
func (r Ref) String() string {
	return r.Raw
}

// Components splits a non URL reference into its path components.
func (r Ref) Components() []string {
	if r.IsURL || r.Path == "" {
		return nil
	}
	return strings.Split(r.Path, "/")
}

// Canonicalize normalizes a raw reference.
func Canonicalize(raw string) Ref {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if IsURL(trimmed) {
		return Ref{Raw: trimmed, Path: model.CanonicalURL(trimmed), IsURL: true}
	}

	parts := strings.Split(trimmed, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			kept = append(kept, p)
		}
	}
	return Ref{Raw: trimmed, Path: strings.Join(kept, "/")}
}

// IsURL reports whether s is syntactically a direct package URL.
func IsURL(s string) bool {
	if strings.HasPrefix(s, "file://") {
		return len(s) > len("file://")
	}
	return schemeURL.MatchString(s) || scpURL.MatchString(s)
}

// Resolve finds the single package ref names among known.
//
// An exact qualified name always wins. Otherwise tiers are tried in order:
// base name, path within the source, source qualified path. The first tier
// producing any match decides the outcome.
func Resolve(ref Ref, known []*model.Package) (*model.Package, error) {
	if ref.IsURL {
		return resolveURL(ref, known)
	}
	if ref.Path == "" {
		return nil, &errors.NotFoundError{Ref: ref.Raw}
	}

	tiers := []func(*model.Package) bool{
		func(p *model.Package) bool { return p.IsSourced() && p.QualifiedName() == ref.Path },
		func(p *model.Package) bool { return p.Name == ref.Path },
		func(p *model.Package) bool {
			return p.IsSourced() && matchesPath(p.SourceDirectory, ref.Components())
		},
		func(p *model.Package) bool { return matchesPath(p.QualifiedName(), ref.Components()) },
	}

	for _, match := range tiers {
		if hit, err := pick(ref, known, match); hit != nil || err != nil {
			return hit, err
		}
	}
	return nil, &errors.NotFoundError{Ref: ref.Raw}
}

// ResolveInstalled resolves ref against installed records.
func ResolveInstalled(ref Ref, installed []*model.InstalledPackage) (*model.InstalledPackage, error) {
	pkgs := make([]*model.Package, len(installed))
	for i, ip := range installed {
		pkgs[i] = &ip.Package
	}
	var (
		hit *model.Package
		err error
	)
	if ref.IsURL {
		hit, err = matchURL(ref, pkgs)
		if err == nil && hit == nil {
			err = &errors.NotFoundError{Ref: ref.Raw}
		}
	} else {
		hit, err = Resolve(ref, pkgs)
	}
	if err != nil {
		return nil, err
	}
	for i, p := range pkgs {
		if p == hit {
			return installed[i], nil
		}
	}
	return nil, &errors.NotFoundError{Ref: ref.Raw}
}

func resolveURL(ref Ref, known []*model.Package) (*model.Package, error) {
	hit, err := matchURL(ref, known)
	if err != nil || hit != nil {
		return hit, err
	}
	return model.NewURLPackage(ref.Raw), nil
}

func matchURL(ref Ref, known []*model.Package) (*model.Package, error) {
	return pick(ref, known, func(p *model.Package) bool {
		return model.CanonicalURL(p.URL) == ref.Path
	})
}

func pick(ref Ref, known []*model.Package, match func(*model.Package) bool) (*model.Package, error) {
	var hits []*model.Package
	for _, p := range known {
		if match(p) {
			hits = append(hits, p)
		}
	}
	switch len(hits) {
	case 0:
		return nil, nil
	case 1:
		return hits[0], nil
	default:
		names := make([]string, len(hits))
		for i, p := range hits {
			names[i] = p.QualifiedName()
		}
		return nil, errors.NewAmbiguityError(ref.Raw, names)
	}
}

// matchesPath reports whether want equals the trailing components of path.
func matchesPath(path string, want []string) bool {
	if len(want) == 0 {
		return false
	}
	have := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) > len(have) {
		return false
	}
	offset := len(have) - len(want)
	for i, w := range want {
		if have[offset+i] != w {
			return false
		}
	}
	return true
}
