// Package model provides the data structures shared by the zpkg components:
// packages advertised by sources, installed packages with their status, and
// the version references reported by transports.
package model

import (
	"slices"
	"strings"
)

// Package is one entry of a source index, or a package installed directly
// from a URL (in which case Source is empty).
type Package struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	SourceDirectory string   `json:"source_directory,omitempty"`
	Source          string   `json:"source,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Metadata        Metadata `json:"metadata,omitempty"`
}

// NewSourcedPackage builds a package advertised by the named source.
func NewSourcedPackage(source, sourceDirectory, gitURL string) *Package {
	return &Package{
		Name:            NameFromURL(gitURL),
		URL:             gitURL,
		SourceDirectory: strings.Trim(sourceDirectory, "/"),
		Source:          source,
	}
}

// NewURLPackage builds a package that is not tied to any source.
func NewURLPackage(rawURL string) *Package {
	return &Package{
		Name: NameFromURL(rawURL),
		URL:  strings.TrimRight(rawURL, "/"),
	}
}

// IsSourced reports whether the package comes from a configured source.
func (p *Package) IsSourced() bool {
	return p.Source != ""
}

// QualifiedName is source/sourceDirectory for sourced packages and the
// canonical URL otherwise. It is the key of the installed package store.
func (p *Package) QualifiedName() string {
	if p.IsSourced() {
		return p.Source + "/" + p.SourceDirectory
	}
	return CanonicalURL(p.URL)
}

// NameWithSourceDirectory is the text matched by substring and regex searches.
func (p *Package) NameWithSourceDirectory() string {
	if p.IsSourced() && p.SourceDirectory != "" {
		return p.SourceDirectory
	}
	return p.Name
}

// String returns the qualified name.
func (p *Package) String() string {
	return p.QualifiedName()
}

// Less orders packages by qualified name.
func (p *Package) Less(other *Package) bool {
	return p.QualifiedName() < other.QualifiedName()
}

// Description returns the description metadata value, if any.
func (p *Package) Description() string {
	v, _ := p.Metadata.Get(MetaDescription)
	return v
}

// Clone returns a deep copy of the package.
func (p *Package) Clone() *Package {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.Metadata = p.Metadata.Clone()
	return &c
}

// SortPackages sorts packages in place by qualified name.
func SortPackages(pkgs []*Package) {
	slices.SortStableFunc(pkgs, func(a, b *Package) int {
		return strings.Compare(a.QualifiedName(), b.QualifiedName())
	})
}

// ArchiveSuffixes are the file extensions of packages and sources served as
// archives.
var ArchiveSuffixes = []string{".tar.gz", ".tgz", ".tar.xz", ".txz", ".tar.bz2", ".tar.zst", ".tar", ".zip"}

// NameFromURL returns the last path component of a git URL without a
// trailing .git or archive suffix.
func NameFromURL(rawURL string) string {
	u := CanonicalURL(rawURL)
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	return TrimArchiveSuffix(u)
}

// TrimArchiveSuffix removes one archive extension from name.
func TrimArchiveSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, s := range ArchiveSuffixes {
		if strings.HasSuffix(lower, s) && len(name) > len(s) {
			return name[:len(name)-len(s)]
		}
	}
	return name
}

// CanonicalURL strips trailing slashes and a trailing .git transport suffix.
func CanonicalURL(rawURL string) string {
	u := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	u = strings.TrimSuffix(u, ".git")
	return strings.TrimRight(u, "/")
}
