//go:generate mockgen -destination=./mocks/transport.go . Transport

// Package transport fetches source indexes, version references and package
// contents. Git repositories are handled with go-git; HTTP(S) archives go
// through the download and archive managers.
package transport

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/identity"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// Transport is the boundary to everything remote.
type Transport interface {
	// FetchIndex returns the packages advertised by source.
	FetchIndex(ctx context.Context, source model.PackageSource) ([]*model.Package, error)
	// FetchContent places the content of pkg at sel into dir. dir must not exist.
	FetchContent(ctx context.Context, pkg *model.Package, sel model.Selection, dir string) error
	// ListVersionRefs reports the tags and branches of pkg.
	ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error)
	// ResolveRevision expands a full or abbreviated commit hash of pkg.
	ResolveRevision(ctx context.Context, pkg *model.Package, rev string) (string, error)
}

// IsArchiveLocation reports whether location is an HTTP(S) URL of an archive.
func IsArchiveLocation(location string) bool {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, s := range model.ArchiveSuffixes {
		if strings.HasSuffix(p, s) {
			return true
		}
	}
	return false
}

// localPath strips a file:// scheme.
func localPath(location string) string {
	return strings.TrimPrefix(location, "file://")
}

// IsLocalDirectory reports whether location is an absolute path or file://
// URL of a directory that is not a git repository.
func IsLocalDirectory(location string) bool {
	location = localPath(location)
	if !filepath.IsAbs(location) {
		return false
	}
	st, err := os.Stat(location)
	if err != nil || !st.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(location, ".git"))
	return os.IsNotExist(err)
}

// ValidateLocation checks the syntax of a source location. Reachability is
// checked by fetching the index.
func ValidateLocation(location string) error {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return errors.Wrap(errors.ErrInvalidSource, "empty location")
	case identity.IsURL(location):
		return nil
	case filepath.IsAbs(location):
		if _, err := os.Stat(location); err != nil {
			return errors.Wrapf(errors.ErrInvalidSource, "location %s: %v", location, err)
		}
		return nil
	}
	return errors.Wrapf(errors.ErrInvalidSource, "location %s is neither a URL nor an absolute path", location)
}

// Mux routes each call to the transport serving the location.
type Mux struct {
	Git     Transport
	Archive Transport
	Local   Transport
}

// NewMux wires the three transports.
func NewMux(git, archive, local Transport) *Mux {
	return &Mux{Git: git, Archive: archive, Local: local}
}

func (m *Mux) pick(location string) Transport {
	switch {
	case IsArchiveLocation(location):
		return m.Archive
	case IsLocalDirectory(location) && m.Local != nil:
		return m.Local
	default:
		return m.Git
	}
}

// FetchIndex implements Transport.
func (m *Mux) FetchIndex(ctx context.Context, source model.PackageSource) ([]*model.Package, error) {
	return m.pick(source.Location).FetchIndex(ctx, source)
}

// FetchContent implements Transport.
func (m *Mux) FetchContent(ctx context.Context, pkg *model.Package, sel model.Selection, dir string) error {
	return m.pick(pkg.URL).FetchContent(ctx, pkg, sel, dir)
}

// ListVersionRefs implements Transport.
func (m *Mux) ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error) {
	return m.pick(pkg.URL).ListVersionRefs(ctx, pkg)
}

// ResolveRevision implements Transport.
func (m *Mux) ResolveRevision(ctx context.Context, pkg *model.Package, rev string) (string, error) {
	return m.pick(pkg.URL).ResolveRevision(ctx, pkg, rev)
}
