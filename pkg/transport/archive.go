package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/glorpus-work/zpkg/pkg/archive"
	"github.com/glorpus-work/zpkg/pkg/auth"
	"github.com/glorpus-work/zpkg/pkg/download"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// ArchiveBranch is the only version an archive package has. Its hash is the
// SHA-256 of the archive, so a changed upstream file reads as outdated.
const ArchiveBranch = "archive"

// ArchiveTransport serves sources and packages published as HTTP(S) archives.
type ArchiveTransport struct {
	downloader download.Manager
	extractor  *archive.Manager
	creds      auth.Credentials
	dir        string
}

// NewArchiveTransport creates an archive transport downloading into dir.
func NewArchiveTransport(downloader download.Manager, extractor *archive.Manager, creds auth.Credentials, dir string) *ArchiveTransport {
	return &ArchiveTransport{downloader: downloader, extractor: extractor, creds: creds, dir: dir}
}

func (a *ArchiveTransport) fetch(ctx context.Context, id, rawURL, checksum string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errors.ErrFetch, rawURL, err)
	}
	return a.downloader.Fetch(ctx, download.Item{
		ID:       id,
		URL:      u,
		Checksum: checksum,
		Auth:     a.creds.ForURL(rawURL),
	}, download.Options{Dir: a.dir, Fresh: checksum == ""})
}

// FetchIndex downloads and unpacks the source archive, then parses its index files.
func (a *ArchiveTransport) FetchIndex(ctx context.Context, source model.PackageSource) ([]*model.Package, error) {
	file, err := a.fetch(ctx, source.Name, source.Location, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(file) }()

	tmp, err := os.MkdirTemp(a.dir, "index-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create extraction directory")
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := a.extractor.ExtractAll(ctx, file, tmp); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrFetch, source.Location, err)
	}
	return ParseIndexDir(source.Name, tmp)
}

// ListVersionRefs downloads the archive and reports its digest as the
// single ArchiveBranch.
func (a *ArchiveTransport) ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error) {
	file, err := a.fetch(ctx, pkg.QualifiedName(), pkg.URL, "")
	if err != nil {
		return model.VersionRefs{}, err
	}
	sum, err := fileDigest(file)
	if err != nil {
		return model.VersionRefs{}, err
	}
	// Keep the file under its digest so the following FetchContent reuses it.
	if err := os.Rename(file, filepath.Join(a.dir, sum)); err != nil {
		_ = os.Remove(file)
	}
	return model.VersionRefs{
		Branches:      []model.Ref{{Name: ArchiveBranch, Hash: sum}},
		DefaultBranch: ArchiveBranch,
	}, nil
}

// ResolveRevision fails: archives carry no commit history.
func (a *ArchiveTransport) ResolveRevision(_ context.Context, pkg *model.Package, rev string) (string, error) {
	return "", fmt.Errorf("%w: %s has no revision %s", errors.ErrNoSuchVersion, pkg.QualifiedName(), rev)
}

// FetchContent downloads the archive, verifies it against sel.Hash and
// unpacks it into dir.
func (a *ArchiveTransport) FetchContent(ctx context.Context, pkg *model.Package, sel model.Selection, dir string) error {
	file, err := a.fetch(ctx, pkg.QualifiedName(), pkg.URL, sel.Hash)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(file) }()

	if err := a.extractor.ExtractAll(ctx, file, dir); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("%w: %s: %w", errors.ErrFetch, pkg.URL, err)
	}
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
