package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/fsutil"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// LocalBranch is the only version of a package kept in a plain directory.
const LocalBranch = "local"

// LocalTransport reads sources and packages from plain local directories.
type LocalTransport struct{}

// NewLocalTransport creates a local directory transport.
func NewLocalTransport() *LocalTransport {
	return &LocalTransport{}
}

// FetchIndex parses the index files below the source directory.
func (l *LocalTransport) FetchIndex(_ context.Context, source model.PackageSource) ([]*model.Package, error) {
	return ParseIndexDir(source.Name, localPath(source.Location))
}

// ListVersionRefs reports a digest of the directory tree as LocalBranch.
func (l *LocalTransport) ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error) {
	sum, err := treeDigest(ctx, localPath(pkg.URL))
	if err != nil {
		return model.VersionRefs{}, fmt.Errorf("%w: %s: %w", errors.ErrFetch, pkg.URL, err)
	}
	return model.VersionRefs{
		Branches:      []model.Ref{{Name: LocalBranch, Hash: sum}},
		DefaultBranch: LocalBranch,
	}, nil
}

// ResolveRevision fails: plain directories carry no history.
func (l *LocalTransport) ResolveRevision(_ context.Context, pkg *model.Package, rev string) (string, error) {
	return "", fmt.Errorf("%w: %s has no revision %s", errors.ErrNoSuchVersion, pkg.QualifiedName(), rev)
}

// FetchContent copies the package directory into dir.
func (l *LocalTransport) FetchContent(_ context.Context, pkg *model.Package, _ model.Selection, dir string) error {
	if err := fsutil.CopyDir(localPath(pkg.URL), dir); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("%w: %s: %w", errors.ErrFetch, pkg.URL, err)
	}
	return nil
}

// treeDigest hashes relative paths and contents of every regular file in
// walk order.
func treeDigest(ctx context.Context, root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		_, _ = io.WriteString(h, filepath.ToSlash(rel)+"\x00")
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = io.Copy(h, f)
		return err
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
