package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	gittransport "github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/auth"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

var hexRevision = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

// GitTransport talks to git remotes with go-git.
type GitTransport struct {
	creds   auth.Credentials
	tempDir string
}

// NewGitTransport creates a git transport. tempDir holds short lived
// checkouts of source indexes; the system temp dir is used when empty.
func NewGitTransport(creds auth.Credentials, tempDir string) *GitTransport {
	return &GitTransport{creds: creds, tempDir: tempDir}
}

func (g *GitTransport) authFor(rawURL string) gittransport.AuthMethod {
	return auth.GitAuthMethod(g.creds.ForURL(rawURL))
}

// FetchIndex clones the default branch of the source and parses its index files.
func (g *GitTransport) FetchIndex(ctx context.Context, source model.PackageSource) ([]*model.Package, error) {
	tmp, err := os.MkdirTemp(g.tempDir, "index-"+source.Name+"-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create checkout directory")
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	logger.Debug("Fetching source index", logger.Fields{"source": source.Name, "location": source.Location})
	_, err = git.PlainCloneContext(ctx, tmp, false, &git.CloneOptions{
		URL:          source.Location,
		Auth:         g.authFor(source.Location),
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return nil, fetchError(ctx, source.Location, err)
	}
	return ParseIndexDir(source.Name, tmp)
}

// ListVersionRefs lists the remote references without cloning.
func (g *GitTransport) ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{pkg.URL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: g.authFor(pkg.URL)})
	if err != nil {
		return model.VersionRefs{}, fetchError(ctx, pkg.URL, err)
	}
	return ClassifyRefs(refs), nil
}

// ResolveRevision expands rev to a full commit hash. Hashes advertised by a
// ref are answered from the ref list; anything else needs a clone.
func (g *GitTransport) ResolveRevision(ctx context.Context, pkg *model.Package, rev string) (string, error) {
	if !hexRevision.MatchString(rev) {
		return "", fmt.Errorf("%w: %s is not a commit hash", errors.ErrNoSuchVersion, rev)
	}
	refs, err := g.ListVersionRefs(ctx, pkg)
	if err != nil {
		return "", err
	}
	if hash, ok := refs.CommitByPrefix(rev); ok {
		return hash, nil
	}

	tmp, err := os.MkdirTemp(g.tempDir, "rev-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create checkout directory")
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	repo, err := git.PlainCloneContext(ctx, tmp, true, &git.CloneOptions{
		URL:  pkg.URL,
		Auth: g.authFor(pkg.URL),
	})
	if err != nil {
		return "", fetchError(ctx, pkg.URL, err)
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(strings.ToLower(rev)))
	if err != nil {
		return "", fmt.Errorf("%w: %s in %s", errors.ErrNoSuchVersion, rev, pkg.QualifiedName())
	}
	if _, err := repo.CommitObject(*hash); err != nil {
		return "", fmt.Errorf("%w: %s in %s", errors.ErrNoSuchVersion, rev, pkg.QualifiedName())
	}
	return hash.String(), nil
}

// FetchContent clones pkg into dir and checks out sel. The .git directory is
// dropped afterwards so dir holds only the package tree.
func (g *GitTransport) FetchContent(ctx context.Context, pkg *model.Package, sel model.Selection, dir string) error {
	opts := &git.CloneOptions{
		URL:  pkg.URL,
		Auth: g.authFor(pkg.URL),
	}
	switch sel.Kind {
	case model.VersionTag:
		opts.ReferenceName = plumbing.NewTagReferenceName(sel.Label)
		opts.SingleBranch = true
	case model.VersionBranch:
		opts.ReferenceName = plumbing.NewBranchReferenceName(sel.Label)
		opts.SingleBranch = true
	}

	logger.Debug("Cloning package", logger.Fields{"package": pkg.QualifiedName(), "version": sel.Label})
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return fetchError(ctx, pkg.URL, err)
	}

	if err := checkoutHash(repo, sel.Hash); err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("%w: %s at %s: %w", errors.ErrFetch, pkg.QualifiedName(), sel.Label, err)
	}
	return os.RemoveAll(filepath.Join(dir, git.GitDirName))
}

// checkoutHash moves the worktree to hash unless HEAD is already there.
func checkoutHash(repo *git.Repository, hash string) error {
	if hash == "" {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return err
	}
	if head.Hash().String() == hash {
		return nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(hash), Force: true})
}

func fetchError(ctx context.Context, location string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s: %w", errors.ErrFetch, location, err)
}
