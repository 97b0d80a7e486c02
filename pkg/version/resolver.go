//go:generate mockgen -destination=./mocks/resolver.go . RefSource
package version

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// DefaultBranchCandidates are tried in order when the transport does not
// report a default branch.
var DefaultBranchCandidates = []string{"main", "master"}

var commitPattern = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

// RefSource lists and resolves version references of a package.
type RefSource interface {
	ListVersionRefs(ctx context.Context, pkg *model.Package) (model.VersionRefs, error)
	ResolveRevision(ctx context.Context, pkg *model.Package, rev string) (string, error)
}

// Resolver picks concrete versions for packages.
type Resolver struct {
	refs            RefSource
	defaultBranches []string
}

// NewResolver creates a resolver. An empty defaultBranches uses
// DefaultBranchCandidates.
func NewResolver(refs RefSource, defaultBranches []string) *Resolver {
	if len(defaultBranches) == 0 {
		defaultBranches = DefaultBranchCandidates
	}
	return &Resolver{refs: refs, defaultBranches: defaultBranches}
}

// Resolve selects the version of pkg to install.
//
// A requested version is matched as a tag, then a branch, then a commit hash,
// then as a version constraint over the tags. Without a request the highest
// version tag wins, falling back to the default branch.
func (r *Resolver) Resolve(ctx context.Context, pkg *model.Package, requested string) (model.Selection, error) {
	refs, err := r.refs.ListVersionRefs(ctx, pkg)
	if err != nil {
		return model.Selection{}, errors.Wrapf(err, "failed to list versions of %s", pkg.QualifiedName())
	}

	requested = strings.TrimSpace(requested)
	if requested != "" {
		return r.resolveRequested(ctx, pkg, refs, requested)
	}

	if tag, ok := LatestTag(refs.Tags); ok {
		return model.Selection{Label: tag.Name, Hash: tag.Hash, Kind: model.VersionTag}, nil
	}

	candidates := r.defaultBranches
	if refs.DefaultBranch != "" {
		candidates = append([]string{refs.DefaultBranch}, candidates...)
	}
	for _, name := range candidates {
		if b, ok := refs.Branch(name); ok {
			return model.Selection{Label: b.Name, Hash: b.Hash, Kind: model.VersionBranch}, nil
		}
	}

	return model.Selection{}, fmt.Errorf("%w: %s has no version tags and no default branch", errors.ErrNoSuchVersion, pkg.QualifiedName())
}

func (r *Resolver) resolveRequested(ctx context.Context, pkg *model.Package, refs model.VersionRefs, requested string) (model.Selection, error) {
	if t, ok := refs.Tag(requested); ok {
		return model.Selection{Label: t.Name, Hash: t.Hash, Kind: model.VersionTag}, nil
	}
	if b, ok := refs.Branch(requested); ok {
		return model.Selection{Label: b.Name, Hash: b.Hash, Kind: model.VersionBranch}, nil
	}

	if commitPattern.MatchString(requested) {
		if hash, ok := refs.CommitByPrefix(requested); ok {
			return model.Selection{Label: requested, Hash: hash, Kind: model.VersionCommit}, nil
		}
		hash, err := r.refs.ResolveRevision(ctx, pkg, requested)
		switch {
		case err == nil:
			return model.Selection{Label: requested, Hash: hash, Kind: model.VersionCommit}, nil
		case !errors.Is(err, errors.ErrNoSuchVersion):
			return model.Selection{}, err
		}
	}

	if constraint, err := goversion.NewConstraint(requested); err == nil {
		if tag, ok := latestMatching(refs.Tags, constraint); ok {
			logger.Debug("Version constraint matched tag", logger.Fields{
				"package":    pkg.QualifiedName(),
				"constraint": requested,
				"tag":        tag.Name,
			})
			return model.Selection{Label: tag.Name, Hash: tag.Hash, Kind: model.VersionTag}, nil
		}
	}

	return model.Selection{}, fmt.Errorf("%w: %q for %s", errors.ErrNoSuchVersion, requested, pkg.QualifiedName())
}

// CheckOutdated reports whether a newer selection than the installed one
// exists. Pinned packages are never outdated.
func (r *Resolver) CheckOutdated(ctx context.Context, ip *model.InstalledPackage) (bool, error) {
	if ip.Status.IsPinned {
		return false, nil
	}

	sel, err := r.Resolve(ctx, &ip.Package, "")
	if err != nil {
		return false, err
	}
	return sel.Hash != ip.Status.CurrentHash, nil
}

// LatestTag returns the tag with the highest version. Tags that do not parse
// as versions are ignored. Pre-releases only win when nothing else exists.
func LatestTag(tags []model.Ref) (model.Ref, bool) {
	return latestMatching(tags, nil)
}

func latestMatching(tags []model.Ref, constraint goversion.Constraints) (model.Ref, bool) {
	type candidate struct {
		ref model.Ref
		v   *goversion.Version
	}

	var stable, pre []candidate
	for _, t := range tags {
		v, err := goversion.NewVersion(t.Name)
		if err != nil {
			continue
		}
		if constraint != nil && !constraint.Check(v) {
			continue
		}
		if v.Prerelease() != "" {
			pre = append(pre, candidate{t, v})
		} else {
			stable = append(stable, candidate{t, v})
		}
	}

	pool := stable
	if len(pool) == 0 {
		pool = pre
	}
	if len(pool) == 0 {
		return model.Ref{}, false
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if c := pool[i].v.Compare(pool[j].v); c != 0 {
			return c > 0
		}
		return pool[i].ref.Name < pool[j].ref.Name
	})
	return pool[0].ref, true
}
