package transport

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"

	"github.com/glorpus-work/zpkg/pkg/model"
)

func TestClassifyRefs(t *testing.T) {
	const (
		c1   = "1111111111111111111111111111111111111111"
		c2   = "2222222222222222222222222222222222222222"
		tagO = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	)
	refs := []*plumbing.Reference{
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main")),
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), plumbing.NewHash(c2)),
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("dev"), plumbing.NewHash(c1)),
		plumbing.NewHashReference(plumbing.NewTagReferenceName("1.0"), plumbing.NewHash(c1)),
		plumbing.NewHashReference(plumbing.NewTagReferenceName("2.0"), plumbing.NewHash(tagO)),
		plumbing.NewHashReference(plumbing.ReferenceName("refs/tags/2.0^{}"), plumbing.NewHash(c2)),
		plumbing.NewHashReference(plumbing.ReferenceName("refs/pull/1/head"), plumbing.NewHash(c1)),
	}

	got := ClassifyRefs(refs)

	assert.Equal(t, model.VersionRefs{
		Tags:          []model.Ref{{Name: "1.0", Hash: c1}, {Name: "2.0", Hash: c2}},
		Branches:      []model.Ref{{Name: "dev", Hash: c1}, {Name: "main", Hash: c2}},
		DefaultBranch: "main",
	}, got)
}

func TestClassifyRefs_DetachedHead(t *testing.T) {
	refs := []*plumbing.Reference{
		plumbing.NewHashReference(plumbing.HEAD, plumbing.NewHash("1111111111111111111111111111111111111111")),
	}
	got := ClassifyRefs(refs)
	assert.Empty(t, got.DefaultBranch)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Branches)
}
