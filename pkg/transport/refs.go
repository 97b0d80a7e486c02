package transport

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/glorpus-work/zpkg/pkg/model"
)

const (
	tagRefPrefix = "refs/tags/"
	peeledSuffix = "^{}"
)

// ClassifyRefs turns an advertised reference list into tags and branches.
// Annotated tags are reported with the hash of the commit they point to. A
// symbolic HEAD names the default branch.
func ClassifyRefs(refs []*plumbing.Reference) model.VersionRefs {
	tags := map[string]string{}
	peeled := map[string]string{}
	branches := map[string]string{}
	var out model.VersionRefs

	for _, ref := range refs {
		name := ref.Name()
		if name == plumbing.HEAD {
			if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
				out.DefaultBranch = ref.Target().Short()
			}
			continue
		}
		if ref.Type() != plumbing.HashReference {
			continue
		}

		full := name.String()
		switch {
		case strings.HasPrefix(full, tagRefPrefix) && strings.HasSuffix(full, peeledSuffix):
			tag := strings.TrimSuffix(strings.TrimPrefix(full, tagRefPrefix), peeledSuffix)
			peeled[tag] = ref.Hash().String()
		case name.IsTag():
			tags[name.Short()] = ref.Hash().String()
		case name.IsBranch():
			branches[name.Short()] = ref.Hash().String()
		}
	}

	for tag, hash := range tags {
		if p, ok := peeled[tag]; ok {
			hash = p
		}
		out.Tags = append(out.Tags, model.Ref{Name: tag, Hash: hash})
	}
	for branch, hash := range branches {
		out.Branches = append(out.Branches, model.Ref{Name: branch, Hash: hash})
	}
	sort.Slice(out.Tags, func(i, j int) bool { return out.Tags[i].Name < out.Tags[j].Name })
	sort.Slice(out.Branches, func(i, j int) bool { return out.Branches[i].Name < out.Branches[j].Name })
	return out
}
