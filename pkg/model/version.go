package model

import "strings"

// VersionKind tells what a version label refers to.
type VersionKind string

const (
	// VersionTag is a release tag.
	VersionTag VersionKind = "tag"
	// VersionBranch is a branch; its label is stable while its hash moves.
	VersionBranch VersionKind = "branch"
	// VersionCommit is a bare content hash.
	VersionCommit VersionKind = "commit"
)

// Selection is a concrete version chosen for a package. Label is what users
// see, Hash is the content address recorded in the store.
type Selection struct {
	Label string      `json:"label"`
	Hash  string      `json:"hash"`
	Kind  VersionKind `json:"kind"`
}

// Ref is a named VCS reference.
type Ref struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// VersionRefs are the references a transport reports for a package.
type VersionRefs struct {
	Tags          []Ref  `json:"tags"`
	Branches      []Ref  `json:"branches"`
	DefaultBranch string `json:"default_branch,omitempty"`
}

// Tag returns the tag named name.
func (v VersionRefs) Tag(name string) (Ref, bool) {
	return findRef(v.Tags, name)
}

// Branch returns the branch named name.
func (v VersionRefs) Branch(name string) (Ref, bool) {
	return findRef(v.Branches, name)
}

// CommitByPrefix returns the hash of any ref whose hash starts with prefix.
func (v VersionRefs) CommitByPrefix(prefix string) (string, bool) {
	if len(prefix) < 4 {
		return "", false
	}
	prefix = strings.ToLower(prefix)
	for _, refs := range [][]Ref{v.Tags, v.Branches} {
		for _, r := range refs {
			if strings.HasPrefix(r.Hash, prefix) {
				return r.Hash, true
			}
		}
	}
	return "", false
}

// TagNames returns the tag names in reported order.
func (v VersionRefs) TagNames() []string {
	names := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		names = append(names, t.Name)
	}
	return names
}

func findRef(refs []Ref, name string) (Ref, bool) {
	for _, r := range refs {
		if r.Name == name {
			return r, true
		}
	}
	return Ref{}, false
}
