package model

import (
	"slices"
	"sort"
)

// Well-known metadata keys.
const (
	MetaDescription = "description"
	MetaURL         = "url"
	MetaTags        = "tags"
	MetaScriptDir   = "script_dir"
)

// RequiredMetadataKeys are always present in the metadata reported by info.
var RequiredMetadataKeys = []string{MetaDescription, MetaURL}

// MetadataEntry is a single key/value pair.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is an ordered string to string mapping. Insertion order is kept
// so that output is stable and mirrors the order of the source index.
type Metadata []MetadataEntry

// Get returns the value for key.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Set replaces the value of key or appends it.
func (m *Metadata) Set(key, value string) {
	for i, e := range *m {
		if e.Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, MetadataEntry{Key: key, Value: value})
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		keys = append(keys, e.Key)
	}
	return keys
}

// Clone returns a copy of the metadata.
func (m Metadata) Clone() Metadata {
	return slices.Clone(m)
}

// WithRequired returns a copy containing every required key, required keys
// first, followed by the remaining keys in their original order.
func (m Metadata) WithRequired(defaults map[string]string) Metadata {
	out := make(Metadata, 0, len(m)+len(RequiredMetadataKeys))
	for _, k := range RequiredMetadataKeys {
		v, ok := m.Get(k)
		if !ok {
			v = defaults[k]
		}
		out = append(out, MetadataEntry{Key: k, Value: v})
	}
	for _, e := range m {
		if !slices.Contains(RequiredMetadataKeys, e.Key) {
			out = append(out, e)
		}
	}
	return out
}

// MetadataFromMap builds metadata from a map with keys sorted.
func MetadataFromMap(values map[string]string) Metadata {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := make(Metadata, 0, len(keys))
	for _, k := range keys {
		m = append(m, MetadataEntry{Key: k, Value: values[k]})
	}
	return m
}
