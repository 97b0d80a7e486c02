// Package manifest reads and validates the zpkg.yaml file at the root of
// every package.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
	"github.com/glorpus-work/zpkg/pkg/platform"
)

// FileName is the manifest file expected at the package root.
const FileName = "zpkg.yaml"

// DefaultScriptDir is used when the manifest does not name a script directory.
const DefaultScriptDir = "scripts"

// Manifest describes a package's layout and lifecycle hooks.
type Manifest struct {
	Description string            `yaml:"description" validate:"max=1024"`
	ScriptDir   string            `yaml:"script_dir,omitempty" validate:"omitempty,relpath"`
	Tags        []string          `yaml:"tags,omitempty" validate:"dive,required,max=64"`
	Hooks       Hooks             `yaml:"hooks,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" validate:"dive,keys,required,endkeys"`
	// Platforms restricts installation to matching os/arch pairs. Empty
	// means every platform.
	Platforms []string `yaml:"platforms,omitempty" validate:"dive,platform"`
}

// Hooks name tengo scripts, relative to the package root, run around
// installation and removal.
type Hooks struct {
	PostInstall string `yaml:"post_install,omitempty" validate:"omitempty,relpath"`
	PreRemove   string `yaml:"pre_remove,omitempty" validate:"omitempty,relpath"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("relpath", func(fl validator.FieldLevel) bool {
		return filepath.IsLocal(filepath.FromSlash(fl.Field().String()))
	})
	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		_, err := platform.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Parse decodes and validates manifest data. Unknown keys are rejected; an
// empty document is a manifest with every default.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", errors.ErrManifestInvalid, err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrManifestInvalid, err)
	}
	if m.ScriptDir == "" {
		m.ScriptDir = DefaultScriptDir
	}
	m.ScriptDir = filepath.Clean(filepath.FromSlash(m.ScriptDir))
	return &m, nil
}

// Load reads the manifest of the package checked out at dir and checks that
// the paths it names exist.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s missing", errors.ErrManifestInvalid, FileName)
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrManifestInvalid, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if st, err := os.Stat(filepath.Join(dir, m.ScriptDir)); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: script_dir %q does not exist", errors.ErrManifestInvalid, m.ScriptDir)
	}
	for _, hook := range []string{m.Hooks.PostInstall, m.Hooks.PreRemove} {
		if hook == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(hook))); err != nil {
			return nil, fmt.Errorf("%w: hook %q does not exist", errors.ErrManifestInvalid, hook)
		}
	}
	return m, nil
}

// Supports returns nil when p matches one of the declared platforms, or
// ErrUnsupportedPlatform otherwise.
func (m *Manifest) Supports(p platform.Platform) error {
	if len(m.Platforms) == 0 {
		return nil
	}
	for _, s := range m.Platforms {
		if want, err := platform.Parse(s); err == nil && want.Matches(p) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not in [%s]", errors.ErrUnsupportedPlatform, p, strings.Join(m.Platforms, ", "))
}

// Apply copies the manifest description, tags and metadata onto pkg,
// keeping values already present from the source index.
func (m *Manifest) Apply(pkg *model.Package) {
	if m.Description != "" && pkg.Description() == "" {
		pkg.Metadata.Set(model.MetaDescription, m.Description)
	}
	for _, t := range m.Tags {
		if !contains(pkg.Tags, t) {
			pkg.Tags = append(pkg.Tags, t)
		}
	}
	for _, k := range sortedKeys(m.Metadata) {
		if _, ok := pkg.Metadata.Get(k); !ok {
			pkg.Metadata.Set(k, m.Metadata[k])
		}
	}
	pkg.Metadata.Set(model.MetaScriptDir, filepath.ToSlash(m.ScriptDir))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
