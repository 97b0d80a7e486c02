package transport

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/identity"
	"github.com/glorpus-work/zpkg/pkg/model"
)

const (
	// IndexFileSuffix marks the files listing package URLs.
	IndexFileSuffix = ".index"
	// AggregateFileName holds per package metadata of a source.
	AggregateFileName = "aggregate.yaml"
)

// IndexEntry is one package line of an index file.
type IndexEntry struct {
	URL             string
	SourceDirectory string
}

// ParseIndex reads package URLs from r, one per line. Blank lines and lines
// starting with '#' are skipped. indexDir is the slash separated directory of
// the index file relative to the source root.
func ParseIndex(r io.Reader, indexDir string) ([]IndexEntry, error) {
	var entries []IndexEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !identity.IsURL(line) {
			logger.Warn("Skipping invalid index line", logger.Fields{"dir": indexDir, "line": lineNo, "value": line})
			continue
		}
		name := model.NameFromURL(line)
		if name == "" {
			continue
		}
		entries = append(entries, IndexEntry{
			URL:             line,
			SourceDirectory: strings.TrimPrefix(path.Join(indexDir, name), "./"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return entries, nil
}

// aggregateEntry is the metadata of one package in aggregate.yaml.
type aggregateEntry map[string]any

// ParseAggregate decodes aggregate.yaml: a mapping from source directory to
// metadata. tags may be a list or a comma separated string; other values are
// kept as strings.
func ParseAggregate(data []byte) (map[string]aggregateEntry, error) {
	var raw map[string]aggregateEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", AggregateFileName, err)
	}
	return raw, nil
}

func (a aggregateEntry) apply(pkg *model.Package) {
	if d, ok := a[model.MetaDescription]; ok {
		pkg.Metadata.Set(model.MetaDescription, fmt.Sprint(d))
	}
	switch tags := a[model.MetaTags].(type) {
	case []any:
		for _, t := range tags {
			pkg.Tags = append(pkg.Tags, strings.TrimSpace(fmt.Sprint(t)))
		}
	case string:
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				pkg.Tags = append(pkg.Tags, t)
			}
		}
	}

	keys := make([]string, 0, len(a))
	for k := range a {
		if k != model.MetaDescription && k != model.MetaTags && k != model.MetaURL {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		pkg.Metadata.Set(k, fmt.Sprint(a[k]))
	}
}

// ParseIndexDir builds the package list of the source checked out at root.
// Every *.index file below root contributes entries; aggregate.yaml at the
// root, when present, supplies metadata. Duplicate qualified names keep the
// first entry in walk order.
func ParseIndexDir(sourceName, root string) ([]*model.Package, error) {
	var aggregate map[string]aggregateEntry
	data, err := os.ReadFile(filepath.Join(root, AggregateFileName))
	switch {
	case err == nil:
		if aggregate, err = ParseAggregate(data); err != nil {
			return nil, errors.Wrapf(errors.ErrFetch, "source %s: %v", sourceName, err)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(errors.ErrFetch, "source %s: %v", sourceName, err)
	}

	seen := map[string]bool{}
	var pkgs []*model.Package
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), IndexFileSuffix) {
			return nil
		}

		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		entries, err := ParseIndex(f, filepath.ToSlash(rel))
		_ = f.Close()
		if err != nil {
			return err
		}

		for _, e := range entries {
			pkg := model.NewSourcedPackage(sourceName, e.SourceDirectory, e.URL)
			qn := pkg.QualifiedName()
			if seen[qn] {
				logger.Warn("Duplicate package in source index", logger.Fields{"package": qn})
				continue
			}
			seen[qn] = true
			if meta, ok := aggregate[e.SourceDirectory]; ok {
				meta.apply(pkg)
			}
			pkg.Metadata = pkg.Metadata.WithRequired(map[string]string{model.MetaURL: pkg.URL})
			pkgs = append(pkgs, pkg)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFetch, "source %s: %v", sourceName, err)
	}

	model.SortPackages(pkgs)
	logger.Debug("Parsed source index", logger.Fields{"source": sourceName, "packages": len(pkgs)})
	return pkgs, nil
}
