package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/errors"
	"github.com/glorpus-work/zpkg/pkg/model"
)

// Refresh re-fetches every source index and re-evaluates whether each
// installed package is outdated. Sources that fail are reported in the
// result and keep their previous entries.
func (o *Orchestrator) Refresh(ctx context.Context) (*RefreshReport, error) {
	res, err := o.Catalog.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	report := &RefreshReport{RefreshResult: res, Outdated: []string{}}

	installed := o.Store.All()
	outdated := make([]bool, len(installed))
	failures := make([]error, len(installed))

	g := new(errgroup.Group)
	g.SetLimit(o.opts.Concurrency)
	for i, ip := range installed {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, o.opts.OperationTimeout)
			defer cancel()
			probe := ip.Clone()
			probe.Package = *o.currentPackage(ip)
			outdated[i], failures[i] = o.Versions.CheckOutdated(cctx, probe)
			return nil
		})
	}
	_ = g.Wait()

	for i, ip := range installed {
		name := ip.Name()
		if failures[i] != nil {
			logger.Warn("Failed to check package for updates", logger.Fields{"package": name, "error": failures[i].Error()})
			report.CheckFailures = append(report.CheckFailures, PackageFailure{Name: name, Err: failures[i]})
			continue
		}
		if outdated[i] {
			report.Outdated = append(report.Outdated, name)
		}
		if outdated[i] != ip.Status.IsOutdated {
			o.markOutdated(ctx, name, outdated[i])
		}
	}
	return report, nil
}

func (o *Orchestrator) markOutdated(ctx context.Context, name string, outdated bool) {
	unlock, err := o.locks.lock(ctx, name)
	if err != nil {
		return
	}
	defer unlock()
	if _, err := o.Store.SetOutdated(ctx, name, outdated); err != nil {
		logger.Warn("Failed to record outdated state", logger.Fields{"package": name, "error": err.Error()})
	}
}

// List returns advertised and installed packages matching filter, ordered
// by qualified name.
func (o *Orchestrator) List(filter ListFilter) ([]Entry, error) {
	if filter == "" {
		filter = FilterAll
	}
	if !slices.Contains(Filters, filter) {
		return nil, fmt.Errorf("unknown list filter %q", filter)
	}

	var out []Entry
	for _, e := range o.entries() {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f ListFilter) matches(e Entry) bool {
	ip := e.Installed
	switch f {
	case FilterInstalled:
		return ip != nil
	case FilterNotInstalled:
		return ip == nil
	case FilterLoaded:
		return ip != nil && ip.Status.IsLoaded
	case FilterUnloaded:
		return ip != nil && !ip.Status.IsLoaded
	case FilterOutdated:
		return ip != nil && ip.Status.IsOutdated
	case FilterPinned:
		return ip != nil && ip.Status.IsPinned
	default:
		return true
	}
}

// entries merges the snapshot with the installed records.
func (o *Orchestrator) entries() []Entry {
	installed := map[string]*model.InstalledPackage{}
	for _, ip := range o.Store.All() {
		installed[ip.Name()] = ip
	}

	var out []Entry
	for _, p := range o.Catalog.Packages() {
		name := p.QualifiedName()
		out = append(out, Entry{Package: p, Installed: installed[name]})
		delete(installed, name)
	}
	for _, ip := range installed {
		out = append(out, Entry{Package: &ip.Package, Installed: ip})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Package.QualifiedName(), b.Package.QualifiedName())
	})
	return out
}

// Search matches query against package paths and tags. A query wrapped in
// slashes is a regular expression, anything else a case-insensitive
// substring. With fuzzyMatch the results are ranked by match quality.
func (o *Orchestrator) Search(query string, fuzzyMatch bool) ([]Entry, error) {
	all := o.entries()
	if fuzzyMatch {
		return fuzzySearch(query, all), nil
	}

	var match func(string) bool
	if len(query) >= 2 && strings.HasPrefix(query, "/") && strings.HasSuffix(query, "/") {
		re, err := regexp.Compile(query[1 : len(query)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid search expression %q: %w", query, err)
		}
		match = re.MatchString
	} else {
		needle := strings.ToLower(query)
		match = func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	}

	var out []Entry
	for _, e := range all {
		if match(e.Package.NameWithSourceDirectory()) || slices.ContainsFunc(e.Package.Tags, match) {
			out = append(out, e)
		}
	}
	return out, nil
}

type searchSource []Entry

func (s searchSource) String(i int) string {
	p := s[i].Package
	return p.NameWithSourceDirectory() + " " + strings.Join(p.Tags, " ")
}

func (s searchSource) Len() int { return len(s) }

func fuzzySearch(query string, all []Entry) []Entry {
	matches := fuzzy.FindFrom(query, searchSource(all))
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}

// Info describes ref with its installed state and available versions. A
// failure to list versions is reported in RefsErr.
func (o *Orchestrator) Info(ctx context.Context, ref string) (*Info, error) {
	pkg, err := o.resolveKnown(ref)
	if errors.Is(err, errors.ErrNotFound) {
		ip, ierr := o.resolveInstalled(ref)
		if ierr != nil {
			return nil, err
		}
		pkg = &ip.Package
	} else if err != nil {
		return nil, err
	}

	info := &Info{Entry: Entry{Package: pkg}}
	if ip, ok := o.Store.Find(pkg.QualifiedName()); ok {
		info.Installed = ip
	}

	cctx, cancel := context.WithTimeout(ctx, o.opts.OperationTimeout)
	defer cancel()
	refs, err := o.Fetcher.ListVersionRefs(cctx, pkg)
	if err != nil {
		info.RefsErr = err
	} else {
		info.Refs = &refs
	}
	return info, nil
}

// Sources returns the configured sources.
func (o *Orchestrator) Sources() []model.PackageSource {
	return o.Catalog.Sources()
}

// AddSource registers a source after probing its index.
func (o *Orchestrator) AddSource(ctx context.Context, name, location string) ([]*model.Package, error) {
	return o.Catalog.AddSource(ctx, name, location)
}

// RemoveSource unregisters a source. Packages installed from it stay
// installed.
func (o *Orchestrator) RemoveSource(name string) error {
	return o.Catalog.RemoveSource(name)
}
