package report

import (
	"sort"

	"depdetective/internal/pypi"
	"depdetective/internal/resolver"
	"depdetective/internal/util"
)

// Entry is one distribution package in the final report with the files
// that pulled it in.
type Entry struct {
	PackageName string
	Version     string // Empty when unpinned
	Confidence  resolver.Confidence
	ModuleRoots []string // Import roots that resolved here, sorted
	Provenance  []string // Source files, sorted
}

// Report is the ordered, deduplicated dependency report. Identical
// inputs always produce identical ordering and content.
type Report struct {
	Entries []Entry
}

// Build merges resolutions and pinned versions keyed by package name.
// Distinct module roots resolving to the same distribution collapse into
// one entry with unioned provenance; the strongest confidence wins.
func Build(resolutions []resolver.Resolution, pins map[string]pypi.PinnedRequirement) Report {
	type acc struct {
		confidence resolver.Confidence
		roots      map[string]bool
		provenance map[string]bool
	}
	merged := make(map[string]*acc)

	for _, res := range resolutions {
		a, ok := merged[res.PackageName]
		if !ok {
			a = &acc{
				confidence: res.Confidence,
				roots:      make(map[string]bool),
				provenance: make(map[string]bool),
			}
			merged[res.PackageName] = a
		}
		if res.Confidence < a.confidence {
			a.confidence = res.Confidence
		}
		a.roots[res.ModuleRoot] = true
		for _, rec := range res.Records {
			a.provenance[rec.SourceFile] = true
		}
	}

	entries := make([]Entry, 0, len(merged))
	for pkg, a := range merged {
		entry := Entry{
			PackageName: pkg,
			Confidence:  a.confidence,
			ModuleRoots: util.SortedStrings(a.roots),
			Provenance:  util.SortedStrings(a.provenance),
		}
		if pin, ok := pins[pkg]; ok && pin.Source == pypi.PyPILatest {
			entry.Version = pin.Version
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PackageName < entries[j].PackageName
	})
	return Report{Entries: entries}
}

// PackageNames returns the report's package names in order.
func (r Report) PackageNames() []string {
	names := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		names[i] = e.PackageName
	}
	return names
}
