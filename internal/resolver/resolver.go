package resolver

import (
	"depdetective/internal/classifier"
	"depdetective/internal/parser"
)

type Confidence int

const (
	ExactMapping Confidence = iota
	IdentityFallback
	AmbiguousMapping
)

func (c Confidence) String() string {
	switch c {
	case ExactMapping:
		return "exact"
	case IdentityFallback:
		return "identity-fallback"
	case AmbiguousMapping:
		return "ambiguous"
	}
	return "unknown"
}

// Resolution maps one third-party module root to its distribution name.
// Candidates holds more than one entry only for ambiguous curated
// mappings; PackageName is then the first candidate.
type Resolution struct {
	ModuleRoot  string
	PackageName string
	Candidates  []string
	Confidence  Confidence
	Records     []parser.ImportRecord
}

// Resolver turns third-party module roots into installable distribution
// names. Resolution is a pure lookup: user override, then curated table,
// then identity fallback.
type Resolver struct {
	curated   map[string][]string
	overrides map[string]string
}

func New(overrides map[string]string) (*Resolver, error) {
	curated, err := loadCurated()
	if err != nil {
		return nil, err
	}
	return &Resolver{curated: curated, overrides: overrides}, nil
}

// Resolve is idempotent: the same module root always yields the same
// package name and confidence while the tables are unchanged.
func (r *Resolver) Resolve(mod *classifier.ClassifiedModule) Resolution {
	res := Resolution{
		ModuleRoot: mod.ModuleRoot,
		Records:    mod.Records,
	}

	if pkg, ok := r.overrides[mod.ModuleRoot]; ok {
		res.PackageName = pkg
		res.Candidates = []string{pkg}
		res.Confidence = ExactMapping
		return res
	}

	if candidates, ok := r.curated[mod.ModuleRoot]; ok {
		res.PackageName = candidates[0]
		res.Candidates = candidates
		if len(candidates) > 1 {
			res.Confidence = AmbiguousMapping
		} else {
			res.Confidence = ExactMapping
		}
		return res
	}

	res.PackageName = mod.ModuleRoot
	res.Candidates = []string{mod.ModuleRoot}
	res.Confidence = IdentityFallback
	return res
}
