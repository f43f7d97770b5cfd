package classifier

import (
	"depdetective/internal/parser"
)

type Category int

const (
	Stdlib Category = iota
	Local
	ThirdParty
)

func (c Category) String() string {
	switch c {
	case Stdlib:
		return "stdlib"
	case Local:
		return "local"
	case ThirdParty:
		return "third-party"
	}
	return "unknown"
}

// ClassifiedModule groups every import record sharing one module root
// under its single category.
type ClassifiedModule struct {
	ModuleRoot string
	Category   Category
	Records    []parser.ImportRecord
}

// Classifier partitions module roots into stdlib, local and third-party.
// The local index is built from the scanned project tree plus any
// configured overrides.
type Classifier struct {
	local map[string]bool
}

func New(localModules map[string]bool) *Classifier {
	if localModules == nil {
		localModules = map[string]bool{}
	}
	return &Classifier{local: localModules}
}

// Classify assigns each distinct module root to exactly one category.
// Precedence is stdlib over local: a project file shadowing a stdlib
// module name still classifies as stdlib. Relative imports are local by
// definition and never consult the index.
func (c *Classifier) Classify(records []parser.ImportRecord) map[string]*ClassifiedModule {
	out := make(map[string]*ClassifiedModule)

	for _, rec := range records {
		if rec.ModuleRoot == "" {
			continue
		}

		mod, ok := out[rec.ModuleRoot]
		if !ok {
			mod = &ClassifiedModule{
				ModuleRoot: rec.ModuleRoot,
				Category:   c.categorize(rec),
			}
			out[rec.ModuleRoot] = mod
		}
		mod.Records = append(mod.Records, rec)
	}

	return out
}

func (c *Classifier) categorize(rec parser.ImportRecord) Category {
	switch {
	case IsStdlib(rec.ModuleRoot):
		return Stdlib
	case rec.IsRelative:
		return Local
	case c.local[rec.ModuleRoot]:
		return Local
	default:
		return ThirdParty
	}
}
