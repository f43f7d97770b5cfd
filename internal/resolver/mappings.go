package resolver

import (
	_ "embed"

	"github.com/BurntSushi/toml"

	"depdetective/internal/errors"
)

//go:embed mappings.toml
var curatedData string

type curatedTable struct {
	Packages  map[string]string   `toml:"packages"`
	Ambiguous map[string][]string `toml:"ambiguous"`
}

func loadCurated() (map[string][]string, error) {
	var table curatedTable
	if _, err := toml.Decode(curatedData, &table); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "decode curated mapping table")
	}

	out := make(map[string][]string, len(table.Packages)+len(table.Ambiguous))
	for root, pkg := range table.Packages {
		out[root] = []string{pkg}
	}
	for root, candidates := range table.Ambiguous {
		if len(candidates) == 0 {
			return nil, errors.New(errors.CodeInternal, "ambiguous mapping for "+root+" has no candidates")
		}
		out[root] = candidates
	}
	return out, nil
}
