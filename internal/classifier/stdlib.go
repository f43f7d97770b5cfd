package classifier

import (
	_ "embed"
	"strings"
)

//go:embed stdlib/python.txt
var pythonStdlibData string

var pythonStdlib = map[string]bool{}

func init() {
	for _, line := range strings.Split(pythonStdlibData, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			pythonStdlib[line] = true
		}
	}
}

// IsStdlib reports whether a module root belongs to the Python standard
// library registry.
func IsStdlib(moduleRoot string) bool {
	return pythonStdlib[moduleRoot]
}
