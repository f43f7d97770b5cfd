package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"depdetective/internal/errors"
)

// Render serializes the report as a newline-delimited requirements
// listing: "name==version" when pinned, bare "name" otherwise.
func Render(r Report) string {
	var b strings.Builder
	for _, entry := range r.Entries {
		if entry.Version != "" {
			fmt.Fprintf(&b, "%s==%s\n", entry.PackageName, entry.Version)
		} else {
			fmt.Fprintf(&b, "%s\n", entry.PackageName)
		}
	}
	return b.String()
}

// WriteManifest writes the rendered report to path atomically: content
// lands in a temp file first and is renamed into place, so an aborted
// run never leaves a partial manifest.
func WriteManifest(r Report, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, fmt.Sprintf("create temp manifest in %q", dir))
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(Render(r)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeIO, "write manifest")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeIO, "close manifest")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeIO, fmt.Sprintf("rename manifest to %q", path))
	}
	return nil
}
