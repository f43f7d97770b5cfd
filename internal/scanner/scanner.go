package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"depdetective/internal/errors"
)

// Scanner enumerates the Python source files eligible for analysis.
// A Scanner is restartable: every call to Scan walks the tree again.
type Scanner struct {
	root      string
	selfPath  string
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func New(root string, excludeDirs, excludeFiles []string, selfPath string) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("resolve scan root %q", root))
	}

	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		fileGlobs = append(fileGlobs, g)
	}

	if selfPath != "" {
		if resolved, err := filepath.EvalSymlinks(selfPath); err == nil {
			selfPath = resolved
		}
	}

	return &Scanner{
		root:      abs,
		selfPath:  selfPath,
		dirGlobs:  dirGlobs,
		fileGlobs: fileGlobs,
	}, nil
}

// Scan walks the root and returns every eligible file in sorted order.
// Excluded directories are pruned, not filtered: the walk never descends
// into them. Each directory is visited at most once per scan, keyed by
// its resolved canonical path, so symlink cycles terminate.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	visited := make(map[string]bool)
	var files []string
	if err := s.walk(ctx, s.root, visited, &files); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, visited map[string]bool, files *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		slog.Warn("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}
	if visited[canonical] {
		return nil
	}
	visited[canonical] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(full); err == nil && info.IsDir() {
				isDir = true
			}
		}

		if isDir {
			if s.excludedDir(name) {
				continue
			}
			if err := s.walk(ctx, full, visited, files); err != nil {
				return err
			}
			continue
		}

		if !strings.HasSuffix(name, ".py") {
			continue
		}
		if s.excludedFile(name) {
			continue
		}
		if s.isSelf(full) {
			slog.Debug("skipping self-analysis", "path", full)
			continue
		}
		*files = append(*files, full)
	}
	return nil
}

func (s *Scanner) excludedDir(base string) bool {
	for _, g := range s.dirGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (s *Scanner) excludedFile(base string) bool {
	for _, g := range s.fileGlobs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (s *Scanner) isSelf(path string) bool {
	if s.selfPath == "" {
		return false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	return resolved == s.selfPath
}

// LocalModules indexes the project's own importable names: a top-level
// .py file is a module, a top-level directory holding __init__.py is a
// package. Projects using a src/ layout get both levels indexed. The
// override set is merged in verbatim.
func LocalModules(root string, overrides []string) map[string]bool {
	local := make(map[string]bool)

	scanRoots := []string{root}
	if src := filepath.Join(root, "src"); isDir(src) {
		scanRoots = append(scanRoots, src)
	}

	for _, base := range scanRoots {
		entries, err := os.ReadDir(base)
		if err != nil {
			slog.Warn("failed to index local modules", "path", base, "error", err)
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				if _, err := os.Stat(filepath.Join(base, name, "__init__.py")); err == nil {
					local[name] = true
				}
				continue
			}
			if strings.HasSuffix(name, ".py") {
				local[strings.TrimSuffix(name, ".py")] = true
			}
		}
	}

	for _, name := range overrides {
		local[name] = true
	}
	return local
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
