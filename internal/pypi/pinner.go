package pypi

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"depdetective/internal/observability"
)

type VersionSource int

const (
	PyPILatest VersionSource = iota
	Unpinned
)

// PinnedRequirement is a package with an optionally resolved version.
// Version is empty exactly when Source is Unpinned.
type PinnedRequirement struct {
	PackageName string
	Version     string
	Source      VersionSource
}

// LookupFailure records one index lookup that degraded to unpinned.
type LookupFailure struct {
	PackageName string
	Err         error
}

// Pin fetches the latest version for each package concurrently, bounded
// by limit. Lookups are independent and order-insensitive; any failure
// degrades that package to unpinned rather than failing the run. Only
// context cancellation stops the whole fan-out.
func Pin(ctx context.Context, index Index, packages []string, limit int) (map[string]PinnedRequirement, []LookupFailure, error) {
	pinned := make(map[string]PinnedRequirement, len(packages))
	var failures []LookupFailure
	var mu sync.Mutex

	if limit <= 0 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, pkg := range packages {
		g.Go(func() error {
			version, err := index.LatestVersion(ctx, pkg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				observability.IndexLookupsTotal.WithLabelValues("failure").Inc()
				slog.Warn("version lookup failed, leaving unpinned", "package", pkg, "error", err)
				pinned[pkg] = PinnedRequirement{PackageName: pkg, Source: Unpinned}
				failures = append(failures, LookupFailure{PackageName: pkg, Err: err})
				return nil
			}
			observability.IndexLookupsTotal.WithLabelValues("success").Inc()
			pinned[pkg] = PinnedRequirement{PackageName: pkg, Version: version, Source: PyPILatest}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return pinned, failures, nil
}
