package engine

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"depdetective/internal/classifier"
	"depdetective/internal/config"
	"depdetective/internal/observability"
	"depdetective/internal/parser"
	"depdetective/internal/pypi"
	"depdetective/internal/report"
	"depdetective/internal/resolver"
	"depdetective/internal/scanner"
)

// Engine runs the discovery pipeline: scan, extract, classify, resolve,
// pin, report. Data flows strictly forward; every per-file and
// per-lookup failure is collected into the result instead of aborting.
type Engine struct {
	cfg      *config.Config
	parser   *parser.Parser
	resolver *resolver.Resolver
	index    pypi.Index
}

// FileError is a file the scan could not read. The file is skipped and
// reported; the run continues.
type FileError struct {
	Path string
	Err  error
}

// Result is the full outcome of one run: the best-effort report plus
// the failure surface callers use to warn without failing.
type Result struct {
	RunID     string
	StartedAt time.Time

	Report  report.Report
	Modules map[string]*classifier.ClassifiedModule

	FileCount      int
	ParseErrors    []parser.ParseError
	FileErrors     []FileError
	Unresolved     []string // Module roots resolved by identity fallback
	Ambiguous      []resolver.Resolution
	LookupFailures []pypi.LookupFailure
}

// New builds an engine from a validated config. index may be nil when
// version pinning is disabled.
func New(cfg *config.Config, index pypi.Index) (*Engine, error) {
	res, err := resolver.New(cfg.Mappings.Overrides)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		parser:   parser.New(),
		resolver: res,
		index:    index,
	}, nil
}

// Run executes one full pipeline pass. The context aborts the run at
// any stage; no output is written here, so cancellation never corrupts
// a manifest.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	files, err := e.scan(ctx)
	if err != nil {
		return nil, err
	}
	result.FileCount = len(files)
	observability.FilesScannedTotal.Add(float64(len(files)))

	records, err := e.extract(ctx, files, result)
	if err != nil {
		return nil, err
	}

	phase := time.Now()
	local := scanner.LocalModules(e.cfg.Root, e.cfg.Scan.LocalModules)
	result.Modules = classifier.New(local).Classify(records)
	observability.PipelineDuration.WithLabelValues("classify").Observe(time.Since(phase).Seconds())

	resolutions := e.resolve(result)

	pins, err := e.pin(ctx, resolutions, result)
	if err != nil {
		return nil, err
	}

	result.Report = report.Build(resolutions, pins)
	return result, nil
}

func (e *Engine) scan(ctx context.Context) ([]string, error) {
	defer observePhase("scan")()

	s, err := scanner.New(e.cfg.Root, e.cfg.Scan.ExcludeDirs, e.cfg.Scan.ExcludeFiles, e.cfg.SelfPath)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx)
}

// extract parses files concurrently. Extraction per file is independent
// and side-effect-free, so ordering across files does not matter; the
// report builder re-sorts. Source order within a file is preserved.
func (e *Engine) extract(ctx context.Context, files []string, result *Result) ([]parser.ImportRecord, error) {
	defer observePhase("extract")()

	var mu sync.Mutex
	var records []parser.ImportRecord

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Scan.Workers)

	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				result.FileErrors = append(result.FileErrors, FileError{Path: path, Err: err})
				mu.Unlock()
				slog.Warn("skipping unreadable file", "path", path, "error", err)
				return nil
			}

			started := time.Now()
			recs, err := e.parser.ExtractFile(path, content)
			observability.ExtractionDuration.Observe(time.Since(started).Seconds())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if pe, ok := err.(*parser.ParseError); ok {
					observability.ParseErrorsTotal.Inc()
					result.ParseErrors = append(result.ParseErrors, *pe)
					slog.Warn("skipping file with syntax errors", "path", path, "line", pe.Line)
					return nil
				}
				return err
			}
			observability.ImportsExtractedTotal.Add(float64(len(recs)))
			records = append(records, recs...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic downstream processing regardless of worker order.
	sort.Slice(records, func(i, j int) bool {
		if records[i].SourceFile != records[j].SourceFile {
			return records[i].SourceFile < records[j].SourceFile
		}
		return records[i].Line < records[j].Line
	})
	return records, nil
}

func (e *Engine) resolve(result *Result) []resolver.Resolution {
	defer observePhase("resolve")()

	var resolutions []resolver.Resolution
	for _, root := range sortedRoots(result.Modules) {
		mod := result.Modules[root]
		if mod.Category != classifier.ThirdParty {
			continue
		}
		res := e.resolver.Resolve(mod)
		switch res.Confidence {
		case resolver.IdentityFallback:
			result.Unresolved = append(result.Unresolved, res.ModuleRoot)
		case resolver.AmbiguousMapping:
			result.Ambiguous = append(result.Ambiguous, res)
		}
		resolutions = append(resolutions, res)
	}
	return resolutions
}

func (e *Engine) pin(ctx context.Context, resolutions []resolver.Resolution, result *Result) (map[string]pypi.PinnedRequirement, error) {
	if !e.cfg.Pin.Enabled || e.index == nil {
		return nil, nil
	}
	defer observePhase("pin")()

	seen := make(map[string]bool, len(resolutions))
	var packages []string
	for _, res := range resolutions {
		if !seen[res.PackageName] {
			seen[res.PackageName] = true
			packages = append(packages, res.PackageName)
		}
	}

	pins, failures, err := pypi.Pin(ctx, e.index, packages, e.cfg.Pin.Concurrency)
	if err != nil {
		return nil, err
	}
	result.LookupFailures = failures
	return pins, nil
}

func sortedRoots(modules map[string]*classifier.ClassifiedModule) []string {
	roots := make([]string, 0, len(modules))
	for root := range modules {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

func observePhase(phase string) func() {
	started := time.Now()
	return func() {
		observability.PipelineDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
	}
}
