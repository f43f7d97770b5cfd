package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"depdetective/internal/config"
	"depdetective/internal/engine"
	"depdetective/internal/history"
	"depdetective/internal/report"
)

func runOnce(ctx context.Context, cfg *config.Config, eng *engine.Engine, dryRun bool) error {
	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(result)

	if cfg.History.Enabled {
		recordRun(cfg, result)
	}

	if dryRun {
		fmt.Print(report.Render(result.Report))
		return nil
	}

	if err := report.WriteManifest(result.Report, cfg.Output.Manifest); err != nil {
		return err
	}
	slog.Info("manifest written", "path", cfg.Output.Manifest, "dependencies", len(result.Report.Entries))
	return nil
}

func printSummary(result *engine.Result) {
	slog.Info("scan complete",
		"run_id", result.RunID,
		"files", result.FileCount,
		"dependencies", len(result.Report.Entries),
		"parse_errors", len(result.ParseErrors),
	)

	for _, pe := range result.ParseErrors {
		fmt.Fprintf(os.Stderr, "warning: %s:%d: %s (file skipped)\n", pe.File, pe.Line, pe.Message)
	}
	for _, fe := range result.FileErrors {
		fmt.Fprintf(os.Stderr, "warning: %s: %v (file skipped)\n", fe.Path, fe.Err)
	}
	for _, root := range result.Unresolved {
		fmt.Fprintf(os.Stderr, "warning: no mapping for import %q, assuming package name matches\n", root)
	}
	for _, amb := range result.Ambiguous {
		fmt.Fprintf(os.Stderr, "warning: import %q matches several distributions (%s); using %q, add a -map override to force a choice\n",
			amb.ModuleRoot, strings.Join(amb.Candidates, ", "), amb.PackageName)
	}
	for _, lf := range result.LookupFailures {
		fmt.Fprintf(os.Stderr, "warning: could not pin %q: %v\n", lf.PackageName, lf.Err)
	}
}

func recordRun(cfg *config.Config, result *engine.Result) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		slog.Warn("failed to open history store", "path", cfg.History.Path, "error", err)
		return
	}
	defer store.Close()

	packages := make(map[string]string, len(result.Report.Entries))
	for _, entry := range result.Report.Entries {
		packages[entry.PackageName] = entry.Version
	}

	diff, err := store.DiffAgainstLatest(cfg.History.Project, packages)
	if err != nil {
		slog.Warn("failed to diff against previous run", "error", err)
	} else {
		if len(diff.Added) > 0 {
			slog.Info("new dependencies since last run", "packages", strings.Join(diff.Added, ", "))
		}
		if len(diff.Removed) > 0 {
			slog.Info("dropped dependencies since last run", "packages", strings.Join(diff.Removed, ", "))
		}
	}

	snapshot := history.Snapshot{
		RunID:       result.RunID,
		Timestamp:   result.StartedAt,
		FileCount:   result.FileCount,
		ParseErrors: len(result.ParseErrors),
		Unresolved:  len(result.Unresolved),
		Packages:    packages,
	}
	if err := store.SaveSnapshot(cfg.History.Project, snapshot); err != nil {
		slog.Warn("failed to record run history", "error", err)
	}
}
