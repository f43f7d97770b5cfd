package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depdetective/internal/config"
	"depdetective/internal/engine"
	"depdetective/internal/pypi"
	"depdetective/internal/watcher"
)

type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

var (
	configPath  = flag.String("config", "./depdetective.toml", "Path to config file")
	rootFlag    = flag.String("root", "", "Project root to scan (overrides config)")
	manifest    = flag.String("o", "", "Manifest output path (overrides config)")
	pin         = flag.Bool("pin", false, "Pin each dependency to the latest index version")
	timeout     = flag.Duration("timeout", 0, "Per-lookup timeout for index queries (overrides config)")
	watch       = flag.Bool("watch", false, "Re-run the scan when source files change")
	dryRun      = flag.Bool("dry-run", false, "Print the report without writing the manifest")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion = flag.Bool("version", false, "Print version and exit")

	excludeDirs stringList
	mapFlags    stringList
)

const VERSION = "1.0.0"

func main() {
	flag.Var(&excludeDirs, "exclude-dir", "Add a directory-name glob to the exclusion list (repeatable)")
	flag.Var(&mapFlags, "map", "Add an IMPORT:PACKAGE mapping override (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("depdetective v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg); err != nil {
		slog.Error("invalid flags", "error", err)
		os.Exit(1)
	}

	var index pypi.Index
	if cfg.Pin.Enabled {
		index = pypi.NewClient(cfg.Pin.IndexURL, cfg.Pin.Timeout, cfg.Pin.RatePerSecond)
	}

	eng, err := engine.New(cfg, index)
	if err != nil {
		slog.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOnce(ctx, cfg, eng, *dryRun); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	if !*watch {
		return
	}

	runs := make(chan struct{}, 1)
	w, err := watcher.New(cfg.Watch.Debounce, cfg.Scan.ExcludeDirs, func() {
		select {
		case runs <- struct{}{}:
		default:
		}
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(cfg.Root); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	slog.Info("watching for changes", "root", cfg.Root, "debounce", cfg.Watch.Debounce)

	for {
		select {
		case <-ctx.Done():
			return
		case <-runs:
			if err := runOnce(ctx, cfg, eng, *dryRun); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("rescan failed", "error", err)
			}
		}
	}
}

// applyFlags layers explicitly set CLI flags over the loaded config.
// The CLI wins on conflict.
func applyFlags(cfg *config.Config) error {
	if *rootFlag != "" {
		cfg.Root = *rootFlag
	} else if flag.NArg() > 0 {
		cfg.Root = flag.Arg(0)
	}
	if *manifest != "" {
		cfg.Output.Manifest = *manifest
	}
	if *timeout > time.Duration(0) {
		cfg.Pin.Timeout = *timeout
	}

	var pinSet bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "pin" {
			pinSet = true
		}
	})
	if pinSet {
		cfg.Pin.Enabled = *pin
	}

	cfg.Scan.ExcludeDirs = append(cfg.Scan.ExcludeDirs, excludeDirs...)
	if cfg.SelfPath == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.SelfPath = exe
		}
	}
	return config.ApplyMapFlags(cfg, mapFlags)
}
