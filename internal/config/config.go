package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"depdetective/internal/errors"
)

type Config struct {
	Version  int      `toml:"version"`
	Root     string   `toml:"root"`
	SelfPath string   `toml:"self_path"`
	Scan     Scan     `toml:"scan"`
	Mappings Mappings `toml:"mappings"`
	Pin      Pin      `toml:"pin"`
	Output   Output   `toml:"output"`
	History  History  `toml:"history"`
	Watch    Watch    `toml:"watch"`
}

type Scan struct {
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	LocalModules []string `toml:"local_modules"`
	Workers      int      `toml:"workers"`
}

type Mappings struct {
	// Overrides maps an import module root to a distribution name and
	// always wins over the built-in curated table.
	Overrides map[string]string `toml:"overrides"`
}

type Pin struct {
	Enabled       bool          `toml:"enabled"`
	IndexURL      string        `toml:"index_url"`
	Timeout       time.Duration `toml:"timeout"`
	Concurrency   int           `toml:"concurrency"`
	RatePerSecond float64       `toml:"rate_per_second"`
}

type Output struct {
	Manifest string `toml:"manifest"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Project string `toml:"project"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Load reads a TOML config file, applies defaults and validates. A
// missing file is not an error: the defaults alone form a valid policy.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("parse config %q", path))
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("read config %q", path))
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = DefaultExcludeDirs()
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 8
	}
	if strings.TrimSpace(cfg.Pin.IndexURL) == "" {
		cfg.Pin.IndexURL = "https://pypi.org"
	}
	if cfg.Pin.Timeout <= 0 {
		cfg.Pin.Timeout = 5 * time.Second
	}
	if cfg.Pin.Concurrency <= 0 {
		cfg.Pin.Concurrency = 4
	}
	if cfg.Pin.RatePerSecond <= 0 {
		cfg.Pin.RatePerSecond = 10
	}
	if strings.TrimSpace(cfg.Output.Manifest) == "" {
		cfg.Output.Manifest = "requirements.txt"
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "depdetective.db"
	}
	if strings.TrimSpace(cfg.History.Project) == "" {
		cfg.History.Project = "default"
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

// DefaultExcludeDirs returns the directory-name globs pruned from every
// scan: hidden trees plus the usual build and environment directories.
func DefaultExcludeDirs() []string {
	return []string{".*", "__pycache__", "venv", "virtualenv", "dist", "build"}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.New(errors.CodeConfig, fmt.Sprintf("unsupported config version %d; supported version is 1", cfg.Version))
	}
	for _, d := range cfg.Scan.ExcludeDirs {
		if strings.TrimSpace(d) == "" {
			return errors.New(errors.CodeConfig, "scan.exclude_dirs must not include empty patterns")
		}
	}
	for _, m := range cfg.Scan.LocalModules {
		if strings.TrimSpace(m) == "" {
			return errors.New(errors.CodeConfig, "scan.local_modules must not include empty names")
		}
	}
	for root, pkg := range cfg.Mappings.Overrides {
		if strings.TrimSpace(root) == "" || strings.TrimSpace(pkg) == "" {
			return errors.New(errors.CodeConfig, "mappings.overrides keys and values must not be empty")
		}
		if strings.ContainsAny(root, " \t") || strings.ContainsAny(pkg, " \t") {
			return errors.New(errors.CodeConfig, fmt.Sprintf("mappings.overrides entry %q=%q must not contain whitespace", root, pkg))
		}
	}
	if !strings.HasPrefix(cfg.Pin.IndexURL, "http://") && !strings.HasPrefix(cfg.Pin.IndexURL, "https://") {
		return errors.New(errors.CodeConfig, fmt.Sprintf("pin.index_url must be an http(s) URL, got %q", cfg.Pin.IndexURL))
	}
	return nil
}

// ApplyMapFlags folds -map IMPORT:PACKAGE flags into the override table.
// A malformed mapping is a configuration error and aborts the run.
func ApplyMapFlags(cfg *Config, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	if cfg.Mappings.Overrides == nil {
		cfg.Mappings.Overrides = make(map[string]string, len(flags))
	}
	for _, m := range flags {
		root, pkg, ok := strings.Cut(m, ":")
		root = strings.TrimSpace(root)
		pkg = strings.TrimSpace(pkg)
		if !ok || root == "" || pkg == "" {
			return errors.New(errors.CodeConfig, fmt.Sprintf("invalid map %q, expected IMPORT:PACKAGE", m))
		}
		cfg.Mappings.Overrides[root] = pkg
	}
	return nil
}
