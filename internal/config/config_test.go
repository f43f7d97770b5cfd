package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"depdetective/internal/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != "." {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.Pin.Timeout != 5*time.Second {
		t.Errorf("Pin.Timeout = %v", cfg.Pin.Timeout)
	}
	if cfg.Output.Manifest != "requirements.txt" {
		t.Errorf("Output.Manifest = %q", cfg.Output.Manifest)
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		t.Error("default exclude dirs must not be empty")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depdetective.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
root = "myproject"

[scan]
exclude_dirs = ["node_modules", "vendor"]
local_modules = ["generated"]

[mappings.overrides]
SoCo = "soco"

[pin]
enabled = true
concurrency = 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != "myproject" {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.Mappings.Overrides["SoCo"] != "soco" {
		t.Errorf("Overrides = %v", cfg.Mappings.Overrides)
	}
	if !cfg.Pin.Enabled || cfg.Pin.Concurrency != 2 {
		t.Errorf("Pin = %+v", cfg.Pin)
	}
}

func TestLoad_InvalidIsConfigError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `root = `},
		{"bad version", `version = 9`},
		{"empty exclude", "[scan]\nexclude_dirs = [\"\"]"},
		{"empty override value", "[mappings.overrides]\nfoo = \"\""},
		{"whitespace override", "[mappings.overrides]\nfoo = \"two words\""},
		{"bad index url", "[pin]\nindex_url = \"ftp://pypi.org\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.IsCode(err, errors.CodeConfig) {
				t.Errorf("expected CONFIG_ERROR, got %v", err)
			}
			if err != nil && !errors.IsFatal(err) {
				t.Error("config errors must be fatal")
			}
		})
	}
}

func TestApplyMapFlags(t *testing.T) {
	cfg := &Config{}
	if err := ApplyMapFlags(cfg, []string{"SoCo:soco", "PIL:pillow-custom-fork"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Mappings.Overrides["SoCo"] != "soco" || cfg.Mappings.Overrides["PIL"] != "pillow-custom-fork" {
		t.Errorf("Overrides = %v", cfg.Mappings.Overrides)
	}
}

func TestApplyMapFlags_MalformedIsFatal(t *testing.T) {
	for _, bad := range []string{"noseparator", ":pkg", "mod:"} {
		err := ApplyMapFlags(&Config{}, []string{bad})
		if !errors.IsCode(err, errors.CodeConfig) {
			t.Errorf("ApplyMapFlags(%q): expected CONFIG_ERROR, got %v", bad, err)
		}
	}
}
