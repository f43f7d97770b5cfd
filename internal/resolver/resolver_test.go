package resolver

import (
	"testing"

	"depdetective/internal/classifier"
	"depdetective/internal/parser"
)

func module(root string, files ...string) *classifier.ClassifiedModule {
	mod := &classifier.ClassifiedModule{
		ModuleRoot: root,
		Category:   classifier.ThirdParty,
	}
	for _, f := range files {
		mod.Records = append(mod.Records, parser.ImportRecord{ModuleRoot: root, SourceFile: f})
	}
	return mod
}

func TestResolve_CuratedMapping(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		root    string
		pkg     string
	}{
		{"cv2", "opencv-python"},
		{"bs4", "beautifulsoup4"},
		{"PIL", "Pillow"},
		{"sklearn", "scikit-learn"},
		{"yaml", "PyYAML"},
	}
	for _, tt := range tests {
		res := r.Resolve(module(tt.root, "a.py"))
		if res.PackageName != tt.pkg {
			t.Errorf("Resolve(%s) = %s, expected %s", tt.root, res.PackageName, tt.pkg)
		}
		if res.Confidence != ExactMapping {
			t.Errorf("Resolve(%s) confidence = %v, expected exact", tt.root, res.Confidence)
		}
	}
}

func TestResolve_IdentityFallback(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	res := r.Resolve(module("somelib", "a.py"))
	if res.PackageName != "somelib" {
		t.Errorf("PackageName = %s, expected identity", res.PackageName)
	}
	if res.Confidence != IdentityFallback {
		t.Errorf("confidence = %v, expected identity-fallback", res.Confidence)
	}
}

func TestResolve_OverrideWinsOverBuiltin(t *testing.T) {
	r, err := New(map[string]string{"PIL": "pillow-custom-fork"})
	if err != nil {
		t.Fatal(err)
	}

	res := r.Resolve(module("PIL", "a.py"))
	if res.PackageName != "pillow-custom-fork" {
		t.Errorf("PackageName = %s, override must win over built-in Pillow", res.PackageName)
	}
	if res.Confidence != ExactMapping {
		t.Errorf("confidence = %v, expected exact", res.Confidence)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	first := r.Resolve(module("cv2", "a.py"))
	second := r.Resolve(module("cv2", "a.py"))
	if first.PackageName != second.PackageName || first.Confidence != second.Confidence {
		t.Errorf("resolution not idempotent: %+v vs %+v", first, second)
	}
}

func TestResolve_AmbiguousSurfacesAllCandidates(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	res := r.Resolve(module("google", "a.py"))
	if res.Confidence != AmbiguousMapping {
		t.Fatalf("confidence = %v, expected ambiguous", res.Confidence)
	}
	if len(res.Candidates) < 2 {
		t.Errorf("Candidates = %v, expected several", res.Candidates)
	}
	if res.PackageName != res.Candidates[0] {
		t.Errorf("PackageName %q must be the first candidate %q", res.PackageName, res.Candidates[0])
	}
}

func TestResolve_OverrideDisambiguates(t *testing.T) {
	r, err := New(map[string]string{"google": "google-auth"})
	if err != nil {
		t.Fatal(err)
	}

	res := r.Resolve(module("google", "a.py"))
	if res.Confidence != ExactMapping || res.PackageName != "google-auth" {
		t.Errorf("override should disambiguate, got %+v", res)
	}
}

func TestResolve_ManyRootsOneDistribution(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	a := r.Resolve(module("win32api", "a.py"))
	b := r.Resolve(module("win32com", "b.py"))
	if a.PackageName != "pywin32" || b.PackageName != "pywin32" {
		t.Errorf("expected both roots to resolve to pywin32, got %q and %q", a.PackageName, b.PackageName)
	}
}
