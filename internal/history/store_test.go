package history

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLatestSnapshot(t *testing.T) {
	s := openStore(t)

	snap := Snapshot{
		RunID:       "run-1",
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FileCount:   14,
		ParseErrors: 1,
		Unresolved:  2,
		Packages: map[string]string{
			"requests":       "2.32.3",
			"beautifulsoup4": "",
		},
	}
	if err := s.SaveSnapshot("myproject", snap); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestSnapshot("myproject")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.RunID != "run-1" || got.FileCount != 14 || got.ParseErrors != 1 || got.Unresolved != 2 {
		t.Errorf("snapshot = %+v", got)
	}
	if !got.Timestamp.Equal(snap.Timestamp) {
		t.Errorf("timestamp = %v, expected %v", got.Timestamp, snap.Timestamp)
	}
	if !reflect.DeepEqual(got.Packages, snap.Packages) {
		t.Errorf("packages = %v", got.Packages)
	}
}

func TestLatestSnapshot_Empty(t *testing.T) {
	s := openStore(t)

	got, err := s.LatestSnapshot("myproject")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil snapshot for empty history, got %+v", got)
	}
}

func TestLatestSnapshot_PicksNewest(t *testing.T) {
	s := openStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, runID := range []string{"run-1", "run-2", "run-3"} {
		err := s.SaveSnapshot("p", Snapshot{
			RunID:     runID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Packages:  map[string]string{"requests": ""},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LatestSnapshot("p")
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-3" {
		t.Errorf("latest = %q, expected run-3", got.RunID)
	}
}

func TestSnapshots_IsolatedByProject(t *testing.T) {
	s := openStore(t)

	if err := s.SaveSnapshot("alpha", Snapshot{RunID: "a1", Packages: map[string]string{"flask": ""}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot("beta", Snapshot{RunID: "b1", Packages: map[string]string{"django": ""}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestSnapshot("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Packages["django"]; ok {
		t.Error("alpha snapshot must not see beta packages")
	}
}

func TestDiffAgainstLatest(t *testing.T) {
	s := openStore(t)

	// First run: everything counts as added.
	diff, err := s.DiffAgainstLatest("p", map[string]string{"requests": "", "flask": ""})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(diff.Added, []string{"flask", "requests"}) || len(diff.Removed) != 0 {
		t.Errorf("first diff = %+v", diff)
	}

	err = s.SaveSnapshot("p", Snapshot{
		RunID:    "run-1",
		Packages: map[string]string{"requests": "", "flask": ""},
	})
	if err != nil {
		t.Fatal(err)
	}

	diff, err = s.DiffAgainstLatest("p", map[string]string{"requests": "", "numpy": ""})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(diff.Added, []string{"numpy"}) {
		t.Errorf("Added = %v", diff.Added)
	}
	if !reflect.DeepEqual(diff.Removed, []string{"flask"}) {
		t.Errorf("Removed = %v", diff.Removed)
	}
}

func TestSaveSnapshot_RejectsEmptyRunID(t *testing.T) {
	s := openStore(t)
	if err := s.SaveSnapshot("p", Snapshot{}); err == nil {
		t.Error("expected error for empty run id")
	}
}

func TestSaveSnapshot_RejectsUnknownSchemaVersion(t *testing.T) {
	s := openStore(t)
	err := s.SaveSnapshot("p", Snapshot{RunID: "r", SchemaVersion: SchemaVersion + 1})
	if err == nil {
		t.Error("expected error for unknown schema version")
	}
}

func TestOpen_RejectsDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error when history path is a directory")
	}
}
