package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Snapshot is one completed run's dependency set.
type Snapshot struct {
	RunID         string
	Timestamp     time.Time
	FileCount     int
	ParseErrors   int
	Unresolved    int
	Packages      map[string]string // package -> version ("" when unpinned)
	SchemaVersion int
}

// Diff is the package-level change between two snapshots.
type Diff struct {
	Added   []string
	Removed []string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(projectKey string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}
	if snapshot.RunID == "" {
		return fmt.Errorf("snapshot run id must not be empty")
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	return s.withRetry("save snapshot", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
INSERT INTO runs (run_id, project_key, schema_version, ts_utc, file_count, dependency_count, parse_error_count, unresolved_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snapshot.RunID,
			projectKey,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.FileCount,
			len(snapshot.Packages),
			snapshot.ParseErrors,
			snapshot.Unresolved,
		)
		if err != nil {
			return err
		}

		for pkg, version := range snapshot.Packages {
			if _, err := tx.Exec(
				`INSERT INTO run_packages (run_id, package, version) VALUES (?, ?, ?)`,
				snapshot.RunID, pkg, version,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// LatestSnapshot returns the most recent snapshot for the project, or
// nil when no run has been recorded yet.
func (s *Store) LatestSnapshot(projectKey string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	row := s.db.QueryRow(`
SELECT run_id, schema_version, ts_utc, file_count, parse_error_count, unresolved_count
FROM runs WHERE project_key = ? ORDER BY ts_utc DESC LIMIT 1`, projectKey)

	var snap Snapshot
	var ts string
	if err := row.Scan(&snap.RunID, &snap.SchemaVersion, &ts, &snap.FileCount, &snap.ParseErrors, &snap.Unresolved); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("corrupt run timestamp %q: %w", ts, err)
	}
	snap.Timestamp = parsed

	rows, err := s.db.Query(`SELECT package, version FROM run_packages WHERE run_id = ?`, snap.RunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap.Packages = make(map[string]string)
	for rows.Next() {
		var pkg, version string
		if err := rows.Scan(&pkg, &version); err != nil {
			return nil, err
		}
		snap.Packages[pkg] = version
	}
	return &snap, rows.Err()
}

// DiffAgainstLatest reports which packages the given set adds or drops
// relative to the most recent recorded run.
func (s *Store) DiffAgainstLatest(projectKey string, packages map[string]string) (Diff, error) {
	previous, err := s.LatestSnapshot(projectKey)
	if err != nil {
		return Diff{}, err
	}
	if previous == nil {
		added := make([]string, 0, len(packages))
		for pkg := range packages {
			added = append(added, pkg)
		}
		sort.Strings(added)
		return Diff{Added: added}, nil
	}

	var diff Diff
	for pkg := range packages {
		if _, ok := previous.Packages[pkg]; !ok {
			diff.Added = append(diff.Added, pkg)
		}
	}
	for pkg := range previous.Packages {
		if _, ok := packages[pkg]; !ok {
			diff.Removed = append(diff.Removed, pkg)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	return diff, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "locked") && !strings.Contains(err.Error(), "busy") {
			return fmt.Errorf("%s: %w", op, err)
		}
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return fmt.Errorf("%s after %d attempts: %w", op, maxAttempts, err)
}
