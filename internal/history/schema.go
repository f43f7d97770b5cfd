package history

import "database/sql"

const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS runs (
  run_id            TEXT NOT NULL,
  project_key       TEXT NOT NULL,
  schema_version    INTEGER NOT NULL,
  ts_utc            TEXT NOT NULL,
  file_count        INTEGER NOT NULL,
  dependency_count  INTEGER NOT NULL,
  parse_error_count INTEGER NOT NULL,
  unresolved_count  INTEGER NOT NULL,
  PRIMARY KEY (run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_project_ts ON runs (project_key, ts_utc);

CREATE TABLE IF NOT EXISTS run_packages (
  run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  package TEXT NOT NULL,
  version TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (run_id, package)
);
`

func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
