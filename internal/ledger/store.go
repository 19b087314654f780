package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	run_id            TEXT PRIMARY KEY,
	status            TEXT NOT NULL,
	model             TEXT NOT NULL,
	template_name     TEXT NOT NULL,
	config_json       TEXT NOT NULL,
	step_rewards_json TEXT NOT NULL,
	started_at        TEXT NOT NULL,
	completed_at      TEXT,
	failure_reason    TEXT,
	artifact_path     TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON training_runs(started_at);
`

// #endregion schema

// #region errors
// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// #endregion errors

// #region store
// Store is the durable run ledger, backed by SQLite. It is the only component
// holding cross-run state; it is stateless between calls and safe for
// concurrent writers targeting distinct run ids.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the ledger database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region append
// Append persists a run record snapshot. Append is idempotent by run id:
// re-appending the same id updates the stored row, which is what lets the
// trainer persist in-progress snapshots after every step.
func (s *Store) Append(rec RunRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("append: empty run id")
	}

	rewardsJSON, err := json.Marshal(rec.StepRewards)
	if err != nil {
		return fmt.Errorf("marshal step rewards: %w", err)
	}

	var completed interface{}
	if !rec.CompletedAt.IsZero() {
		completed = rec.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.Exec(
		`INSERT INTO training_runs
			(run_id, status, model, template_name, config_json, step_rewards_json,
			 started_at, completed_at, failure_reason, artifact_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			status            = excluded.status,
			step_rewards_json = excluded.step_rewards_json,
			completed_at      = excluded.completed_at,
			failure_reason    = excluded.failure_reason,
			artifact_path     = excluded.artifact_path`,
		rec.RunID,
		string(rec.Status),
		rec.Model,
		rec.TemplateName,
		rec.ConfigJSON,
		string(rewardsJSON),
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		completed,
		nullIfEmpty(rec.FailureReason),
		nullIfEmpty(rec.ArtifactPath),
	)
	if err != nil {
		return fmt.Errorf("append run %s: %w", rec.RunID, err)
	}
	return nil
}

// #endregion append

// #region get
// Get retrieves one run record by id.
func (s *Store) Get(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, status, model, template_name, config_json, step_rewards_json,
		        started_at, completed_at, failure_reason, artifact_path
		 FROM training_runs WHERE run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// #endregion get

// #region list
// List returns all run records, newest first.
func (s *Store) List() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, status, model, template_name, config_json, step_rewards_json,
		        started_at, completed_at, failure_reason, artifact_path
		 FROM training_runs ORDER BY started_at DESC, run_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return recs, nil
}

// #endregion list

// #region scan
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var status, startedStr, rewardsJSON string
	var completedStr, failureReason, artifactPath sql.NullString

	err := row.Scan(
		&rec.RunID, &status, &rec.Model, &rec.TemplateName, &rec.ConfigJSON,
		&rewardsJSON, &startedStr, &completedStr, &failureReason, &artifactPath,
	)
	if err != nil {
		return RunRecord{}, err
	}

	rec.Status = Status(status)
	if err := json.Unmarshal([]byte(rewardsJSON), &rec.StepRewards); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal step rewards: %w", err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	if completedStr.Valid {
		rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedStr.String)
	}
	if failureReason.Valid {
		rec.FailureReason = failureReason.String
	}
	if artifactPath.Valid {
		rec.ArtifactPath = artifactPath.String
	}
	return rec, nil
}

// #endregion scan

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
