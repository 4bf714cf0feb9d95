// Package journal persists migration reports in a SQLite database so past
// runs can be listed and inspected.
package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/report"
)

// timeLayout has fixed-width fractions so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no journaled run matches an ID
var ErrRunNotFound = errors.New("run not found")

// Journal records finished reports
type Journal struct {
	db *DB
}

// RunSummary is one row of the run history
type RunSummary struct {
	ID         string          `json:"run_id" yaml:"run_id"`
	Mode       report.Mode     `json:"mode" yaml:"mode"`
	DryRun     bool            `json:"dry_run" yaml:"dry_run"`
	Root       string          `json:"root" yaml:"root"`
	WorkRoot   string          `json:"work_root" yaml:"work_root"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	Counters   report.Counters `json:"counters" yaml:"counters"`
	ExitStatus int             `json:"exit_status" yaml:"exit_status"`
}

// New opens the journal at path and brings its schema up to date. Schema
// upgrades are logged to log, which may be nil.
func New(path string, log logrus.FieldLogger) (*Journal, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(log); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Path returns the journal's database file
func (j *Journal) Path() string {
	return j.db.Path()
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRun stores a report and all of its records in one transaction
func (j *Journal) RecordRun(rep *report.Report) error {
	mappings, err := json.Marshal(rep.Mappings)
	if err != nil {
		return fmt.Errorf("failed to encode mappings: %w", err)
	}

	var finished sql.NullString
	if rep.FinishedAt != nil {
		finished = sql.NullString{String: formatTime(*rep.FinishedAt), Valid: true}
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := rep.Totals
	_, err = tx.Exec(`
		INSERT INTO runs (id, mode, dry_run, root, work_root, mappings, started_at, finished_at,
			applied, merged, previewed, skipped, failed, conflicts, exit_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.RunID, string(rep.Mode), rep.DryRun, rep.Root, rep.WorkRoot, string(mappings),
		formatTime(rep.StartedAt), finished,
		c.Applied, c.Merged, c.Previewed, c.Skipped, c.Failed, c.Conflicts, rep.ExitStatus())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rep.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_records (run_id, seq, action, path, target, outcome, detail, count, conflicts, diff, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range rep.Items {
		conflicts, err := json.Marshal(nonNil(rec.Conflicts))
		if err != nil {
			return fmt.Errorf("failed to encode conflicts: %w", err)
		}
		if _, err := stmt.Exec(rep.RunID, rec.Seq, rec.Action, rec.Path, rec.Target, string(rec.Outcome),
			rec.Detail, rec.Count, string(conflicts), rec.Diff, rec.Error); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", rep.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns all.
func (j *Journal) ListRuns(limit int) ([]RunSummary, error) {
	query := `
		SELECT id, mode, dry_run, root, work_root, started_at,
			applied, merged, previewed, skipped, failed, conflicts, exit_status
		FROM runs
		ORDER BY started_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			s       RunSummary
			mode    string
			started string
		)
		c := &s.Counters
		if err := rows.Scan(&s.ID, &mode, &s.DryRun, &s.Root, &s.WorkRoot, &started,
			&c.Applied, &c.Merged, &c.Previewed, &c.Skipped, &c.Failed, &c.Conflicts, &s.ExitStatus); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Mode = report.Mode(mode)
		if s.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		runs = append(runs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a full report. id may be any unique prefix of a run ID.
func (j *Journal) GetRun(id string) (*report.Report, error) {
	if id == "" {
		return nil, ErrRunNotFound
	}

	fullID, err := j.resolveID(id)
	if err != nil {
		return nil, err
	}

	var (
		rep      report.Report
		mode     string
		mappings string
		started  string
		finished sql.NullString
	)
	c := &rep.Totals
	err = j.db.QueryRow(`
		SELECT id, mode, dry_run, root, work_root, mappings, started_at, finished_at,
			applied, merged, previewed, skipped, failed, conflicts
		FROM runs WHERE id = ?
	`, fullID).Scan(&rep.RunID, &mode, &rep.DryRun, &rep.Root, &rep.WorkRoot, &mappings, &started, &finished,
		&c.Applied, &c.Merged, &c.Previewed, &c.Skipped, &c.Failed, &c.Conflicts)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", fullID, err)
	}
	rep.Mode = report.Mode(mode)

	var set domain.MappingSet
	if err := json.Unmarshal([]byte(mappings), &set); err != nil {
		return nil, fmt.Errorf("failed to decode mappings of run %s: %w", fullID, err)
	}
	rep.Mappings = set

	if rep.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return nil, err
		}
		rep.FinishedAt = &t
	}

	rep.Items, err = j.records(fullID)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (j *Journal) resolveID(prefix string) (string, error) {
	rows, err := j.db.Query(`SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("failed to look up run %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating run ids: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id %q is ambiguous", prefix)
	}
}

func (j *Journal) records(runID string) ([]report.Record, error) {
	rows, err := j.db.Query(`
		SELECT seq, action, path, target, outcome, detail, count, conflicts, diff, error
		FROM run_records WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records of run %s: %w", runID, err)
	}
	defer rows.Close()

	records := []report.Record{}
	for rows.Next() {
		var (
			rec       report.Record
			outcome   string
			conflicts string
		)
		if err := rows.Scan(&rec.Seq, &rec.Action, &rec.Path, &rec.Target, &outcome, &rec.Detail,
			&rec.Count, &conflicts, &rec.Diff, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Outcome = report.Outcome(outcome)
		if err := json.Unmarshal([]byte(conflicts), &rec.Conflicts); err != nil {
			return nil, fmt.Errorf("failed to decode conflicts of record %d: %w", rec.Seq, err)
		}
		if len(rec.Conflicts) == 0 {
			rec.Conflicts = nil
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
