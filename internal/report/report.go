// Package report accumulates the outcome of every action attempted during a
// migration run.
package report

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
)

// Outcome is the result of one attempted action
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeMerged            Outcome = "merged"
	OutcomePreview           Outcome = "dry-run-preview"
	OutcomeSkippedNoOp       Outcome = "skipped-no-op"
	OutcomeSkipped           Outcome = "skipped"
	OutcomeSkippedUnreadable Outcome = "skipped-unreadable"
	OutcomeSkippedConflict   Outcome = "skipped-conflict"
	OutcomeFailed            Outcome = "failed"
)

// IsSkip reports whether the outcome is one of the skipped variants
func (o Outcome) IsSkip() bool {
	switch o {
	case OutcomeSkipped, OutcomeSkippedNoOp, OutcomeSkippedUnreadable, OutcomeSkippedConflict:
		return true
	}
	return false
}

// Mode describes how a run touches the filesystem
type Mode string

const (
	ModeInPlace Mode = "in-place"
	ModeCopy    Mode = "copy"
)

// Exit statuses derived from a finished report
const (
	ExitOK             = 0
	ExitPartialFailure = 3
)

// ErrFinalized is returned when adding to a report that has been finalized
var ErrFinalized = errors.New("report already finalized")

// Record is one attempted action
type Record struct {
	Seq       int      `json:"seq" yaml:"seq"`
	Action    string   `json:"action" yaml:"action"`
	Path      string   `json:"path" yaml:"path"`
	Target    string   `json:"target,omitempty" yaml:"target,omitempty"`
	Outcome   Outcome  `json:"outcome" yaml:"outcome"`
	Detail    string   `json:"detail,omitempty" yaml:"detail,omitempty"`
	Count     int      `json:"count,omitempty" yaml:"count,omitempty"`
	Conflicts []string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Diff      string   `json:"diff,omitempty" yaml:"diff,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Counters summarise a report
type Counters struct {
	Applied   int `json:"applied" yaml:"applied"`
	Merged    int `json:"merged" yaml:"merged"`
	Previewed int `json:"previewed" yaml:"previewed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
	Conflicts int `json:"conflicts" yaml:"conflicts"`
}

// Report is owned by a single run and never reused
type Report struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	Mode       Mode              `json:"mode" yaml:"mode"`
	DryRun     bool              `json:"dry_run" yaml:"dry_run"`
	Root       string            `json:"root" yaml:"root"`
	WorkRoot   string            `json:"work_root" yaml:"work_root"`
	Mappings   domain.MappingSet `json:"mappings" yaml:"mappings"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Items      []Record          `json:"records" yaml:"records"`
	Totals     Counters          `json:"counters" yaml:"counters"`
}

// New starts a report for a run over root
func New(root string, mode Mode, dryRun bool, mappings domain.MappingSet) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Mode:      mode,
		DryRun:    dryRun,
		Root:      root,
		WorkRoot:  root,
		Mappings:  mappings,
		StartedAt: time.Now().UTC(),
		Items:     []Record{},
	}
}

// Add appends a record, assigning its sequence number
func (r *Report) Add(rec Record) (Record, error) {
	if r.Finalized() {
		return rec, ErrFinalized
	}
	rec.Seq = len(r.Items) + 1
	r.Items = append(r.Items, rec)
	r.Totals.add(rec)
	return rec, nil
}

// Records returns a copy of the records in the order they were added
func (r *Report) Records() []Record {
	return append([]Record(nil), r.Items...)
}

// Counters returns the summary counters
func (r *Report) Counters() Counters {
	return r.Totals
}

// Finalize stamps the finish time; later Adds fail
func (r *Report) Finalize() {
	if r.FinishedAt != nil {
		return
	}
	now := time.Now().UTC()
	r.FinishedAt = &now
}

// Finalized reports whether Finalize has been called
func (r *Report) Finalized() bool {
	return r.FinishedAt != nil
}

// ExitStatus is ExitPartialFailure when any action failed
func (r *Report) ExitStatus() int {
	if r.Totals.Failed > 0 {
		return ExitPartialFailure
	}
	return ExitOK
}

func (c *Counters) add(rec Record) {
	switch {
	case rec.Outcome == OutcomeApplied:
		c.Applied++
	case rec.Outcome == OutcomeMerged:
		c.Merged++
	case rec.Outcome == OutcomePreview:
		c.Previewed++
	case rec.Outcome == OutcomeFailed:
		c.Failed++
	case rec.Outcome.IsSkip():
		c.Skipped++
	}
	c.Conflicts += len(rec.Conflicts)
}
