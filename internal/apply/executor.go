// Package apply executes migration plans against a WTF tree, either for real
// or as a dry-run preview that never touches the filesystem.
package apply

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Bennylavaa/RealmPortal/internal/match"
	"github.com/Bennylavaa/RealmPortal/internal/paths"
	"github.com/Bennylavaa/RealmPortal/internal/plan"
	"github.com/Bennylavaa/RealmPortal/internal/report"
)

// Executor runs the actions of a plan in order, recording one report entry per
// action. A failing action never aborts the run.
type Executor struct {
	root   string
	dryRun bool
	log    logrus.FieldLogger

	// conflicts holds destination files a merge refused to overwrite
	conflicts map[string]bool
	failed    []failedRename
}

type failedRename struct {
	seq      int
	from, to string
}

// New creates an executor for the tree at root
func New(root string, dryRun bool, log logrus.FieldLogger) *Executor {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Executor{
		root:      root,
		dryRun:    dryRun,
		log:       log,
		conflicts: map[string]bool{},
	}
}

// Run executes p and appends the outcome of every action to rep. The only
// error returned is one from the report itself.
func (e *Executor) Run(p *plan.Plan, rep *report.Report) error {
	replacer := match.New(p.Pairs)

	for _, a := range p.Actions {
		var rec report.Record
		switch a.Kind {
		case plan.ActionRenameDirectory:
			rec = e.renameDirectory(a)
		case plan.ActionRewriteFile:
			rec = e.rewriteFile(a, replacer)
		default:
			rec = report.Record{Action: string(a.Kind), Outcome: report.OutcomeFailed, Error: fmt.Sprintf("unknown action kind %q", a.Kind)}
		}

		rec, err := rep.Add(rec)
		if err != nil {
			return errors.Wrap(err, "record action")
		}
		if a.Kind == plan.ActionRenameDirectory && rec.Outcome == report.OutcomeFailed {
			e.failed = append(e.failed, failedRename{seq: rec.Seq, from: a.From, to: a.To})
		}
	}
	return nil
}

func (e *Executor) renameDirectory(a plan.Action) report.Record {
	rec := report.Record{Action: string(a.Kind), Path: a.From, Target: a.To}
	fields := logrus.Fields{"from": a.From, "to": a.To}

	if cause, ok := e.blocked(a.From, a.To); ok {
		rec.Outcome = report.OutcomeSkipped
		rec.Detail = fmt.Sprintf("depends on failed action #%d", cause)
		e.log.WithFields(fields).Warn("skipping rename after earlier failure")
		return rec
	}

	if e.dryRun {
		rec.Outcome = report.OutcomePreview
		rec.Detail = "rename"
		if a.Merge {
			rec.Detail = "merge"
		}
		rec.Conflicts = append([]string(nil), a.Conflicts...)
		e.moveConflicts(a.From, a.To)
		e.noteConflicts(rec.Conflicts)
		e.log.WithFields(fields).Debug("would " + a.Describe())
		return rec
	}

	merged, conflicts, err := migrateDir(e.root, a.From, a.To)
	rec.Conflicts = conflicts
	if err == nil {
		e.moveConflicts(a.From, a.To)
	}
	e.noteConflicts(conflicts)
	if err != nil {
		rec.Outcome = report.OutcomeFailed
		rec.Error = err.Error()
		e.log.WithFields(fields).WithError(err).Error("directory migration failed")
		return rec
	}

	rec.Outcome = report.OutcomeApplied
	if merged {
		rec.Outcome = report.OutcomeMerged
	}
	e.log.WithFields(fields).WithField("merged", merged).Info("directory migrated")
	return rec
}

func (e *Executor) noteConflicts(conflicts []string) {
	for _, c := range conflicts {
		e.conflicts[c] = true
		e.log.WithField("path", c).Warn("merge conflict: destination kept, source copy left in place")
	}
}

// moveConflicts keeps known conflicts pointing at their file after a later
// rename moves it.
func (e *Executor) moveConflicts(from, to string) {
	for c := range e.conflicts {
		if moved := paths.Rebase(c, from, to); moved != c {
			delete(e.conflicts, c)
			e.conflicts[moved] = true
		}
	}
}

func (e *Executor) rewriteFile(a plan.Action, r *match.Replacer) report.Record {
	rec := report.Record{Action: string(a.Kind), Path: a.Path}
	if a.Origin != "" && a.Origin != a.Path {
		rec.Detail = "from " + a.Origin
	}
	fields := logrus.Fields{"path": a.Path}

	if cause, ok := e.blocked(a.Path); ok {
		rec.Outcome = report.OutcomeSkipped
		rec.Detail = fmt.Sprintf("depends on failed action #%d", cause)
		e.log.WithFields(fields).Warn("skipping rewrite after earlier failure")
		return rec
	}

	if e.conflicted(a.Path) {
		rec.Outcome = report.OutcomeSkippedConflict
		rec.Detail = "merge conflict, destination content kept"
		e.log.WithFields(fields).Warn("not rewriting file that conflicted during merge; it may still reference old identifiers")
		return rec
	}

	src := a.Path
	if e.dryRun {
		src = a.Origin
	}

	res, err := rewriteFile(e.root, src, r, e.dryRun)
	switch {
	case errors.Is(err, errUnreadable):
		rec.Outcome = report.OutcomeSkippedUnreadable
		rec.Detail = err.Error()
		e.log.WithFields(fields).Warn("skipping unreadable file")
	case err != nil:
		rec.Outcome = report.OutcomeFailed
		rec.Error = err.Error()
		e.log.WithFields(fields).WithError(err).Error("rewrite failed")
	case res.count == 0:
		rec.Outcome = report.OutcomeSkippedNoOp
		e.log.WithFields(fields).Debug("no references")
	case e.dryRun:
		rec.Outcome = report.OutcomePreview
		rec.Count = res.count
		rec.Diff = res.diff
		e.log.WithFields(fields).WithField("count", res.count).Debug("would rewrite")
	default:
		rec.Outcome = report.OutcomeApplied
		rec.Count = res.count
		e.log.WithFields(fields).WithField("count", res.count).Info("file rewritten")
	}
	return rec
}

func (e *Executor) conflicted(p string) bool {
	for c := range e.conflicts {
		if paths.IsUnder(p, c) {
			return true
		}
	}
	return false
}

// blocked returns the sequence number of a failed rename that any of ps
// depends on.
func (e *Executor) blocked(ps ...string) (int, bool) {
	for _, f := range e.failed {
		for _, p := range ps {
			if paths.IsUnder(p, f.from) || paths.IsUnder(p, f.to) {
				return f.seq, true
			}
		}
	}
	return 0, false
}
