package plan

import (
	"fmt"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
)

// ActionKind discriminates the two kinds of plan entries
type ActionKind string

const (
	ActionRenameDirectory ActionKind = "rename-directory"
	ActionRewriteFile     ActionKind = "rewrite-file"
)

// Action is one step of a migration plan. All paths are slash-separated and
// relative to the plan root.
type Action struct {
	Kind ActionKind `json:"kind" yaml:"kind"`

	// RenameDirectory
	From      string   `json:"from,omitempty" yaml:"from,omitempty"`
	To        string   `json:"to,omitempty" yaml:"to,omitempty"`
	Merge     bool     `json:"merge,omitempty" yaml:"merge,omitempty"`
	Conflicts []string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// RewriteFile. Path is where the file lives once earlier renames have run,
	// Origin is where it lives in the untouched tree.
	Path         string        `json:"path,omitempty" yaml:"path,omitempty"`
	Origin       string        `json:"origin,omitempty" yaml:"origin,omitempty"`
	Replacements []domain.Pair `json:"replacements,omitempty" yaml:"replacements,omitempty"`
}

// RenameDirectory builds a directory rename action
func RenameDirectory(from, to string, merge bool, conflicts []string) Action {
	return Action{Kind: ActionRenameDirectory, From: from, To: to, Merge: merge, Conflicts: conflicts}
}

// RewriteFile builds a file rewrite action
func RewriteFile(path, origin string, pairs []domain.Pair) Action {
	return Action{Kind: ActionRewriteFile, Path: path, Origin: origin, Replacements: pairs}
}

// Describe renders the action as a single human-readable line
func (a Action) Describe() string {
	switch a.Kind {
	case ActionRenameDirectory:
		if a.Merge {
			return fmt.Sprintf("merge %s -> %s", a.From, a.To)
		}
		return fmt.Sprintf("rename %s -> %s", a.From, a.To)
	case ActionRewriteFile:
		return fmt.Sprintf("rewrite %s", a.Path)
	default:
		return string(a.Kind)
	}
}

// Plan is the ordered list of actions for one migration
type Plan struct {
	Mappings domain.MappingSet `json:"mappings" yaml:"mappings"`
	Pairs    []domain.Pair     `json:"pairs" yaml:"pairs"`
	Accounts []string          `json:"accounts" yaml:"accounts"`
	Actions  []Action          `json:"actions" yaml:"actions"`
}

// Empty reports whether the plan has nothing to do
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Count returns the number of actions of the given kind
func (p *Plan) Count(kind ActionKind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
