// Package plan turns a scan result and requested identifier mappings into an
// ordered, top-down list of directory renames and file rewrites.
package plan

import (
	"fmt"
	"path"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
	"github.com/Bennylavaa/RealmPortal/internal/paths"
	"github.com/Bennylavaa/RealmPortal/internal/scan"
)

// Options controls which files are rewritten
type Options struct {
	// Extensions of files that hold configuration text. Defaults to domain.DefaultExtensions.
	Extensions []string
	// Exclude lists glob patterns of root-relative files that are never rewritten
	Exclude []string
}

// Build validates the mappings against the scan and computes the plan.
// Nothing is emitted unless every requested old identifier exists.
func Build(res *scan.Result, set domain.MappingSet, opts Options) (*Plan, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = domain.DefaultExtensions
	}

	accounts, err := resolveScope(res, set)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Mappings: set,
		Pairs:    set.Pairs(),
		Accounts: accounts,
	}
	if len(p.Pairs) == 0 {
		return p, nil
	}

	b := &builder{tree: newTree(res), set: set, opts: opts, plan: p, stranded: map[string]bool{}}

	if set.Realm.Active() {
		for _, f := range res.GlobalFiles {
			b.rewrite(f)
		}
	}
	for _, acct := range accounts {
		b.account(acct)
	}

	return p, nil
}

// resolveScope returns the accounts the plan covers and checks that every
// requested old identifier exists within them.
func resolveScope(res *scan.Result, set domain.MappingSet) ([]string, error) {
	accounts := res.AccountNames()
	scope := "any account"
	if set.Account.Requested() {
		if !res.HasAccount(set.Account.Old) {
			return nil, &domain.NotFoundError{Kind: domain.KindAccount, Name: set.Account.Old}
		}
		accounts = []string{set.Account.Old}
		scope = fmt.Sprintf("account %s", set.Account.Old)
	}

	realm := ""
	if set.Realm.Requested() {
		realm = set.Realm.Old
		if !res.HasRealm(realm, accounts...) {
			return nil, &domain.NotFoundError{Kind: domain.KindRealm, Name: realm, Scope: scope}
		}
	}

	if set.Character.Requested() {
		if !res.HasCharacter(set.Character.Old, realm, accounts...) {
			if realm != "" {
				scope = fmt.Sprintf("realm %s of %s", realm, scope)
			}
			return nil, &domain.NotFoundError{Kind: domain.KindCharacter, Name: set.Character.Old, Scope: scope}
		}
	}

	return accounts, nil
}

type builder struct {
	tree *tree
	set  domain.MappingSet
	opts Options
	plan *Plan

	// stranded holds entries a merge left behind in the source directory
	stranded map[string]bool
}

// account plans one account subtree: account rename, realm renames,
// character renames, then rewrites of every file in the final subtree.
func (b *builder) account(name string) {
	acctPath := paths.JoinPath(domain.AccountDir, name)
	if m := b.set.Account; m.Active() {
		acctPath = b.rename(acctPath, paths.JoinPath(domain.AccountDir, m.New))
	}

	if m := b.set.Realm; m.Active() {
		for _, realm := range b.realmDirs(acctPath) {
			if realm == m.Old {
				b.rename(path.Join(acctPath, m.Old), path.Join(acctPath, m.New))
			}
		}
	}

	if m := b.set.Character; m.Active() {
		for _, realm := range b.realmDirs(acctPath) {
			if target := b.characterRealm(); target != "" && realm != target {
				continue
			}
			from := path.Join(acctPath, realm, m.Old)
			if b.tree.isDir(from) {
				b.rename(from, path.Join(acctPath, realm, m.New))
			}
		}
	}

	for _, f := range b.tree.files(acctPath) {
		b.rewrite(f)
	}
}

// characterRealm is the realm character renames are confined to, or "" for
// every realm in the account.
func (b *builder) characterRealm() string {
	switch m := b.set.Realm; {
	case m.Active():
		return m.New
	case m.Requested():
		return m.Old
	}
	return ""
}

func (b *builder) realmDirs(acctPath string) []string {
	var realms []string
	for _, name := range b.tree.subdirs(acctPath) {
		if name != domain.SavedVariablesDir {
			realms = append(realms, name)
		}
	}
	return realms
}

func (b *builder) rename(from, to string) string {
	if !b.tree.isDir(from) {
		return from
	}
	merge, conflicts := b.tree.rename(from, to)
	var dsts []string
	for _, c := range conflicts {
		b.stranded[c.src] = true
		dsts = append(dsts, c.dst)
	}
	b.plan.Actions = append(b.plan.Actions, RenameDirectory(from, to, merge, dsts))
	return to
}

func (b *builder) rewrite(p string) {
	if b.isStranded(p) {
		return
	}
	if !paths.HasExtension(p, b.opts.Extensions) || paths.MatchAny(b.opts.Exclude, p) {
		return
	}
	b.plan.Actions = append(b.plan.Actions, RewriteFile(p, b.tree.origin(p), b.plan.Pairs))
}

func (b *builder) isStranded(p string) bool {
	for s := range b.stranded {
		if paths.IsUnder(p, s) {
			return true
		}
	}
	return false
}
