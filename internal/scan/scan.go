// Package scan discovers the accounts, realms and characters present in a
// WTF tree. Scanning is read-only.
package scan

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
)

// Result is the immutable outcome of one scan
type Result struct {
	Root     string    `json:"root" yaml:"root"`
	Accounts []Account `json:"accounts" yaml:"accounts"`

	// GlobalFiles are regular files directly under the root (Config.wtf and friends)
	GlobalFiles []string `json:"global_files,omitempty" yaml:"global_files,omitempty"`

	// Files and Dirs inventory everything below Account/ plus the global files,
	// as slash-separated paths relative to Root. Others holds the remaining
	// entries below Account/ (symlinks, sockets, devices), which are never
	// followed or rewritten but still occupy their name.
	Files  []string `json:"-" yaml:"-"`
	Dirs   []string `json:"-" yaml:"-"`
	Others []string `json:"-" yaml:"-"`

	// Skipped lists directories below Account/ that could not be read.
	// Their contents are missing from the inventory.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Account is one Account/<name> folder
type Account struct {
	Name   string  `json:"name" yaml:"name"`
	Realms []Realm `json:"realms" yaml:"realms"`
}

// Realm is one Account/<account>/<name> folder
type Realm struct {
	Name       string   `json:"name" yaml:"name"`
	Characters []string `json:"characters" yaml:"characters"`
}

// Scan walks root and returns the identifiers it finds.
// A missing Account folder yields an empty result. Symlinks are not followed.
// Unreadable folders below Account/ are listed in Skipped rather than failing
// the scan.
func Scan(root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &domain.PathError{Path: root, Reason: "cannot access source root", Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.PathError{Path: root, Reason: "source root is not a directory"}
	}

	res := &Result{Root: root}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &domain.PathError{Path: root, Reason: "cannot read source root", Err: err}
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			res.GlobalFiles = append(res.GlobalFiles, e.Name())
			res.Files = append(res.Files, e.Name())
		}
	}

	accountRoot := filepath.Join(root, domain.AccountDir)
	if fi, err := os.Lstat(accountRoot); err != nil || !fi.IsDir() {
		return res, nil
	}

	accounts := map[string]*Account{}
	realms := map[string]*Realm{}

	err = filepath.WalkDir(accountRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil && p == accountRoot {
			return walkErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			res.Skipped = append(res.Skipped, rel)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if d.Type().IsRegular() {
				res.Files = append(res.Files, rel)
			} else {
				res.Others = append(res.Others, rel)
			}
			return nil
		}
		res.Dirs = append(res.Dirs, rel)

		parts := strings.Split(rel, "/")
		switch len(parts) {
		case 2:
			acct := &Account{Name: parts[1]}
			accounts[parts[1]] = acct
		case 3:
			if parts[2] == domain.SavedVariablesDir {
				return nil
			}
			realm := &Realm{Name: parts[2]}
			realms[path.Join(parts[1], parts[2])] = realm
		case 4:
			realm, ok := realms[path.Join(parts[1], parts[2])]
			if !ok || parts[3] == domain.SavedVariablesDir {
				return nil
			}
			realm.Characters = append(realm.Characters, parts[3])
		}
		return nil
	})
	if err != nil {
		return nil, &domain.PathError{Path: accountRoot, Reason: "walk failed", Err: errors.WithStack(err)}
	}

	for key, realm := range realms {
		acctName, _, _ := strings.Cut(key, "/")
		sort.Strings(realm.Characters)
		accounts[acctName].Realms = append(accounts[acctName].Realms, *realm)
	}
	for _, acct := range accounts {
		sort.Slice(acct.Realms, func(i, j int) bool { return acct.Realms[i].Name < acct.Realms[j].Name })
		res.Accounts = append(res.Accounts, *acct)
	}
	sort.Slice(res.Accounts, func(i, j int) bool { return res.Accounts[i].Name < res.Accounts[j].Name })
	sort.Strings(res.GlobalFiles)
	sort.Strings(res.Files)
	sort.Strings(res.Dirs)
	sort.Strings(res.Others)
	sort.Strings(res.Skipped)

	return res, nil
}

// Account returns the named account, or nil
func (r *Result) Account(name string) *Account {
	for i := range r.Accounts {
		if r.Accounts[i].Name == name {
			return &r.Accounts[i]
		}
	}
	return nil
}

// HasAccount reports whether an account folder with exactly this name exists
func (r *Result) HasAccount(name string) bool {
	return r.Account(name) != nil
}

// HasRealm reports whether the realm exists in any of the given accounts
// (all accounts when none are given).
func (r *Result) HasRealm(realm string, accounts ...string) bool {
	for _, acct := range r.selectAccounts(accounts) {
		if acct.Realm(realm) != nil {
			return true
		}
	}
	return false
}

// HasCharacter reports whether the character exists in the given accounts,
// restricted to one realm when realm is non-empty.
func (r *Result) HasCharacter(character, realm string, accounts ...string) bool {
	for _, acct := range r.selectAccounts(accounts) {
		for _, rl := range acct.Realms {
			if realm != "" && rl.Name != realm {
				continue
			}
			if rl.HasCharacter(character) {
				return true
			}
		}
	}
	return false
}

// AccountNames returns every account name, sorted
func (r *Result) AccountNames() []string {
	names := make([]string, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		names = append(names, a.Name)
	}
	return names
}

// RealmNames returns the distinct realm names across all accounts, sorted
func (r *Result) RealmNames() []string {
	seen := map[string]bool{}
	for _, a := range r.Accounts {
		for _, rl := range a.Realms {
			seen[rl.Name] = true
		}
	}
	return sortedKeys(seen)
}

// CharacterNames returns the distinct character names across all realms, sorted
func (r *Result) CharacterNames() []string {
	seen := map[string]bool{}
	for _, a := range r.Accounts {
		for _, rl := range a.Realms {
			for _, c := range rl.Characters {
				seen[c] = true
			}
		}
	}
	return sortedKeys(seen)
}

// Realm returns the named realm within the account, or nil
func (a *Account) Realm(name string) *Realm {
	for i := range a.Realms {
		if a.Realms[i].Name == name {
			return &a.Realms[i]
		}
	}
	return nil
}

// HasCharacter reports whether the realm holds the named character folder
func (rl *Realm) HasCharacter(name string) bool {
	for _, c := range rl.Characters {
		if c == name {
			return true
		}
	}
	return false
}

func (r *Result) selectAccounts(names []string) []Account {
	if len(names) == 0 {
		return r.Accounts
	}
	var out []Account
	for _, n := range names {
		if a := r.Account(n); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
