package domain

import "fmt"

// Kind identifies which level of the WTF tree an identifier lives at
type Kind string

const (
	KindAccount   Kind = "account"
	KindRealm     Kind = "realm"
	KindCharacter Kind = "character"
)

// Well-known names in the WTF layout
const (
	AccountDir        = "Account"
	SavedVariablesDir = "SavedVariables"
)

// DefaultExtensions are the file extensions treated as addon/configuration text
var DefaultExtensions = []string{".lua", ".txt", ".toc", ".xml", ".wtf"}

// Mapping requests that identifier Old of the given kind become New.
// A mapping with an empty New, or New equal to Old, renames nothing.
type Mapping struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Old  string `json:"old,omitempty" yaml:"old,omitempty"`
	New  string `json:"new,omitempty" yaml:"new,omitempty"`
}

// Active reports whether the mapping changes anything
func (m *Mapping) Active() bool {
	return m != nil && m.Old != "" && m.New != "" && m.Old != m.New
}

// Requested reports whether an old identifier was named at all
func (m *Mapping) Requested() bool {
	return m != nil && m.Old != ""
}

func (m Mapping) String() string {
	if m.New == "" || m.New == m.Old {
		return fmt.Sprintf("%s %s", m.Kind, m.Old)
	}
	return fmt.Sprintf("%s %s -> %s", m.Kind, m.Old, m.New)
}

// Pair is one old->new text substitution
type Pair struct {
	Old string `json:"old" yaml:"old"`
	New string `json:"new" yaml:"new"`
}

// MappingSet holds at most one mapping per kind
type MappingSet struct {
	Account   *Mapping `json:"account,omitempty" yaml:"account,omitempty"`
	Realm     *Mapping `json:"realm,omitempty" yaml:"realm,omitempty"`
	Character *Mapping `json:"character,omitempty" yaml:"character,omitempty"`
}

// NewMappingSet builds a set from raw old/new values, dropping kinds with no
// values at all.
func NewMappingSet(oldAccount, newAccount, oldRealm, newRealm, oldChar, newChar string) MappingSet {
	build := func(kind Kind, oldName, newName string) *Mapping {
		if oldName == "" && newName == "" {
			return nil
		}
		return &Mapping{Kind: kind, Old: oldName, New: newName}
	}
	return MappingSet{
		Account:   build(KindAccount, oldAccount, newAccount),
		Realm:     build(KindRealm, oldRealm, newRealm),
		Character: build(KindCharacter, oldChar, newChar),
	}
}

// All returns the non-nil mappings in account, realm, character order
func (s MappingSet) All() []*Mapping {
	var out []*Mapping
	for _, m := range []*Mapping{s.Account, s.Realm, s.Character} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Pairs returns the active substitutions for file content.
// Order is realm, character, account.
func (s MappingSet) Pairs() []Pair {
	var pairs []Pair
	for _, m := range []*Mapping{s.Realm, s.Character, s.Account} {
		if m.Active() {
			pairs = append(pairs, Pair{Old: m.Old, New: m.New})
		}
	}
	return pairs
}

// HasChanges reports whether any mapping renames or rewrites something
func (s MappingSet) HasChanges() bool {
	return len(s.Pairs()) > 0
}
