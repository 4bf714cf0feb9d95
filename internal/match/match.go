// Package match implements whole-word, exact-case identifier substitution.
//
// A match counts only when it is not directly preceded or followed by a
// letter, digit or underscore, so "Stormrage" matches in "realm=Stormrage"
// but not in "StormrageEU". Every pair is matched against the original text;
// a span claimed by an earlier pair cannot be matched again by a later one, so
// replacements never chain.
package match

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
)

// Replacer applies an ordered list of substitutions
type Replacer struct {
	pairs []domain.Pair
}

type span struct {
	start, end int
	pair       int
}

// New builds a Replacer, keeping only pairs whose values are non-empty and distinct
func New(pairs []domain.Pair) *Replacer {
	r := &Replacer{}
	for _, p := range pairs {
		if p.Old == "" || p.New == "" || p.Old == p.New {
			continue
		}
		r.pairs = append(r.pairs, p)
	}
	return r
}

// Pairs returns the substitutions the Replacer will apply
func (r *Replacer) Pairs() []domain.Pair {
	return append([]domain.Pair(nil), r.pairs...)
}

// Empty reports whether the Replacer has nothing to substitute
func (r *Replacer) Empty() bool {
	return len(r.pairs) == 0
}

// Replace returns text with every whole-word occurrence substituted and the
// number of substitutions made. It works the same on a single path segment.
// When nothing matches the input is returned unchanged.
func (r *Replacer) Replace(text string) (string, int) {
	spans := r.find(text)
	if len(spans) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.start])
		b.WriteString(r.pairs[s.pair].New)
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String(), len(spans)
}

// Count returns how many substitutions Replace would make
func (r *Replacer) Count(text string) int {
	return len(r.find(text))
}

func (r *Replacer) find(text string) []span {
	var spans []span
	for i, p := range r.pairs {
		off := 0
		for off <= len(text)-len(p.Old) {
			idx := strings.Index(text[off:], p.Old)
			if idx < 0 {
				break
			}
			start := off + idx
			end := start + len(p.Old)
			if isWholeWord(text, start, end) && !overlaps(spans, start, end) {
				spans = append(spans, span{start: start, end: end, pair: i})
				off = end
				continue
			}
			_, size := utf8.DecodeRuneInString(text[start:])
			off = start + size
		}
	}
	sort.Slice(spans, func(a, b int) bool { return spans[a].start < spans[b].start })
	return spans
}

func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}
