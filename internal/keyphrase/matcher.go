// Package keyphrase detects spoken command phrases in dictated text, runs
// their actions in the order they were spoken and strips them from the text.
package keyphrase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corinthian/sw-catcher/internal/actions"
)

// Strategy selects how keyphrases are matched against text.
type Strategy int

const (
	// Simple is a case-insensitive substring match.
	Simple Strategy = iota
	// WholeWord is a case-insensitive match anchored at word boundaries.
	WholeWord
	// Exact is a case-sensitive substring match.
	Exact
)

func (s Strategy) String() string {
	switch s {
	case WholeWord:
		return "wholeword"
	case Exact:
		return "exact"
	default:
		return "simple"
	}
}

// ParseStrategy maps a configuration value to a Strategy. ok is false for
// unrecognised values, which fall back to Simple.
func ParseStrategy(s string) (strategy Strategy, ok bool) {
	switch strings.ToLower(s) {
	case "simple":
		return Simple, true
	case "wholeword", "whole_word", "whole-word":
		return WholeWord, true
	case "exact":
		return Exact, true
	default:
		return Simple, false
	}
}

// Action pairs a configured keyphrase with its parsed action.
type Action struct {
	Keyphrase string
	Action    actions.Spec
}

// Match is one occurrence of a keyphrase. Start and End are byte offsets of
// the matched substring in the searched text.
type Match struct {
	Keyphrase string
	Action    actions.Spec
	Start     int
	End       int
}

// Find returns the byte offset of the first occurrence of phrase in haystack.
func Find(haystack, phrase string, strategy Strategy) (int, bool) {
	if phrase == "" {
		return 0, false
	}
	start, _, ok := compile(phrase, strategy).find(haystack)
	return start, ok
}

// DetectAll finds every occurrence of every keyphrase in text.
func DetectAll(text string, kas []Action, strategy Strategy) []Match {
	return NewMatcher(kas, strategy).DetectAll(text)
}

// Matcher holds precompiled patterns for a fixed keyphrase set.
type Matcher struct {
	strategy Strategy
	phrases  []phrase
}

type phrase struct {
	Action
	pattern pattern
}

// NewMatcher compiles one pattern per non-empty keyphrase.
func NewMatcher(kas []Action, strategy Strategy) *Matcher {
	m := &Matcher{strategy: strategy}
	for _, ka := range kas {
		if ka.Keyphrase == "" {
			continue
		}
		m.phrases = append(m.phrases, phrase{Action: ka, pattern: compile(ka.Keyphrase, strategy)})
	}
	return m
}

// Len returns the number of keyphrases the matcher looks for.
func (m *Matcher) Len() int {
	return len(m.phrases)
}

// Strategy returns the matching strategy.
func (m *Matcher) Strategy() Strategy {
	return m.strategy
}

// DetectAll scans text for all keyphrases. Occurrences of one phrase do not
// overlap each other; occurrences of different phrases may. The result is
// sorted by Start, ties keeping configuration order.
func (m *Matcher) DetectAll(text string) []Match {
	var matches []Match
	for _, p := range m.phrases {
		for _, loc := range p.pattern.findAll(text) {
			matches = append(matches, Match{
				Keyphrase: p.Keyphrase,
				Action:    p.Action.Action,
				Start:     loc[0],
				End:       loc[1],
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

// pattern finds one phrase under one strategy.
type pattern struct {
	literal string
	re      *regexp.Regexp
	// bounded accepts only hits that start and end on a word boundary.
	bounded bool
}

// compile builds the pattern for phrase. Case-insensitive strategies use a
// folded regexp so offsets always refer to the original text, even where
// lowercasing would change byte lengths. Word boundaries are checked on
// runes rather than with \b, which only knows ASCII word characters.
func compile(phrase string, strategy Strategy) pattern {
	switch strategy {
	case Exact:
		return pattern{literal: phrase}
	case WholeWord:
		return pattern{re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase)), bounded: true}
	default:
		return pattern{re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))}
	}
}

func (p pattern) find(s string) (start, end int, ok bool) {
	locs := p.search(s, 1)
	if len(locs) == 0 {
		return 0, 0, false
	}
	return locs[0][0], locs[0][1], true
}

// findAll returns the leftmost non-overlapping occurrences, each search
// resuming where the previous occurrence ended.
func (p pattern) findAll(s string) [][]int {
	return p.search(s, -1)
}

// search returns up to n occurrences (all when n < 0). A hit rejected for
// lacking a word boundary resumes the search one rune later.
func (p pattern) search(s string, n int) [][]int {
	var locs [][]int
	for offset := 0; offset < len(s) && (n < 0 || len(locs) < n); {
		start, end, ok := p.next(s[offset:])
		if !ok {
			break
		}
		start += offset
		end += offset
		if p.bounded && !(isBoundary(s, start) && isBoundary(s, end)) {
			_, size := utf8.DecodeRuneInString(s[start:])
			offset = start + max(size, 1)
			continue
		}
		locs = append(locs, []int{start, end})
		offset = max(end, start+1)
	}
	return locs
}

func (p pattern) next(s string) (start, end int, ok bool) {
	if p.re == nil {
		i := strings.Index(s, p.literal)
		if i < 0 {
			return 0, 0, false
		}
		return i, i + len(p.literal), true
	}
	loc := p.re.FindStringIndex(s)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// isBoundary reports whether byte offset i of s separates a word rune from a
// non-word rune. The ends of s count as non-word.
func isBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return unicode.In(r, unicode.L, unicode.M, unicode.Nd, unicode.Pc)
}
