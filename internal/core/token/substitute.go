package token

import (
	"regexp"
	"sort"
	"strings"
)

var (
	angleTokenPattern    = regexp.MustCompile(`<<.+?>>`)
	leftOverTokenPattern = regexp.MustCompile(`<<.+?>>|\{\{.+?\}\}`)
)

// Sort orders definitions ascending by TokenLength. Ties keep their
// insertion order.
func Sort(defs []*Definition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].TokenLength() < defs[j].TokenLength()
	})
}

// IsSorted reports whether defs is in non-decreasing TokenLength order.
func IsSorted(defs []*Definition) bool {
	for i := 1; i < len(defs); i++ {
		if defs[i-1].TokenLength() > defs[i].TokenLength() {
			return false
		}
	}
	return true
}

// HasAngleTokens reports whether s carries any <<...>> token syntax.
func HasAngleTokens(s string) bool {
	return angleTokenPattern.MatchString(s)
}

// LeftOvers returns the bracket-delimited tokens still present in s.
func LeftOvers(s string) []string {
	return leftOverTokenPattern.FindAllString(s, -1)
}

// Resolved pairs a definition with its replacement value.
type Resolved struct {
	Def   *Definition
	Value string
}

type span struct {
	start, end int
	value      string
}

// Substitute performs one substitution pass over input.
//
// resolved must be in ascending TokenLength order; patterns are tried from the
// longest token down, always against the original input, so a match never
// overlaps a longer one already claimed and replacement text is never
// re-scanned. Every occurrence of a pattern is replaced. Patterns listed in
// skip are left untouched.
func Substitute(input string, resolved []Resolved, skip []string) string {
	if input == "" || len(resolved) == 0 {
		return input
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	var claimed []span
	for i := len(resolved) - 1; i >= 0; i-- {
		r := resolved[i]
		for j, pattern := range r.Def.patterns {
			if skipped[pattern] {
				continue
			}
			for _, loc := range r.Def.regexes[j].FindAllStringIndex(input, -1) {
				if loc[0] == loc[1] || overlaps(claimed, loc[0], loc[1]) {
					continue
				}
				claimed = append(claimed, span{start: loc[0], end: loc[1], value: r.Value})
			}
		}
	}
	if len(claimed) == 0 {
		return input
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })

	var b strings.Builder
	prev := 0
	for _, s := range claimed {
		b.WriteString(input[prev:s.start])
		b.WriteString(s.value)
		prev = s.end
	}
	b.WriteString(input[prev:])
	return b.String()
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}
