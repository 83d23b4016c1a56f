package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Legal-form suffixes removed from company names as whole words, tried in
// this order at each position.
var legalSuffixes = anchored(
	`llc`, `l\.l\.c`, `l\s+l\s+c`, `inc`, `corporation`, `corp`, `co`,
	`company`, `ltd`, `plc`, `construction`, `const`,
)

var reNamePunct = regexp.MustCompile(`[&\-.,]`)

// Spaced abbreviations such as "a b c". The three-letter form runs first so a
// real three-letter run is not split into a pair plus a stray letter.
var (
	spacedAbbr3 = anchored(`([a-z])\s+([a-z])\s+([a-z])`)
	spacedAbbr2 = anchored(`([a-z])\s+([a-z])`)
)

var nameStopwords = map[string]bool{
	"and": true,
	"the": true,
	"of":  true,
}

// NormalizeName returns the canonical form of a company name for fuzzy
// matching. It never fails; empty input yields an empty string.
func NormalizeName(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(norm.NFKC.String(raw))
	s = strings.ReplaceAll(s, "&", " and ")
	s = replaceWords(s, spacedAbbr3, joinGroups)
	s = replaceWords(s, spacedAbbr2, joinGroups)
	s = reNamePunct.ReplaceAllString(s, " ")
	s = replaceWords(s, legalSuffixes, dropMatch)

	fields := strings.Fields(s)
	tokens := fields[:0]
	for _, tok := range fields {
		if nameStopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return strings.Join(tokens, " ")
}

func anchored(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`^(?:` + p + `)`)
	}
	return out
}

func joinGroups(groups []string) string {
	return strings.Join(groups[1:], "")
}

func dropMatch([]string) string {
	return ""
}

// replaceWords replaces whole-word matches of patterns in one left-to-right
// pass. Letters and digits of every script count as word characters, so a
// Latin letter next to an accented one is not a word edge. At each position
// the first pattern that matches up to a word edge wins.
func replaceWords(s string, patterns []*regexp.Regexp, repl func(groups []string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if wordEdge(s, i) {
			if groups, end := matchWord(s, i, patterns); groups != nil {
				b.WriteString(repl(groups))
				i = end
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

func matchWord(s string, i int, patterns []*regexp.Regexp) ([]string, int) {
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(s[i:])
		if loc == nil || !wordEdge(s, i+loc[1]) {
			continue
		}
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s[i+loc[2*g] : i+loc[2*g+1]]
			}
		}
		return groups, i + loc[1]
	}
	return nil, 0
}

// wordEdge reports whether byte offset i of s lies between a word and a
// non-word character.
func wordEdge(s string, i int) bool {
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
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
