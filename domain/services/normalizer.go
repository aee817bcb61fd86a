package services

import (
	"sort"
	"strings"
	"unicode"
)

// TokenSet is a set of lowercase keyword tokens extracted from one label
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given tokens
func NewTokenSet(tokens ...string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Has reports whether token is in the set
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Sorted returns the tokens in lexicographic order
func (s TokenSet) Sorted() []string {
	tokens := make([]string, 0, len(s))
	for token := range s {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Normalize canonicalizes a raw label for equality and deduplication:
// lowercase with surrounding whitespace removed.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}

// Tokenize breaks a label into its set of unique lowercase keywords.
// Runes that are neither letters, digits nor whitespace are dropped, so
// "Digital-PR" yields {"digitalpr"} while "Digital PR" yields {"digital", "pr"}.
func Tokenize(raw string) TokenSet {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(raw))

	// Fields trims and splits on whitespace runs and never yields empty tokens
	return NewTokenSet(strings.Fields(stripped)...)
}
