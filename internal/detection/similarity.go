package detection

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// MatchThreshold is the score at which two forms are treated as the same name
const MatchThreshold = 0.85

// Similarity scores how alike two name forms are, from 0 (unrelated) to 1 (same).
// Implementations must be symmetric and safe for concurrent use.
type Similarity interface {
	Score(a, b string) float64
}

// EditDistanceSimilarity treats containment of one form in the other as a full
// match (both sides at least 4 characters) and otherwise scores by Levenshtein
// distance over the longer form (both sides at least 5 characters). The
// contained form must lead the other on a word boundary and must not be a
// generic word.
type EditDistanceSimilarity struct{}

func (EditDistanceSimilarity) Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la >= 4 && lb >= 4 && (leadingName(a, b, 4) || leadingName(b, a, 4)) {
		return 1
	}
	if la < 5 || lb < 5 {
		return 0
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1 - float64(dist)/float64(maxLen)
}

// TokenSetSimilarity compares the sets of words in each form (Dice coefficient).
// Word order and repetition are ignored.
type TokenSetSimilarity struct{}

func (TokenSetSimilarity) Score(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isWordRune(r)
	}) {
		set[tok] = struct{}{}
	}
	return set
}
