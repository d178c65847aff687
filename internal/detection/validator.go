package detection

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+|\n+`)

// Reasons a candidate is dropped by the validator
const (
	RejectStopword        = "stopword"
	RejectShape           = "shape"
	RejectEvidence        = "evidence"
	RejectNegativeContext = "negative_context"
)

// Validator drops low-quality candidates using shape, evidence and
// negative-context rules. Build one per analysis; it is read-only afterwards.
type Validator struct {
	allow map[string]struct{}
}

// NewValidator accepts allow-listed names without evidence and never drops
// them for negative context. The built-in allow list is always included.
func NewValidator(allow ...string) *Validator {
	v := &Validator{allow: make(map[string]struct{}, len(defaultAllowList)+len(allow))}
	for _, name := range defaultAllowList {
		v.allow[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range allow {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			v.allow[name] = struct{}{}
		}
	}
	return v
}

// Filter returns the texts of candidates that pass every rule, in input order
func (v *Validator) Filter(candidates []models.RawCandidate, fullText string) []string {
	kept := v.FilterCandidates(candidates, fullText)
	out := make([]string, len(kept))
	for i, c := range kept {
		out[i] = c.Text
	}
	return out
}

// FilterCandidates is Filter keeping the full candidate records
func (v *Validator) FilterCandidates(candidates []models.RawCandidate, fullText string) []models.RawCandidate {
	lowerText := strings.ToLower(fullText)
	sentences := splitSentences(lowerText)

	out := make([]models.RawCandidate, 0, len(candidates))
	for _, c := range candidates {
		if reason := v.check(c.Text, lowerText, sentences); reason == "" {
			out = append(out, c)
		}
	}
	return out
}

// Check reports why text would be dropped, or "" when it is kept
func (v *Validator) Check(text, fullText string) string {
	lowerText := strings.ToLower(fullText)
	return v.check(text, lowerText, splitSentences(lowerText))
}

func (v *Validator) check(text, lowerText string, sentences []string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if isStopword(lower) || utf8.RuneCountInString(trimmed) <= 2 {
		return RejectStopword
	}
	if !hasNameShape(trimmed) {
		return RejectShape
	}
	if v.allowed(lower) {
		return ""
	}
	if !hasEvidence(lower, lowerText, sentences) {
		return RejectEvidence
	}
	if inNegativeContext(lower, lowerText) {
		return RejectNegativeContext
	}
	return ""
}

func (v *Validator) allowed(lower string) bool {
	_, ok := v.allow[lower]
	return ok
}

// hasNameShape requires an upper-case start, a domain dot, an ampersand or an
// internal capital
func hasNameShape(s string) bool {
	return startsUpper(s) || strings.Contains(s, "&") || hasInternalUpper(s) || isDomainLike(s)
}

// hasEvidence requires two mentions, or one mention in a sentence that also
// carries a brand cue word
func hasEvidence(lower, lowerText string, sentences []string) bool {
	if len(wordIndexes(lowerText, lower)) >= 2 {
		return true
	}
	for _, sentence := range sentences {
		if len(wordIndexes(sentence, lower)) == 0 {
			continue
		}
		for _, word := range strings.FieldsFunc(sentence, func(r rune) bool { return !isWordRune(r) }) {
			if word == lower {
				continue
			}
			if _, cue := brandCueWords[word]; cue {
				return true
			}
		}
	}
	return false
}

// inNegativeContext reports a capability verb right after any mention
func inNegativeContext(lower, lowerText string) bool {
	for _, start := range wordIndexes(lowerText, lower) {
		end := start + len(lower)
		windowEnd := end + negativeWindow
		if windowEnd > len(lowerText) {
			windowEnd = len(lowerText)
		}
		window := lowerText[end:windowEnd]
		for _, word := range strings.FieldsFunc(window, func(r rune) bool { return !isWordRune(r) }) {
			if _, negative := negativeVerbs[word]; negative {
				return true
			}
		}
	}
	return false
}

func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
