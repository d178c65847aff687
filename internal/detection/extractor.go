package detection

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
	"mvdan.cc/xurls/v2"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

const (
	maxCandidateLength   = 50
	maxProperNounLength  = 30
	minCandidateLength   = 2
	maxQuotedPhraseWords = 5
)

// capToken is a capitalized word; inner '.', '&' and '-' must be followed by
// more letters so sentence punctuation is never swallowed
const capToken = `[A-Z][A-Za-z0-9]*(?:[&.\-][A-Za-z0-9]+)*`

// capPhrase joins up to five capitalized words, allowing "of" and "&" between them
const capPhrase = capToken + `(?:(?:[ \t]+(?:of|&)[ \t]+|[ \t]+)` + capToken + `){0,4}`

var (
	competitiveBeforeRe = regexp.MustCompile(`(?i:\b(?:` + competitiveCuePattern + `))[ \t]+(` + capPhrase + `)`)
	competitiveAfterRe  = regexp.MustCompile(`(` + capPhrase + `)[ \t]+(?i:(?:` + trailingCuePattern + `)\b)`)
	quotedRe            = regexp.MustCompile(`["“]([^"“”\n]{2,50})["”]`)
	businessNounRe      = regexp.MustCompile(`(` + capPhrase + `)[ \t]+(?:is[ \t]+(?:an?|the)[ \t]+(?:[a-z\-]+[ \t]+){0,2})?(?i:(?:` + businessNounPattern + `)\b)`)
	internalCapsRe      = regexp.MustCompile(`\b[A-Za-z]*[a-z][A-Z][A-Za-z0-9]*\b`)
	properNounRe        = regexp.MustCompile(capPhrase)
	urlRe               = xurls.Relaxed()
)

type span struct {
	start, end int
}

type hit struct {
	text string
	// maxLen caps the trimmed length for rules with a tighter bound
	maxLen int
}

// Extractor pulls name-like strings out of free text with a fixed battery of
// independent pattern rules. It is stateless and safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns every candidate found by any rule, merged by exact text.
// MentionCount counts word-bounded occurrences of the candidate in text and
// FirstPositionRatio is its earliest byte offset over len(text). Candidates
// that only ever occur inside a longer candidate are dropped. Output is
// ordered by first position.
func (e *Extractor) Extract(text string) []models.RawCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var hits []hit
	hits = append(hits, submatchHits(competitiveBeforeRe, text, maxCandidateLength)...)
	hits = append(hits, submatchHits(competitiveAfterRe, text, maxCandidateLength)...)
	hits = append(hits, quotedHits(text)...)
	hits = append(hits, submatchHits(businessNounRe, text, maxCandidateLength)...)
	hits = append(hits, domainHits(text)...)
	hits = append(hits, wholeMatchHits(internalCapsRe, text, maxCandidateLength)...)
	hits = append(hits, wholeMatchHits(properNounRe, text, maxProperNounLength)...)

	texts := make(map[string]bool)
	for _, h := range hits {
		cleaned := stripLeadingFillers(h.text)
		n := utf8.RuneCountInString(cleaned)
		if n < minCandidateLength || n > h.maxLen {
			continue
		}
		if isStopword(cleaned) {
			continue
		}
		texts[cleaned] = true
	}

	occurrences := make(map[string][]span, len(texts))
	for t := range texts {
		for _, start := range wordIndexes(text, t) {
			occurrences[t] = append(occurrences[t], span{start: start, end: start + len(t)})
		}
	}

	out := make([]models.RawCandidate, 0, len(occurrences))
	for t, spans := range occurrences {
		if len(spans) == 0 || subsumed(t, spans, occurrences) {
			continue
		}
		out = append(out, models.RawCandidate{
			Text:               t,
			MentionCount:       len(spans),
			FirstPositionRatio: float64(spans[0].start) / float64(len(text)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstPositionRatio != out[j].FirstPositionRatio {
			return out[i].FirstPositionRatio < out[j].FirstPositionRatio
		}
		return out[i].Text < out[j].Text
	})
	return out
}

func submatchHits(re *regexp.Regexp, text string, maxLen int) []hit {
	var out []hit
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if len(m) < 4 || m[2] < 0 {
			continue
		}
		out = append(out, hit{text: text[m[2]:m[3]], maxLen: maxLen})
	}
	return out
}

func wholeMatchHits(re *regexp.Regexp, text string, maxLen int) []hit {
	var out []hit
	for _, m := range re.FindAllStringIndex(text, -1) {
		out = append(out, hit{text: text[m[0]:m[1]], maxLen: maxLen})
	}
	return out
}

func quotedHits(text string) []hit {
	var out []hit
	for _, m := range quotedRe.FindAllStringSubmatchIndex(text, -1) {
		phrase := strings.TrimSpace(text[m[2]:m[3]])
		if phrase == "" || isCTA(phrase) || len(strings.Fields(phrase)) > maxQuotedPhraseWords {
			continue
		}
		out = append(out, hit{text: phrase, maxLen: maxCandidateLength})
	}
	return out
}

// domainHits finds host names with an ICANN public suffix; e-mail addresses
// are skipped
func domainHits(text string) []hit {
	var out []hit
	for _, m := range urlRe.FindAllStringIndex(text, -1) {
		match := text[m[0]:m[1]]
		if strings.Contains(match, "@") {
			continue
		}
		offset := 0
		if i := strings.Index(match, "://"); i >= 0 {
			offset = i + 3
		}
		host := match[offset:]
		if i := strings.IndexAny(host, "/?#:"); i >= 0 {
			host = host[:i]
		}
		if strings.HasPrefix(strings.ToLower(host), "www.") {
			host = host[4:]
		}
		host = strings.TrimRight(host, ".")

		lower := strings.ToLower(host)
		suffix, icann := publicsuffix.PublicSuffix(lower)
		if !icann || suffix == lower || !strings.Contains(lower, ".") {
			continue
		}
		out = append(out, hit{text: host, maxLen: maxCandidateLength})
	}
	return out
}

// stripLeadingFillers removes capitalized sentence openers from the front of
// a phrase ("While Salesforce CRM" becomes "Salesforce CRM")
func stripLeadingFillers(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 {
		if _, filler := leadingFillers[strings.ToLower(words[0])]; !filler {
			break
		}
		words = words[1:]
		// a connector left at the front belonged to the dropped word
		for len(words) > 0 && (words[0] == "of" || words[0] == "&") {
			words = words[1:]
		}
	}
	return strings.Join(words, " ")
}

// subsumed reports whether every occurrence of t lies inside an occurrence of
// a longer candidate
func subsumed(t string, spans []span, all map[string][]span) bool {
	for _, s := range spans {
		covered := false
		for other, otherSpans := range all {
			if len(other) <= len(t) {
				continue
			}
			for _, o := range otherSpans {
				if o.start <= s.start && s.end <= o.end {
					covered = true
					break
				}
			}
			if covered {
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
