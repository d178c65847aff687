package detection

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordIndexes returns the byte offsets of every occurrence of needle in
// haystack that is not glued to a neighbouring letter or digit. Matches do
// not overlap. Callers lower-case both sides for case-insensitive search.
func wordIndexes(haystack, needle string) []int {
	if needle == "" {
		return nil
	}
	var out []int
	from := 0
	for from <= len(haystack)-len(needle) {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			out = append(out, start)
			from = end
			continue
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		from = start + size
	}
	return out
}

// FirstWordIndex returns the byte offset in text of the first word-bounded,
// case-insensitive occurrence of name, or -1
func FirstWordIndex(text, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	idx := wordIndexes(lowerSameWidth(text), lowerSameWidth(name))
	if len(idx) == 0 {
		return -1
	}
	return idx[0]
}

// lowerSameWidth lower-cases s rune by rune. Runes whose lower case encodes
// to a different width, and invalid bytes, are kept as written, so offsets
// into the result are offsets into s.
func lowerSameWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		l := unicode.ToLower(r)
		if (r != utf8.RuneError || size > 1) && utf8.RuneLen(l) == size {
			b.WriteRune(l)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

// containsWord reports whether needle occurs in haystack on word boundaries,
// ignoring case.
func containsWord(haystack, needle string) bool {
	return len(wordIndexes(strings.ToLower(haystack), strings.ToLower(needle))) > 0
}

// leadingName reports whether short is the leading part of the longer name
// long on a word boundary, with at least minRunes runes, and is not a generic
// word on its own. "Salesforce" leads "Salesforce CRM"; "Contact" does not
// name "Constant Contact" and "Video" does not name "Zoom Video".
func leadingName(long, short string, minRunes int) bool {
	long = strings.ToLower(strings.TrimSpace(long))
	short = strings.ToLower(strings.TrimSpace(short))
	if short == "" || len(short) >= len(long) || utf8.RuneCountInString(short) < minRunes {
		return false
	}
	if !strings.HasPrefix(long, short) || !boundaryAfter(long, len(short)) {
		return false
	}
	return !isGenericName(short)
}

// hasInternalUpper reports an upper-case letter after a lower-case one, as in
// HubSpot or eBay.
func hasInternalUpper(s string) bool {
	sawLower := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			sawLower = true
		case unicode.IsUpper(r) && sawLower:
			return true
		case unicode.IsSpace(r):
			sawLower = false
		}
	}
	return false
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isDomainLike reports a single token whose suffix is an ICANN public suffix,
// such as booking.com or notion.so.
func isDomainLike(s string) bool {
	host := strings.ToLower(strings.TrimSpace(s))
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " /@") || !strings.Contains(host, ".") {
		return false
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(host)
	return icann && suffix != host
}

func isNumeric(s string) bool {
	seenDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			seenDigit = true
		case strings.ContainsRune(" .,%$+-/:", r):
		default:
			return false
		}
	}
	return seenDigit
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
