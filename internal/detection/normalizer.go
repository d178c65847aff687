package detection

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Confidence adjustments applied by Normalize
const (
	penaltyCaseChange   = 0.1
	penaltyAliasSwap    = 0.15
	penaltyShortForm    = 0.3
	bonusCamelCase      = 0.1
	bonusDomainSuffix   = 0.05
	minValidConfidence  = 0.3
	minNormalizedLength = 2
	maxNormalizedLength = 50
)

// titleExceptions holds names whose correct form is not plain title case
var titleExceptions = map[string]string{
	"hubspot":        "HubSpot",
	"iphone":         "iPhone",
	"ipad":           "iPad",
	"imac":           "iMac",
	"icloud":         "iCloud",
	"ebay":           "eBay",
	"linkedin":       "LinkedIn",
	"youtube":        "YouTube",
	"paypal":         "PayPal",
	"github":         "GitHub",
	"gitlab":         "GitLab",
	"tiktok":         "TikTok",
	"openai":         "OpenAI",
	"quickbooks":     "QuickBooks",
	"clickup":        "ClickUp",
	"docusign":       "DocuSign",
	"wordpress":      "WordPress",
	"mailchimp":      "Mailchimp",
	"servicenow":     "ServiceNow",
	"salesforce":     "Salesforce",
	"activecampaign": "ActiveCampaign",
	"zoominfo":       "ZoomInfo",
	"netsuite":       "NetSuite",
	"sharepoint":     "SharePoint",
	"powerpoint":     "PowerPoint",
	"mongodb":        "MongoDB",
	"postgresql":     "PostgreSQL",
	"mysql":          "MySQL",
	"javascript":     "JavaScript",
	"typescript":     "TypeScript",
	"woocommerce":    "WooCommerce",
	"bigcommerce":    "BigCommerce",
	"freshbooks":     "FreshBooks",
	"smartsheet":     "Smartsheet",
	"airtable":       "Airtable",
}

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`,
	"«", `"`, "»", `"`,
	"，", ",", "、", ",", "﹐", ",", "،", ",",
)

const wrappingPunct = `"'.,;:!?()[]{}<>*_` + "`"

// Normalizer canonicalizes candidate strings against one or more gazetteers.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	similarity Similarity
	gazetteers []*gazetteer.Gazetteer
}

// NewNormalizer resolves aliases against the given gazetteers in order; nil
// gazetteers are skipped. A nil similarity uses EditDistanceSimilarity.
func NewNormalizer(sim Similarity, gazetteers ...*gazetteer.Gazetteer) *Normalizer {
	if sim == nil {
		sim = EditDistanceSimilarity{}
	}
	gs := make([]*gazetteer.Gazetteer, 0, len(gazetteers))
	for _, g := range gazetteers {
		if g != nil {
			gs = append(gs, g)
		}
	}
	return &Normalizer{similarity: sim, gazetteers: gs}
}

// Normalize returns the comparable and alias-resolved forms of input
func (n *Normalizer) Normalize(input string) models.NormalizedCandidate {
	cleaned := cleanForm(input)
	titled := titleCase(cleaned)

	canonical, swapped := n.resolveAlias(titled)

	confidence := 1.0
	if titled != cleaned {
		confidence -= penaltyCaseChange
	}
	if swapped {
		confidence -= penaltyAliasSwap
	}
	length := utf8.RuneCountInString(titled)
	if length <= 2 {
		confidence -= penaltyShortForm
	}
	if isCamelCase(titled) {
		confidence += bonusCamelCase
	}
	if isDomainLike(titled) {
		confidence += bonusDomainSuffix
	}
	confidence = clamp01(confidence)

	valid := confidence >= minValidConfidence &&
		length >= minNormalizedLength && length <= maxNormalizedLength &&
		!isNumeric(titled) && !isConnective(titled)

	return models.NormalizedCandidate{
		NormalizedForm: titled,
		CanonicalForm:  canonical,
		Confidence:     confidence,
		Valid:          valid,
	}
}

// cleanForm applies NFKC, collapses whitespace, maps quote and comma variants
// to ASCII and strips wrapping punctuation and a trailing possessive.
func cleanForm(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = quoteReplacer.Replace(s)
	s = strings.Trim(s, wrappingPunct+" ")
	if lower := strings.ToLower(s); strings.HasSuffix(lower, "'s") {
		s = strings.Trim(s[:len(s)-2], wrappingPunct+" ")
	}
	return s
}

// titleCase capitalizes each word unless the word is a known exception, an
// acronym, already mixed-case, a domain or carries digits
func titleCase(s string) string {
	if s == "" {
		return s
	}
	caser := cases.Title(language.English)
	words := strings.Split(s, " ")
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case titleExceptions[lower] != "":
			words[i] = titleExceptions[lower]
		case isAcronym(w), hasInternalUpper(w), isDomainLike(w), strings.IndexFunc(w, unicode.IsDigit) >= 0:
			// kept as written
		case i > 0 && isMinorWord(lower):
			words[i] = lower
		default:
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}

func isAcronym(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0 && letters <= 5
}

func isMinorWord(lower string) bool {
	_, ok := minorWords[lower]
	return ok
}

// isCamelCase is a single token with an internal capital, like HubSpot
func isCamelCase(s string) bool {
	return !strings.Contains(s, " ") && hasInternalUpper(s)
}

func (n *Normalizer) resolveAlias(form string) (string, bool) {
	if form == "" {
		return form, false
	}
	for _, g := range n.gazetteers {
		if entry, ok := g.Lookup(form); ok {
			return entry.CanonicalName, entry.CanonicalName != form
		}
	}

	bestScore := 0.0
	bestCanonical := ""
	for _, g := range n.gazetteers {
		for _, alias := range g.Aliases() {
			score := n.similarity.Score(form, alias.Key)
			if score >= MatchThreshold && score > bestScore {
				bestScore = score
				bestCanonical = alias.Canonical
			}
		}
	}
	if bestCanonical == "" {
		return form, false
	}
	return bestCanonical, bestCanonical != form
}
