package detection

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Classifier confidence model
const (
	baseConfidence       = 0.6
	minCompetitorConf    = 0.6
	consensusBoost       = 0.15
	shortNamePenalty     = 0.2
	shortNameMaxLength   = 3
	overrideConfidence   = 1.0
	MaxCompetitors       = 20
	resultBaseConfidence = 0.8
	resultBrandBonus     = 0.1
	resultResolvedBonus  = 0.1
	minContainmentLength = 4
)

// Candidate is an extracted name together with its normalized forms
type Candidate struct {
	models.RawCandidate
	Normalized models.NormalizedCandidate
}

// forms returns the distinct strings a candidate can be matched by
func (c Candidate) forms() []string {
	out := []string{c.Text}
	for _, f := range []string{c.Normalized.NormalizedForm, c.Normalized.CanonicalForm} {
		if f == "" {
			continue
		}
		dup := false
		for _, o := range out {
			if strings.EqualFold(o, f) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// ClassifyInput is everything the classifier reads for one response
type ClassifyInput struct {
	Candidates []Candidate
	Profile    models.OrgBrandProfile
	// Catalog is the account-scoped gazetteer; Global may be nil
	Catalog *gazetteer.Gazetteer
	Global  *gazetteer.Gazetteer
	// Consensus is optional
	Consensus *models.CrossProviderContext
	// Discovered is keyed by lower-cased name
	Discovered map[string]models.DiscoveredOrg
}

// Classifier assigns candidates to the org's own brand, a competitor, or
// discard. It holds no state and is safe for concurrent use.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

type match struct {
	source     models.Source
	canonical  string
	confidence float64
}

// Classify applies the precedence brand > exclusion > override > org catalog
// > global gazetteer > discovered > discard
func (c *Classifier) Classify(in ClassifyInput) models.ClassifiedResult {
	brandTerms := in.Profile.BrandTerms()
	exclusions := in.Profile.Overlay.CompetitorExclusions
	overrides := in.Profile.Overlay.CompetitorOverrides

	result := models.ClassifiedResult{
		OrgBrandsFound:   []string{},
		CompetitorsFound: []models.CompetitorMatch{},
		RejectedTerms:    []string{},
		ExcludedTerms:    []string{},
	}
	brandSeen := make(map[string]bool)
	rejectedSeen := make(map[string]bool)
	excludedSeen := make(map[string]bool)
	var competitors []models.CompetitorMatch

	reject := func(text string) {
		if key := strings.ToLower(text); !rejectedSeen[key] {
			rejectedSeen[key] = true
			result.RejectedTerms = append(result.RejectedTerms, text)
		}
	}

	for _, cand := range in.Candidates {
		forms := cand.forms()

		if matchesBrand(forms, brandTerms) {
			if key := strings.ToLower(cand.Text); !brandSeen[key] {
				brandSeen[key] = true
				result.OrgBrandsFound = append(result.OrgBrandsFound, cand.Text)
			}
			continue
		}

		exclude := func() {
			if key := strings.ToLower(cand.Text); !excludedSeen[key] {
				excludedSeen[key] = true
				result.ExcludedTerms = append(result.ExcludedTerms, cand.Text)
			}
		}
		if matchesAnyFold(forms, exclusions) {
			exclude()
			continue
		}

		m, ok := resolve(cand, forms, overrides, in)
		if !ok {
			reject(cand.Text)
			continue
		}
		// an alias can resolve to an excluded canonical name
		if matchesAnyFold([]string{m.canonical}, exclusions) {
			exclude()
			continue
		}

		conf := m.confidence
		boosted := false
		if consensusSeen(forms, m.canonical, in.Consensus) {
			conf += consensusBoost
			boosted = true
		}
		if utf8.RuneCountInString(cand.Text) <= shortNameMaxLength {
			conf -= shortNamePenalty
		}
		conf = clamp01(conf)
		if conf < minCompetitorConf {
			reject(cand.Text)
			continue
		}
		if boosted {
			result.ConsensusBoosted = true
		}

		competitors = append(competitors, models.CompetitorMatch{
			Name:               cand.Text,
			CanonicalName:      m.canonical,
			Source:             m.source,
			MentionCount:       cand.MentionCount,
			FirstPositionRatio: cand.FirstPositionRatio,
			Confidence:         conf,
		})
	}

	competitors = dropBrandCollisions(competitors, result.OrgBrandsFound, brandTerms)
	competitors = dedupeByCanonical(competitors)
	sortCompetitors(competitors)
	if len(competitors) > MaxCompetitors {
		competitors = competitors[:MaxCompetitors]
	}
	result.CompetitorsFound = competitors

	for _, comp := range competitors {
		switch comp.Source {
		case models.SourceCatalog:
			result.SourceCounts.Catalog++
		case models.SourceGlobal:
			result.SourceCounts.Global++
		case models.SourceDiscovered:
			result.SourceCounts.Discovered++
		}
	}

	result.Confidence = resultConfidence(result)
	return result
}

// resolve finds the strongest positive source for a candidate. Overrides count
// as catalog matches.
func resolve(cand Candidate, forms, overrides []string, in ClassifyInput) (match, bool) {
	for _, o := range overrides {
		for _, f := range forms {
			if strings.EqualFold(strings.TrimSpace(o), f) {
				return match{source: models.SourceCatalog, canonical: strings.TrimSpace(o), confidence: overrideConfidence}, true
			}
		}
	}

	if entry, ok := lookupForms(in.Catalog, forms); ok {
		return match{source: models.SourceCatalog, canonical: entry.CanonicalName, confidence: maxFloat(baseConfidence, entry.Confidence)}, true
	}
	if entry, ok := lookupForms(in.Global, forms); ok {
		return match{source: models.SourceGlobal, canonical: entry.CanonicalName, confidence: maxFloat(baseConfidence, entry.Confidence)}, true
	}
	for _, f := range forms {
		if d, ok := in.Discovered[strings.ToLower(f)]; ok {
			canonical := cand.Normalized.CanonicalForm
			if canonical == "" {
				canonical = cand.Text
			}
			return match{source: models.SourceDiscovered, canonical: canonical, confidence: maxFloat(baseConfidence, d.Confidence)}, true
		}
	}
	return match{}, false
}

func lookupForms(g *gazetteer.Gazetteer, forms []string) (models.GazetteerEntry, bool) {
	for _, f := range forms {
		if entry, ok := g.Lookup(f); ok {
			return entry, true
		}
	}
	return models.GazetteerEntry{}, false
}

// matchesBrand is a case-insensitive exact match, a brand term of at least
// four characters named inside the candidate, or a candidate that leads a
// brand term the way "HubSpot" leads "HubSpot CRM"
func matchesBrand(forms, brandTerms []string) bool {
	for _, f := range forms {
		for _, term := range brandTerms {
			if brandMatch(f, term) {
				return true
			}
		}
	}
	return false
}

func brandMatch(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	if utf8.RuneCountInString(b) >= minContainmentLength && containsWord(a, b) {
		return true
	}
	return leadingName(b, a, minContainmentLength)
}

func matchesAnyFold(forms, names []string) bool {
	for _, f := range forms {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), f) {
				return true
			}
		}
	}
	return false
}

// consensusSeen reports the competitor in a recent run for the same prompt
// from a different provider inside the lookback window
func consensusSeen(forms []string, canonical string, ctx *models.CrossProviderContext) bool {
	if ctx == nil {
		return false
	}
	names := append(append([]string(nil), forms...), canonical)
	for _, rc := range ctx.RecentCompetitors {
		if strings.EqualFold(rc.Provider, ctx.Provider) {
			continue
		}
		if !ctx.AsOf.IsZero() && ctx.Lookback > 0 {
			if rc.SeenAt.Before(ctx.AsOf.Add(-ctx.Lookback)) || rc.SeenAt.After(ctx.AsOf) {
				continue
			}
		}
		if matchesAnyFold(names, []string{rc.Name}) {
			return true
		}
	}
	return false
}

// dropBrandCollisions removes competitors that name the org itself
func dropBrandCollisions(competitors []models.CompetitorMatch, brands, brandTerms []string) []models.CompetitorMatch {
	out := competitors[:0]
	for _, comp := range competitors {
		names := []string{comp.Name, comp.CanonicalName}
		if matchesAnyFold(names, brands) || matchesAnyFold(names, brandTerms) {
			continue
		}
		out = append(out, comp)
	}
	return out
}

// dedupeByCanonical merges competitors with the same canonical name, summing
// mentions and keeping the earliest position and the most mentioned surface form
func dedupeByCanonical(competitors []models.CompetitorMatch) []models.CompetitorMatch {
	index := make(map[string]int)
	out := make([]models.CompetitorMatch, 0, len(competitors))
	for _, comp := range competitors {
		key := strings.ToLower(comp.CanonicalName)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, comp)
			continue
		}
		kept := &out[i]
		if comp.MentionCount > kept.MentionCount ||
			(comp.MentionCount == kept.MentionCount && comp.FirstPositionRatio < kept.FirstPositionRatio) {
			kept.Name = comp.Name
		}
		kept.MentionCount += comp.MentionCount
		if comp.FirstPositionRatio < kept.FirstPositionRatio {
			kept.FirstPositionRatio = comp.FirstPositionRatio
		}
		if comp.Confidence > kept.Confidence {
			kept.Confidence = comp.Confidence
		}
	}
	return out
}

func sortCompetitors(competitors []models.CompetitorMatch) {
	sort.SliceStable(competitors, func(i, j int) bool {
		if competitors[i].MentionCount != competitors[j].MentionCount {
			return competitors[i].MentionCount > competitors[j].MentionCount
		}
		if competitors[i].FirstPositionRatio != competitors[j].FirstPositionRatio {
			return competitors[i].FirstPositionRatio < competitors[j].FirstPositionRatio
		}
		return competitors[i].Name < competitors[j].Name
	})
}

func resultConfidence(r models.ClassifiedResult) float64 {
	conf := resultBaseConfidence
	if len(r.OrgBrandsFound) > 0 {
		conf += resultBrandBonus
	}
	if n := len(r.CompetitorsFound); n > 0 {
		resolved := r.SourceCounts.Catalog + r.SourceCounts.Global
		conf += resultResolvedBonus * float64(resolved) / float64(n)
	}
	return clamp01(conf)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
