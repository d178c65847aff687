package detection

import (
	"context"
	"regexp"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Discovery limits
const (
	MaxDiscoveryTerms       = 20
	MaxDiscoveryContext     = 3000
	DefaultDiscoveryMinConf = 0.75
	heuristicConfidence     = 0.75
)

// Discoverer asks an external classifier which of the candidate terms are
// organization names. Implementations must not retry; the caller treats any
// error as zero discoveries.
type Discoverer interface {
	Discover(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error)
}

// DiscovererFunc adapts a function to Discoverer
type DiscovererFunc func(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error)

func (f DiscovererFunc) Discover(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error) {
	return f(ctx, req)
}

var cueBeforeRe = regexp.MustCompile(`(?i)\b(?:` + competitiveCuePattern + `)[ \t]*$`)

// HeuristicDiscover is the offline fallback used when the discovery call
// fails: a term counts as an organization when it carries a corporate suffix,
// looks like a domain, or directly follows a competitive cue in the context.
func HeuristicDiscover(req models.DiscoveryRequest) []models.DiscoveredOrg {
	var out []models.DiscoveredOrg
	seen := make(map[string]bool)
	for _, term := range req.Candidates {
		term = strings.TrimSpace(term)
		key := strings.ToLower(term)
		if term == "" || seen[key] || isStopword(term) {
			continue
		}
		if hasCorporateSuffix(term) || isDomainLike(term) || followsCompetitiveCue(term, req.Context) {
			seen[key] = true
			out = append(out, models.DiscoveredOrg{Name: term, Confidence: heuristicConfidence})
		}
	}
	return out
}

func hasCorporateSuffix(term string) bool {
	words := strings.Fields(term)
	if len(words) < 2 {
		return false
	}
	_, ok := corporateSuffixes[strings.ToLower(strings.TrimRight(words[len(words)-1], ","))]
	return ok
}

func followsCompetitiveCue(term, context string) bool {
	for _, start := range wordIndexes(context, term) {
		if cueBeforeRe.MatchString(context[:start]) {
			return true
		}
	}
	return false
}

// discoveryBatch caps the rejected terms sent to discovery
func discoveryBatch(rejected []string, maxTerms int) []string {
	if maxTerms <= 0 || maxTerms > MaxDiscoveryTerms {
		maxTerms = MaxDiscoveryTerms
	}
	if len(rejected) <= maxTerms {
		return append([]string(nil), rejected...)
	}
	return append([]string(nil), rejected[:maxTerms]...)
}

// confidentOrgs keys discoveries at or above minConf by lower-cased name
func confidentOrgs(orgs []models.DiscoveredOrg, minConf float64) map[string]models.DiscoveredOrg {
	out := make(map[string]models.DiscoveredOrg)
	for _, o := range orgs {
		name := strings.TrimSpace(o.Name)
		if name == "" || o.Confidence < minConf {
			continue
		}
		key := strings.ToLower(name)
		if prev, ok := out[key]; ok && prev.Confidence >= o.Confidence {
			continue
		}
		out[key] = models.DiscoveredOrg{Name: name, Confidence: o.Confidence}
	}
	return out
}
