package detection

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Options configures a Detector. Zero values fall back to the defaults.
type Options struct {
	Similarity Similarity
	// Discoverer is optional; nil disables model-assisted discovery
	Discoverer             Discoverer
	DiscoveryTimeout       time.Duration
	DiscoveryMinConfidence float64
	DiscoveryMaxTerms      int
}

// Input is one response to analyze
type Input struct {
	Text      string
	Profile   models.OrgBrandProfile
	Catalog   *gazetteer.Gazetteer
	Global    *gazetteer.Gazetteer
	Consensus *models.CrossProviderContext
	// EnableDiscovery requests model-assisted discovery for this run
	EnableDiscovery bool
}

// Detector runs the conservative and liberal strategies over a response.
// All collaborators are read-only so one Detector serves concurrent runs.
type Detector struct {
	similarity Similarity
	extractor  *Extractor
	classifier *Classifier
	discoverer Discoverer
	timeout    time.Duration
	minConf    float64
	maxTerms   int
}

func NewDetector(opts Options) *Detector {
	d := &Detector{
		similarity: opts.Similarity,
		extractor:  NewExtractor(),
		classifier: NewClassifier(),
		discoverer: opts.Discoverer,
		timeout:    opts.DiscoveryTimeout,
		minConf:    opts.DiscoveryMinConfidence,
		maxTerms:   opts.DiscoveryMaxTerms,
	}
	if d.similarity == nil {
		d.similarity = EditDistanceSimilarity{}
	}
	if d.timeout <= 0 {
		d.timeout = 8 * time.Second
	}
	if d.minConf <= 0 {
		d.minConf = DefaultDiscoveryMinConf
	}
	if d.maxTerms <= 0 {
		d.maxTerms = MaxDiscoveryTerms
	}
	return d
}

// Detect runs the requested strategy. Fallback runs conservative first and
// only runs liberal when conservative found no competitors.
func (d *Detector) Detect(ctx context.Context, strategy models.Strategy, in Input) *Outcome {
	switch strategy {
	case models.StrategyConservative:
		return d.Conservative(in)
	case models.StrategyLiberal:
		return d.Liberal(ctx, in)
	}

	conservative := d.Conservative(in)
	if len(conservative.Result.CompetitorsFound) > 0 {
		return SelectOutcome(conservative, nil)
	}
	return SelectOutcome(conservative, d.Liberal(ctx, in))
}

// Conservative matches only names from the account-scoped catalog gazetteer
// and the org's own brand terms. Nothing else can become a competitor.
func (d *Detector) Conservative(in Input) *Outcome {
	outcome := &Outcome{
		Strategy:        models.StrategyConservative,
		DiscoveryStatus: models.DiscoveryDisabled,
	}
	if in.EnableDiscovery && d.discoverer != nil {
		outcome.DiscoveryStatus = models.DiscoverySkipped
	}

	terms := in.Profile.BrandTerms()
	for _, a := range in.Catalog.Aliases() {
		terms = append(terms, a.Key)
	}
	raw := scanTerms(in.Text, terms)

	normalizer := NewNormalizer(d.similarity, in.Catalog)
	candidates := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		candidates = append(candidates, Candidate{RawCandidate: r, Normalized: normalizer.Normalize(r.Text)})
	}

	outcome.Result = d.classifier.Classify(ClassifyInput{
		Candidates: candidates,
		Profile:    in.Profile,
		Catalog:    in.Catalog,
		Consensus:  in.Consensus,
	})
	outcome.StageCounts = models.StageCounts{
		Extracted:  len(raw),
		Normalized: len(candidates),
		Validated:  len(candidates),
		Classified: len(outcome.Result.OrgBrandsFound) + len(outcome.Result.CompetitorsFound),
		Rejected:   len(outcome.Result.RejectedTerms),
	}
	return outcome
}

// Liberal runs extract, normalize, validate and classify against the org and
// global gazetteers, then offers rejected terms to discovery.
func (d *Detector) Liberal(ctx context.Context, in Input) *Outcome {
	outcome := &Outcome{
		Strategy:        models.StrategyLiberal,
		DiscoveryStatus: models.DiscoveryDisabled,
	}

	raw := d.extractor.Extract(in.Text)
	normalizer := NewNormalizer(d.similarity, in.Catalog, in.Global)
	normalized := mergeNormalized(raw, normalizer)

	validator := NewValidator(allowTerms(in)...)
	lowerText := strings.ToLower(in.Text)
	sentences := splitSentences(lowerText)
	kept := make([]Candidate, 0, len(normalized))
	for _, c := range normalized {
		if validator.check(c.Text, lowerText, sentences) == "" {
			kept = append(kept, c)
		}
	}

	classify := ClassifyInput{
		Candidates: kept,
		Profile:    in.Profile,
		Catalog:    in.Catalog,
		Global:     in.Global,
		Consensus:  in.Consensus,
	}
	outcome.Result = d.classifier.Classify(classify)

	if in.EnableDiscovery && d.discoverer != nil {
		outcome.DiscoveryStatus = models.DiscoverySkipped
		if len(outcome.Result.RejectedTerms) > 0 {
			discovered, status, cost := d.discover(ctx, in, outcome.Result.RejectedTerms)
			outcome.DiscoveryStatus = status
			outcome.DiscoveryCost = cost
			if len(discovered) > 0 {
				classify.Discovered = discovered
				outcome.Result = d.classifier.Classify(classify)
			}
		}
	}

	outcome.StageCounts = models.StageCounts{
		Extracted:  len(raw),
		Normalized: len(normalized),
		Validated:  len(kept),
		Classified: len(outcome.Result.OrgBrandsFound) + len(outcome.Result.CompetitorsFound),
		Rejected:   len(outcome.Result.RejectedTerms),
		Discovered: outcome.Result.SourceCounts.Discovered,
	}
	return outcome
}

// discover sends one batch with a soft timeout. Failures fall back to the
// suffix/context heuristic and never fail the run.
func (d *Detector) discover(ctx context.Context, in Input, rejected []string) (map[string]models.DiscoveredOrg, string, float64) {
	req := models.DiscoveryRequest{
		OrgName:    in.Profile.OrgName,
		Keywords:   in.Profile.Keywords,
		Candidates: discoveryBatch(rejected, d.maxTerms),
		Context:    truncateRunes(in.Text, MaxDiscoveryContext),
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.discoverer.Discover(callCtx, req)
	if err != nil || res == nil {
		zap.L().Warn("[Discover] discovery call failed, using heuristic fallback",
			zap.String("org", in.Profile.OrgName),
			zap.Int("terms", len(req.Candidates)),
			zap.Error(err),
		)
		return confidentOrgs(HeuristicDiscover(req), d.minConf), models.DiscoveryHeuristic, 0
	}

	found := confidentOrgs(res.Organizations, d.minConf)
	zap.L().Debug("[Discover] discovery call completed",
		zap.String("org", in.Profile.OrgName),
		zap.Int("terms", len(req.Candidates)),
		zap.Int("confirmed", len(found)),
		zap.Float64("cost", res.Cost),
	)
	return found, models.DiscoveryModel, res.Cost
}

// mergeNormalized normalizes every raw candidate, drops invalid forms and
// merges candidates that share a normalized form. The earliest surface text
// is kept.
func mergeNormalized(raw []models.RawCandidate, normalizer *Normalizer) []Candidate {
	index := make(map[string]int)
	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		n := normalizer.Normalize(r.Text)
		if !n.Valid {
			continue
		}
		key := strings.ToLower(n.NormalizedForm)
		if i, ok := index[key]; ok {
			out[i].MentionCount += r.MentionCount
			if r.FirstPositionRatio < out[i].FirstPositionRatio {
				out[i].FirstPositionRatio = r.FirstPositionRatio
			}
			continue
		}
		index[key] = len(out)
		out = append(out, Candidate{RawCandidate: r, Normalized: n})
	}
	return out
}

// allowTerms are names the validator accepts without further evidence: the
// org's own terms, its overrides and every gazetteer key
func allowTerms(in Input) []string {
	terms := in.Profile.BrandTerms()
	terms = append(terms, in.Profile.CatalogCompetitors...)
	terms = append(terms, in.Profile.Overlay.CompetitorOverrides...)
	for _, g := range []*gazetteer.Gazetteer{in.Catalog, in.Global} {
		for _, a := range g.Aliases() {
			terms = append(terms, a.Key)
		}
	}
	return terms
}

type termMatch struct {
	start, end int
}

// scanTerms finds every term in text on word boundaries ignoring case and
// keeps the longest match where matches overlap
func scanTerms(text string, terms []string) []models.RawCandidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lowerText := lowerSameWidth(text)

	seenTerm := make(map[string]bool)
	var matches []termMatch
	for _, term := range terms {
		key := lowerSameWidth(strings.TrimSpace(term))
		if key == "" || seenTerm[key] {
			continue
		}
		seenTerm[key] = true
		for _, start := range wordIndexes(lowerText, key) {
			matches = append(matches, termMatch{start: start, end: start + len(key)})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	counts := make(map[string]*models.RawCandidate)
	var order []string
	lastEnd := -1
	for _, m := range matches {
		if m.start < lastEnd {
			continue
		}
		lastEnd = m.end
		surface := text[m.start:m.end]
		key := lowerSameWidth(surface)
		if c, ok := counts[key]; ok {
			c.MentionCount++
			continue
		}
		counts[key] = &models.RawCandidate{
			Text:               surface,
			MentionCount:       1,
			FirstPositionRatio: float64(m.start) / float64(len(text)),
		}
		order = append(order, key)
	}

	out := make([]models.RawCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, *counts[key])
	}
	return out
}
