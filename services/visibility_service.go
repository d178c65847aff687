// services/visibility_service.go
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/scoring"
)

type visibilityService struct {
	detector         *detection.Detector
	registry         *gazetteer.Registry
	global           *gazetteer.Gazetteer
	metrics          *Metrics
	defaultStrategy  models.Strategy
	discoveryEnabled bool
	lookback         time.Duration
	now              func() time.Time
}

// NewVisibilityService wires the detector to the gazetteer snapshots. global
// and metrics may be nil.
func NewVisibilityService(cfg *config.Config, detector *detection.Detector, registry *gazetteer.Registry, global *gazetteer.Gazetteer, metrics *Metrics) VisibilityService {
	if registry == nil {
		registry = gazetteer.NewRegistry()
	}
	return &visibilityService{
		detector:         detector,
		registry:         registry,
		global:           global,
		metrics:          metrics,
		defaultStrategy:  cfg.Detection.Strategy,
		discoveryEnabled: cfg.Discovery.Enabled,
		lookback:         cfg.Detection.ConsensusLookback(),
		now:              time.Now,
	}
}

func (s *visibilityService) Analyze(ctx context.Context, req *AnalysisRequest) (*models.AnalysisResult, error) {
	start := time.Now()
	if req == nil {
		return nil, eris.Wrap(ErrInvalidRequest, "request is nil")
	}

	requested := req.Strategy
	if requested == "" {
		requested = s.defaultStrategy
	}
	strategy, ok := models.ParseStrategy(string(requested))
	if !ok {
		return nil, eris.Wrapf(ErrInvalidRequest, "unknown strategy %q", requested)
	}

	profile := BuildProfile(req)
	text := req.ResponseText

	if strings.TrimSpace(text) == "" {
		zap.L().Debug("[Analyze] empty response text, returning empty result", zap.String("org_id", profile.OrgID))
		result := emptyResult(strategy, utf8.RuneCountInString(text))
		result.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
		s.metrics.ObserveAnalysis(result, time.Since(start))
		return result, nil
	}

	catalog, err := s.catalogGazetteer(profile.OrgID, req)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to build catalog gazetteer for org %s", profile.OrgID)
	}

	outcome := s.detector.Detect(ctx, strategy, detection.Input{
		Text:            text,
		Profile:         profile,
		Catalog:         catalog,
		Global:          s.global,
		Consensus:       s.consensus(req.CrossProvider),
		EnableDiscovery: req.EnableDiscovery && s.discoveryEnabled,
	})

	result := buildResult(text, strategy, outcome)
	result.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
	s.metrics.ObserveAnalysis(result, time.Since(start))

	zap.L().Info("[Analyze] analysis completed",
		zap.String("org_id", profile.OrgID),
		zap.String("strategy_requested", string(strategy)),
		zap.String("strategy_used", string(outcome.Strategy)),
		zap.Bool("brand_present", result.BrandPresent),
		zap.Int("competitors", len(result.Competitors)),
		zap.Float64("visibility_score", result.VisibilityScore),
		zap.String("discovery_status", outcome.DiscoveryStatus),
		zap.Int64("processing_time_ms", result.Metadata.ProcessingTimeMs),
	)
	return result, nil
}

func (s *visibilityService) Invalidate(orgID string) {
	s.registry.Invalidate(orgID)
}

// catalogGazetteer builds the account-scoped snapshot once per org and catalog
// version, so a catalog edit is picked up by the next request. Requests without
// an org ID are never cached.
func (s *visibilityService) catalogGazetteer(orgID string, req *AnalysisRequest) (*gazetteer.Gazetteer, error) {
	build := func() (*gazetteer.Gazetteer, error) {
		return gazetteer.FromCatalog(req.Catalog, req.Profile.Competitors), nil
	}
	if orgID == "" {
		return build()
	}
	version := gazetteer.CatalogVersion(req.Catalog, req.Profile.Competitors)
	return s.registry.GetOrBuild(orgID, version, build)
}

func (s *visibilityService) consensus(in *models.CrossProviderContext) *models.CrossProviderContext {
	if in == nil {
		return nil
	}
	out := *in
	if out.AsOf.IsZero() {
		out.AsOf = s.now()
	}
	if out.Lookback <= 0 {
		out.Lookback = s.lookback
	}
	return &out
}

// BuildProfile merges the request's profile, catalog and overlay into the
// read-only view used for one run
func BuildProfile(req *AnalysisRequest) models.OrgBrandProfile {
	orgID := req.OrgID
	if orgID == "" {
		orgID = req.Profile.OrgID
	}

	p := models.OrgBrandProfile{
		OrgID:            orgID,
		OrgName:          strings.TrimSpace(req.Profile.Name),
		Domain:           strings.TrimSpace(req.Profile.Domain),
		Keywords:         uniqueFold(req.Profile.Keywords),
		ProductsServices: uniqueFold(req.Profile.ProductsServices),
	}

	var brands, variants, competitors []string
	for _, entry := range req.Catalog {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		if entry.IsOrgBrand {
			brands = append(brands, name)
			variants = append(variants, entry.Variants...)
			continue
		}
		competitors = append(competitors, name)
	}
	competitors = append(competitors, req.Profile.Competitors...)

	p.CatalogBrandNames = uniqueFold(brands)
	p.CatalogVariants = uniqueFold(variants)
	p.CatalogCompetitors = uniqueFold(competitors)

	if req.Overlay != nil {
		p.Overlay = models.OrgOverlay{
			CompetitorOverrides:  uniqueFold(req.Overlay.CompetitorOverrides),
			CompetitorExclusions: uniqueFold(req.Overlay.CompetitorExclusions),
			BrandVariants:        uniqueFold(req.Overlay.BrandVariants),
		}
	}
	return p
}

func buildResult(text string, requested models.Strategy, outcome *detection.Outcome) *models.AnalysisResult {
	brands := append([]string{}, outcome.Result.OrgBrandsFound...)
	competitors := make([]string, 0, len(outcome.Result.CompetitorsFound))
	for _, c := range outcome.Result.CompetitorsFound {
		competitors = append(competitors, c.Name)
	}

	present := len(brands) > 0
	var prominence *int
	if present {
		prominence = scoring.Prominence(text, brands)
	}
	length := utf8.RuneCountInString(text)

	return &models.AnalysisResult{
		BrandPresent:    present,
		Prominence:      prominence,
		Competitors:     competitors,
		Brands:          brands,
		VisibilityScore: scoring.VisibilityScore(present, prominence, len(competitors), length),
		Metadata: models.AnalysisMetadata{
			StrategyRequested: requested,
			StrategyUsed:      outcome.Strategy,
			Confidence:        outcome.Result.Confidence,
			SourceCounts:      outcome.Result.SourceCounts,
			StageCounts:       outcome.StageCounts,
			ConsensusBoost:    outcome.Result.ConsensusBoosted,
			DiscoveryStatus:   outcome.DiscoveryStatus,
			DiscoveryCost:     outcome.DiscoveryCost,
			RejectedTerms:     outcome.Result.RejectedTerms,
			ResponseLength:    length,
		},
	}
}

// emptyResult is the zero-confidence answer for blank input
func emptyResult(requested models.Strategy, length int) *models.AnalysisResult {
	used := requested
	if used == models.StrategyFallback {
		used = models.StrategyConservative
	}
	return &models.AnalysisResult{
		Competitors:     []string{},
		Brands:          []string{},
		VisibilityScore: scoring.VisibilityScore(false, nil, 0, length),
		Metadata: models.AnalysisMetadata{
			StrategyRequested: requested,
			StrategyUsed:      used,
			DiscoveryStatus:   models.DiscoveryDisabled,
			ResponseLength:    length,
		},
	}
}

// uniqueFold trims names and drops blanks and case-insensitive duplicates,
// keeping the first spelling
func uniqueFold(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
