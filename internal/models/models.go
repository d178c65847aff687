// internal/models/models.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Strategy selects how competitors are detected in a response
type Strategy string

const (
	// StrategyConservative only matches names from the org's verified catalog
	StrategyConservative Strategy = "conservative"
	// StrategyLiberal runs the full extract -> validate -> classify chain
	StrategyLiberal Strategy = "liberal"
	// StrategyFallback runs conservative first and falls back to liberal
	StrategyFallback Strategy = "fallback"
)

// ParseStrategy maps a flag value to a Strategy. Unknown values report false.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyConservative:
		return StrategyConservative, true
	case StrategyLiberal:
		return StrategyLiberal, true
	case StrategyFallback, "both", "":
		return StrategyFallback, true
	}
	return "", false
}

// Source records where a competitor match was resolved
type Source string

const (
	SourceCatalog    Source = "catalog"
	SourceGlobal     Source = "global"
	SourceDiscovered Source = "discovered"
)

// RawCandidate is a name-like string pulled out of a response. Ephemeral.
type RawCandidate struct {
	Text               string  `json:"text"`
	MentionCount       int     `json:"mention_count"`
	FirstPositionRatio float64 `json:"first_position_ratio"` // 0-1 over the response length
}

// NormalizedCandidate is the comparable form of a raw candidate
type NormalizedCandidate struct {
	NormalizedForm string  `json:"normalized_form"`
	CanonicalForm  string  `json:"canonical_form"` // alias-resolved; equals NormalizedForm when no alias applies
	Confidence     float64 `json:"confidence"`
	Valid          bool    `json:"valid"`
}

// OrgProfile is the organization as configured by the customer
type OrgProfile struct {
	OrgID            string   `json:"org_id" db:"org_id"`
	Name             string   `json:"name" db:"name"`
	Domain           string   `json:"domain,omitempty" db:"domain"`
	Keywords         []string `json:"keywords,omitempty"`
	Competitors      []string `json:"competitors,omitempty"`
	ProductsServices []string `json:"products_services,omitempty"`
}

// BrandCatalogEntry is one row of the org's verified brand catalog
type BrandCatalogEntry struct {
	Name       string   `json:"name"`
	IsOrgBrand bool     `json:"is_org_brand"`
	Variants   []string `json:"variants"`
}

// OrgOverlay holds per-org manual corrections. Exclusions beat overrides,
// overrides beat catalog and gazetteer matches.
type OrgOverlay struct {
	CompetitorOverrides  []string `json:"competitor_overrides"`
	CompetitorExclusions []string `json:"competitor_exclusions"`
	BrandVariants        []string `json:"brand_variants"`
}

// OrgBrandProfile is the immutable view of an org used for one analysis run
type OrgBrandProfile struct {
	OrgID              string     `json:"org_id"`
	OrgName            string     `json:"org_name"`
	Domain             string     `json:"domain,omitempty"`
	Keywords           []string   `json:"keywords,omitempty"`
	ProductsServices   []string   `json:"products_services,omitempty"`
	CatalogBrandNames  []string   `json:"catalog_brand_names"`
	CatalogVariants    []string   `json:"catalog_variants"`
	CatalogCompetitors []string   `json:"catalog_competitors"`
	Overlay            OrgOverlay `json:"overlay"`
}

// BrandTerms returns every name that identifies the org itself. Keywords and
// products are descriptive and never count as brand names.
func (p OrgBrandProfile) BrandTerms() []string {
	terms := make([]string, 0, 2+len(p.CatalogBrandNames)+len(p.CatalogVariants)+len(p.Overlay.BrandVariants))
	if strings.TrimSpace(p.OrgName) != "" {
		terms = append(terms, p.OrgName)
	}
	if host := BareDomain(p.Domain); host != "" {
		terms = append(terms, host)
	}
	terms = append(terms, p.CatalogBrandNames...)
	terms = append(terms, p.CatalogVariants...)
	terms = append(terms, p.Overlay.BrandVariants...)
	return terms
}

// BareDomain strips scheme, "www." and any path from a website address
func BareDomain(domain string) string {
	host := strings.ToLower(strings.TrimSpace(domain))
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#:"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}

// GazetteerEntry is a known organization with its aliases
type GazetteerEntry struct {
	CanonicalName string   `json:"canonical_name" yaml:"name"`
	Category      string   `json:"category" yaml:"category"`
	Aliases       []string `json:"aliases" yaml:"aliases"`
	Confidence    float64  `json:"confidence" yaml:"confidence"`
}

// RecentCompetitor is a competitor detected for the same prompt in an earlier run
type RecentCompetitor struct {
	Name     string    `json:"name" db:"name"`
	Provider string    `json:"provider" db:"provider"`
	SeenAt   time.Time `json:"seen_at" db:"seen_at"`
}

// CrossProviderContext carries the consensus-boost inputs for one run
type CrossProviderContext struct {
	PromptID          string             `json:"prompt_id"`
	Provider          string             `json:"provider"`
	AsOf              time.Time          `json:"as_of"`
	Lookback          time.Duration      `json:"lookback"`
	RecentCompetitors []RecentCompetitor `json:"recent_competitors"`
}

// CompetitorMatch is a classified competitor with its provenance
type CompetitorMatch struct {
	Name               string  `json:"name"`
	CanonicalName      string  `json:"canonical_name"`
	Source             Source  `json:"source"`
	MentionCount       int     `json:"mention_count"`
	FirstPositionRatio float64 `json:"first_position_ratio"`
	Confidence         float64 `json:"confidence"`
}

// SourceCounts tallies competitor matches by where they were resolved
type SourceCounts struct {
	Catalog    int `json:"catalog"`
	Global     int `json:"global"`
	Discovered int `json:"discovered"`
}

// ClassifiedResult is the classifier output for one response
type ClassifiedResult struct {
	OrgBrandsFound   []string          `json:"org_brands_found"`
	CompetitorsFound []CompetitorMatch `json:"competitors_found"`
	RejectedTerms    []string          `json:"rejected_terms"`
	ExcludedTerms    []string          `json:"excluded_terms"`
	SourceCounts     SourceCounts      `json:"source_counts"`
	ConsensusBoosted bool              `json:"consensus_boosted"`
	Confidence       float64           `json:"confidence"`
}

// StageCounts reports how many candidates survived each pipeline stage
type StageCounts struct {
	Extracted  int `json:"extracted"`
	Normalized int `json:"normalized"`
	Validated  int `json:"validated"`
	Classified int `json:"classified"`
	Rejected   int `json:"rejected"`
	Discovered int `json:"discovered"`
}

// Discovery status values reported in metadata
const (
	DiscoveryDisabled  = "disabled"
	DiscoverySkipped   = "skipped"
	DiscoveryModel     = "model"
	DiscoveryHeuristic = "heuristic_fallback"
)

// DiscoveryRequest is sent to the optional model-assisted discovery call
type DiscoveryRequest struct {
	OrgName    string   `json:"org_name"`
	Keywords   []string `json:"keywords,omitempty"`
	Candidates []string `json:"candidates"`
	Context    string   `json:"context"`
}

// DiscoveredOrg is one organization name confirmed by discovery
type DiscoveredOrg struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// DiscoveryResult is what a discovery backend returns for one batch
type DiscoveryResult struct {
	Organizations []DiscoveredOrg `json:"organizations"`
	InputTokens   int             `json:"input_tokens"`
	OutputTokens  int             `json:"output_tokens"`
	Cost          float64         `json:"cost"`
}

// AnalysisMetadata is observability data; never used for control flow
type AnalysisMetadata struct {
	StrategyRequested Strategy     `json:"strategy_requested"`
	StrategyUsed      Strategy     `json:"strategy_used"`
	Confidence        float64      `json:"confidence"`
	SourceCounts      SourceCounts `json:"source_counts"`
	StageCounts       StageCounts  `json:"stage_counts"`
	ConsensusBoost    bool         `json:"consensus_boost"`
	DiscoveryStatus   string       `json:"discovery_status"`
	DiscoveryCost     float64      `json:"discovery_cost"`
	RejectedTerms     []string     `json:"rejected_terms,omitempty"`
	ResponseLength    int          `json:"response_length"`
	ProcessingTimeMs  int64        `json:"processing_time_ms"`
}

// AnalysisResult is the only artifact persisted per (prompt, provider) run
type AnalysisResult struct {
	BrandPresent    bool             `json:"brand_present"`
	Prominence      *int             `json:"prominence"`
	Competitors     []string         `json:"competitors"`
	Brands          []string         `json:"brands"`
	VisibilityScore float64          `json:"visibility_score"`
	Metadata        AnalysisMetadata `json:"metadata"`
}

// QuestionRun is a stored provider response awaiting analysis
type QuestionRun struct {
	QuestionRunID uuid.UUID `json:"question_run_id" db:"question_run_id"`
	OrgID         uuid.UUID `json:"org_id" db:"org_id"`
	PromptID      uuid.UUID `json:"prompt_id" db:"prompt_id"`
	Provider      string    `json:"provider" db:"provider"`
	ResponseText  string    `json:"response_text" db:"response_text"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// VisibilityRecord is an AnalysisResult tied to the run that produced it
type VisibilityRecord struct {
	VisibilityResultID uuid.UUID      `json:"visibility_result_id"`
	QuestionRunID      uuid.UUID      `json:"question_run_id"`
	OrgID              uuid.UUID      `json:"org_id"`
	PromptID           uuid.UUID      `json:"prompt_id"`
	Provider           string         `json:"provider"`
	Result             AnalysisResult `json:"result"`
	CreatedAt          time.Time      `json:"created_at"`
}
