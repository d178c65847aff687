package detection

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func testProfile() models.OrgBrandProfile {
	return models.OrgBrandProfile{
		OrgID:              "org-1",
		OrgName:            "HubSpot",
		CatalogBrandNames:  []string{"HubSpot"},
		CatalogVariants:    []string{"HubSpot Marketing Hub"},
		CatalogCompetitors: []string{"Zoho"},
	}
}

func testCatalog() *gazetteer.Gazetteer {
	return gazetteer.FromCatalog([]models.BrandCatalogEntry{
		{Name: "HubSpot", IsOrgBrand: true, Variants: []string{"HubSpot Marketing Hub"}},
		{Name: "Zoho", Variants: []string{"Zoho CRM"}},
	}, nil)
}

func testGlobal() *gazetteer.Gazetteer {
	return gazetteer.New([]models.GazetteerEntry{
		{CanonicalName: "Salesforce", Aliases: []string{"Salesforce CRM"}, Confidence: 0.9},
		{CanonicalName: "HubSpot", Aliases: []string{"HubSpot CRM"}, Confidence: 0.9},
		{CanonicalName: "Pipedrive", Confidence: 0.85},
		{CanonicalName: "SAP", Confidence: 0.7},
	})
}

func newCandidate(n *Normalizer, text string, mentions int, ratio float64) Candidate {
	return Candidate{
		RawCandidate: models.RawCandidate{Text: text, MentionCount: mentions, FirstPositionRatio: ratio},
		Normalized:   n.Normalize(text),
	}
}

func competitorNames(r models.ClassifiedResult) []string {
	out := make([]string, len(r.CompetitorsFound))
	for i, c := range r.CompetitorsFound {
		out[i] = c.Name
	}
	return out
}

func TestClassifyPrecedence(t *testing.T) {
	catalog, global := testCatalog(), testGlobal()
	n := NewNormalizer(nil, catalog, global)

	result := NewClassifier().Classify(ClassifyInput{
		Candidates: []Candidate{
			newCandidate(n, "HubSpot Marketing Hub", 1, 0.5),
			newCandidate(n, "Salesforce CRM", 2, 0.1),
			newCandidate(n, "Zoho CRM", 1, 0.3),
			newCandidate(n, "Zorblax", 1, 0.7),
		},
		Profile: testProfile(),
		Catalog: catalog,
		Global:  global,
	})

	assert.Equal(t, []string{"HubSpot Marketing Hub"}, result.OrgBrandsFound)
	assert.Equal(t, []string{"Salesforce CRM", "Zoho CRM"}, competitorNames(result))
	assert.Equal(t, []string{"Zorblax"}, result.RejectedTerms)
	assert.Empty(t, result.ExcludedTerms)

	require.Len(t, result.CompetitorsFound, 2)
	assert.Equal(t, "Salesforce", result.CompetitorsFound[0].CanonicalName)
	assert.Equal(t, models.SourceGlobal, result.CompetitorsFound[0].Source)
	assert.InDelta(t, 0.9, result.CompetitorsFound[0].Confidence, 1e-9)
	assert.Equal(t, "Zoho", result.CompetitorsFound[1].CanonicalName)
	assert.Equal(t, models.SourceCatalog, result.CompetitorsFound[1].Source)

	assert.Equal(t, models.SourceCounts{Catalog: 1, Global: 1}, result.SourceCounts)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestClassifyBrandNeverCompetitor(t *testing.T) {
	catalog, global := testCatalog(), testGlobal()
	n := NewNormalizer(nil, catalog, global)

	profile := testProfile()
	profile.Overlay.CompetitorOverrides = []string{"HubSpot CRM"}

	result := NewClassifier().Classify(ClassifyInput{
		Candidates: []Candidate{
			newCandidate(n, "HubSpot CRM", 2, 0.1),
			newCandidate(n, "HubSpot", 1, 0.4),
			newCandidate(n, "Pipedrive", 1, 0.6),
		},
		Profile: profile,
		Catalog: catalog,
		Global:  global,
	})

	assert.Equal(t, []string{"HubSpot CRM", "HubSpot"}, result.OrgBrandsFound)
	assert.Equal(t, []string{"Pipedrive"}, competitorNames(result))
	for _, c := range result.CompetitorsFound {
		for _, b := range result.OrgBrandsFound {
			assert.False(t, strings.EqualFold(c.Name, b))
		}
	}
}

func TestBrandMatch(t *testing.T) {
	tests := []struct {
		candidate, term string
		want            bool
	}{
		{"hubspot", "HubSpot", true},
		{"our HubSpot Marketing Hub", "HubSpot", true},
		{"HubSpot", "HubSpot Marketing Hub", true},
		{"Marketing", "HubSpot Marketing Hub", false},
		{"Marketing Hub", "HubSpot Marketing Hub", false},
		{"Contact", "Constant Contact", false},
		{"Hub", "HubSpot", false},
		{"HubSpotter", "HubSpot", false},
	}

	for _, tt := range tests {
		t.Run(tt.candidate+"/"+tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, brandMatch(tt.candidate, tt.term))
		})
	}
}

func TestClassifyOverlay(t *testing.T) {
	catalog, global := testCatalog(), testGlobal()
	n := NewNormalizer(nil, catalog, global)

	tests := []struct {
		name        string
		overlay     models.OrgOverlay
		candidate   string
		competitors []string
		excluded    []string
		source      models.Source
	}{
		{
			name:        "exclusion by surface form",
			overlay:     models.OrgOverlay{CompetitorExclusions: []string{"salesforce crm"}},
			candidate:   "Salesforce CRM",
			competitors: []string{},
			excluded:    []string{"Salesforce CRM"},
		},
		{
			name:        "exclusion by canonical name",
			overlay:     models.OrgOverlay{CompetitorExclusions: []string{"Salesforce"}},
			candidate:   "Salesforce CRM",
			competitors: []string{},
			excluded:    []string{"Salesforce CRM"},
		},
		{
			name:        "override adds unknown name",
			overlay:     models.OrgOverlay{CompetitorOverrides: []string{"Zorblax"}},
			candidate:   "Zorblax",
			competitors: []string{"Zorblax"},
			excluded:    []string{},
			source:      models.SourceCatalog,
		},
		{
			name: "exclusion beats override",
			overlay: models.OrgOverlay{
				CompetitorOverrides:  []string{"Zorblax"},
				CompetitorExclusions: []string{"Zorblax"},
			},
			candidate:   "Zorblax",
			competitors: []string{},
			excluded:    []string{"Zorblax"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := testProfile()
			profile.Overlay = tt.overlay

			result := NewClassifier().Classify(ClassifyInput{
				Candidates: []Candidate{newCandidate(n, tt.candidate, 1, 0.2)},
				Profile:    profile,
				Catalog:    catalog,
				Global:     global,
			})

			assert.Equal(t, tt.competitors, competitorNames(result))
			assert.Equal(t, tt.excluded, result.ExcludedTerms)
			if tt.source != "" {
				require.Len(t, result.CompetitorsFound, 1)
				assert.Equal(t, tt.source, result.CompetitorsFound[0].Source)
				assert.InDelta(t, 1.0, result.CompetitorsFound[0].Confidence, 1e-9)
			}
		})
	}
}

func TestClassifyShortNameAndConsensus(t *testing.T) {
	catalog, global := testCatalog(), testGlobal()
	n := NewNormalizer(nil, catalog, global)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		consensus *models.CrossProviderContext
		kept      bool
	}{
		{"no consensus", nil, false},
		{
			name: "other provider inside window",
			consensus: &models.CrossProviderContext{
				Provider: "openai", AsOf: now, Lookback: 7 * 24 * time.Hour,
				RecentCompetitors: []models.RecentCompetitor{{Name: "SAP", Provider: "anthropic", SeenAt: now.Add(-24 * time.Hour)}},
			},
			kept: true,
		},
		{
			name: "same provider",
			consensus: &models.CrossProviderContext{
				Provider: "openai", AsOf: now, Lookback: 7 * 24 * time.Hour,
				RecentCompetitors: []models.RecentCompetitor{{Name: "SAP", Provider: "openai", SeenAt: now.Add(-24 * time.Hour)}},
			},
			kept: false,
		},
		{
			name: "outside window",
			consensus: &models.CrossProviderContext{
				Provider: "openai", AsOf: now, Lookback: 7 * 24 * time.Hour,
				RecentCompetitors: []models.RecentCompetitor{{Name: "SAP", Provider: "anthropic", SeenAt: now.Add(-10 * 24 * time.Hour)}},
			},
			kept: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewClassifier().Classify(ClassifyInput{
				Candidates: []Candidate{newCandidate(n, "SAP", 1, 0.2)},
				Profile:    testProfile(),
				Catalog:    catalog,
				Global:     global,
				Consensus:  tt.consensus,
			})

			if tt.kept {
				require.Len(t, result.CompetitorsFound, 1)
				assert.InDelta(t, 0.65, result.CompetitorsFound[0].Confidence, 1e-9)
				assert.True(t, result.ConsensusBoosted)
				return
			}
			assert.Empty(t, result.CompetitorsFound)
			assert.Equal(t, []string{"SAP"}, result.RejectedTerms)
			assert.False(t, result.ConsensusBoosted)
		})
	}
}

func TestClassifyDedupesByCanonical(t *testing.T) {
	catalog, global := testCatalog(), testGlobal()
	n := NewNormalizer(nil, catalog, global)

	result := NewClassifier().Classify(ClassifyInput{
		Candidates: []Candidate{
			newCandidate(n, "Salesforce CRM", 1, 0.1),
			newCandidate(n, "Salesforce", 3, 0.5),
		},
		Profile: testProfile(),
		Catalog: catalog,
		Global:  global,
	})

	require.Len(t, result.CompetitorsFound, 1)
	got := result.CompetitorsFound[0]
	assert.Equal(t, "Salesforce", got.Name)
	assert.Equal(t, 4, got.MentionCount)
	assert.InDelta(t, 0.1, got.FirstPositionRatio, 1e-9)
}

func TestClassifyCapsCompetitors(t *testing.T) {
	var entries []models.GazetteerEntry
	var names []string
	for i := 1; i <= 25; i++ {
		name := fmt.Sprintf("Vendor%02d", i)
		names = append(names, name)
		entries = append(entries, models.GazetteerEntry{CanonicalName: name})
	}
	global := gazetteer.New(entries)
	n := NewNormalizer(nil, global)

	var candidates []Candidate
	for i, name := range names {
		candidates = append(candidates, newCandidate(n, name, 1, float64(i)/100))
	}

	result := NewClassifier().Classify(ClassifyInput{
		Candidates: candidates,
		Profile:    testProfile(),
		Global:     global,
	})

	require.Len(t, result.CompetitorsFound, MaxCompetitors)
	assert.Equal(t, "Vendor01", result.CompetitorsFound[0].Name)
	assert.Equal(t, "Vendor20", result.CompetitorsFound[MaxCompetitors-1].Name)
}

func TestClassifyDiscovered(t *testing.T) {
	n := NewNormalizer(nil)

	result := NewClassifier().Classify(ClassifyInput{
		Candidates: []Candidate{newCandidate(n, "Zorblax", 1, 0.2)},
		Profile:    testProfile(),
		Discovered: map[string]models.DiscoveredOrg{"zorblax": {Name: "Zorblax", Confidence: 0.8}},
	})

	require.Len(t, result.CompetitorsFound, 1)
	assert.Equal(t, models.SourceDiscovered, result.CompetitorsFound[0].Source)
	assert.InDelta(t, 0.8, result.CompetitorsFound[0].Confidence, 1e-9)
	assert.Equal(t, models.SourceCounts{Discovered: 1}, result.SourceCounts)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestClassifyEmpty(t *testing.T) {
	result := NewClassifier().Classify(ClassifyInput{Profile: testProfile()})

	assert.NotNil(t, result.OrgBrandsFound)
	assert.NotNil(t, result.CompetitorsFound)
	assert.NotNil(t, result.RejectedTerms)
	assert.Empty(t, result.CompetitorsFound)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}
