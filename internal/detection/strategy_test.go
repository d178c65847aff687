package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func outcomeWith(strategy models.Strategy, brands []string, competitors ...string) *Outcome {
	o := &Outcome{Strategy: strategy}
	o.Result.OrgBrandsFound = brands
	for _, c := range competitors {
		o.Result.CompetitorsFound = append(o.Result.CompetitorsFound, models.CompetitorMatch{Name: c, CanonicalName: c})
	}
	return o
}

func TestSelectOutcome(t *testing.T) {
	cons := models.StrategyConservative
	lib := models.StrategyLiberal

	tests := []struct {
		name         string
		conservative *Outcome
		liberal      *Outcome
		want         models.Strategy
	}{
		{"conservative found competitors", outcomeWith(cons, nil, "Zoho"), outcomeWith(lib, nil, "Zoho", "Pipedrive"), cons},
		{"liberal found competitors", outcomeWith(cons, []string{"HubSpot"}), outcomeWith(lib, []string{"HubSpot"}, "Salesforce"), lib},
		{"liberal found the brand", outcomeWith(cons, nil), outcomeWith(lib, []string{"HubSpot"}), lib},
		{"both brand only", outcomeWith(cons, []string{"HubSpot"}), outcomeWith(lib, []string{"HubSpot"}), cons},
		{"both empty", outcomeWith(cons, nil), outcomeWith(lib, nil), cons},
		{"no liberal run", outcomeWith(cons, nil), nil, cons},
		{"no conservative run", nil, outcomeWith(lib, nil), lib},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectOutcome(tt.conservative, tt.liberal).Strategy)
		})
	}
}

func TestHeuristicDiscover(t *testing.T) {
	req := models.DiscoveryRequest{
		Candidates: []string{"Zorblax Inc", "acme.io", "Quantix", "Blue Sky", "The", "Zorblax Inc"},
		Context:    "Teams switching from Quantix often mention Blue Sky weather.",
	}

	got := HeuristicDiscover(req)

	names := make([]string, len(got))
	for i, o := range got {
		names[i] = o.Name
		assert.InDelta(t, heuristicConfidence, o.Confidence, 1e-9)
	}
	assert.Equal(t, []string{"Zorblax Inc", "acme.io", "Quantix"}, names)
}

func TestDiscoveryBatchAndConfidence(t *testing.T) {
	var terms []string
	for i := 0; i < 30; i++ {
		terms = append(terms, string(rune('A'+i%26))+"term")
	}
	assert.Len(t, discoveryBatch(terms, 0), MaxDiscoveryTerms)
	assert.Len(t, discoveryBatch(terms, 5), 5)
	assert.Len(t, discoveryBatch(terms[:3], 10), 3)

	found := confidentOrgs([]models.DiscoveredOrg{
		{Name: "Zorblax", Confidence: 0.7},
		{Name: "zorblax", Confidence: 0.9},
		{Name: "Quantix", Confidence: 0.6},
		{Name: " ", Confidence: 1},
	}, DefaultDiscoveryMinConf)

	assert.Len(t, found, 1)
	assert.Equal(t, models.DiscoveredOrg{Name: "zorblax", Confidence: 0.9}, found["zorblax"])
}
