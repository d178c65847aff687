package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"conservative", StrategyConservative, true},
		{" Liberal ", StrategyLiberal, true},
		{"fallback", StrategyFallback, true},
		{"both", StrategyFallback, true},
		{"", StrategyFallback, true},
		{"aggressive", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStrategy(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBareDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.HubSpot.com/products?x=1": "hubspot.com",
		"hubspot.com":                          "hubspot.com",
		"http://app.example.io:8080":           "app.example.io",
		"localhost":                            "",
		"":                                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, BareDomain(in), in)
	}
}

func TestBrandTerms(t *testing.T) {
	p := OrgBrandProfile{
		OrgName:           "HubSpot",
		Domain:            "https://www.hubspot.com",
		Keywords:          []string{"crm"},
		ProductsServices:  []string{"Marketing Hub"},
		CatalogBrandNames: []string{"HubSpot"},
		CatalogVariants:   []string{"HubSpot CRM"},
		Overlay:           OrgOverlay{BrandVariants: []string{"HubSpot Academy"}},
	}

	assert.Equal(t, []string{"HubSpot", "hubspot.com", "HubSpot", "HubSpot CRM", "HubSpot Academy"}, p.BrandTerms())
	assert.Empty(t, OrgBrandProfile{}.BrandTerms())
}
