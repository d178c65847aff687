package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name       string
		input      string
		normalized string
		confidence float64
		valid      bool
	}{
		{"known mixed case", "hubspot", "HubSpot", 1.0, true},
		{"curly quotes and possessive", "  “HubSpot’s”  ", "HubSpot", 1.0, true},
		{"minor words stay lower", "bank of america", "Bank of America", 0.9, true},
		{"collapsed whitespace", "Zoho   One", "Zoho One", 1.0, true},
		{"acronym kept", "IBM", "IBM", 1.0, true},
		{"two letter form", "AI", "AI", 0.7, true},
		{"domain kept", "booking.com", "booking.com", 1.0, true},
		{"numeric", "2024", "2024", 1.0, false},
		{"connective", "and", "And", 0.9, false},
		{"single letter", "A", "A", 0.7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			assert.Equal(t, tt.normalized, got.NormalizedForm)
			assert.Equal(t, tt.normalized, got.CanonicalForm)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.valid, got.Valid)
		})
	}
}

func TestNormalizeResolvesAliases(t *testing.T) {
	g := gazetteer.New([]models.GazetteerEntry{
		{CanonicalName: "Salesforce", Aliases: []string{"Salesforce CRM"}, Confidence: 0.9},
		{CanonicalName: "Pipedrive"},
	})
	n := NewNormalizer(EditDistanceSimilarity{}, nil, g)

	tests := []struct {
		name       string
		input      string
		normalized string
		canonical  string
		confidence float64
	}{
		{"exact alias", "Salesforce CRM", "Salesforce CRM", "Salesforce", 0.85},
		{"canonical name", "Salesforce", "Salesforce", "Salesforce", 1.0},
		{"fuzzy match", "Pipedrve", "Pipedrve", "Pipedrive", 0.85},
		{"no match", "Zendesk", "Zendesk", "Zendesk", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			assert.Equal(t, tt.normalized, got.NormalizedForm)
			assert.Equal(t, tt.canonical, got.CanonicalForm)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.True(t, got.Valid)
		})
	}
}

func TestNormalizeKeepsGenericWords(t *testing.T) {
	global, err := gazetteer.LoadGlobal()
	require.NoError(t, err)
	n := NewNormalizer(nil, global)

	for _, word := range []string{"Contact", "Video", "Account", "Marketing", "Cloud"} {
		assert.Equal(t, word, n.Normalize(word).CanonicalForm, word)
	}
	assert.Equal(t, "Zoho", n.Normalize("Zoho One").CanonicalForm)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(nil)
	for _, input := range []string{"hubspot", "bank of america", "“Zoho’s”", "booking.com", "Monday.com", "the home depot"} {
		once := n.Normalize(input).NormalizedForm
		assert.Equal(t, once, n.Normalize(once).NormalizedForm, input)
	}
}
