package common_test

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

func TestParseDiscoveryResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []models.DiscoveredOrg
	}{
		{
			name:     "structured object",
			raw:      `{"organizations":[{"name":"Zorblax","confidence":0.92},{"name":"Acme Inc","confidence":0.7}]}`,
			expected: []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 0.92}, {Name: "Acme Inc", Confidence: 0.7}},
		},
		{
			name:     "object in code fence",
			raw:      "```json\n{\"organizations\":[{\"name\":\"Zorblax\",\"confidence\":0.9}]}\n```",
			expected: []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 0.9}},
		},
		{
			name:     "array of objects",
			raw:      `[{"name":"Zorblax","confidence":1.4},{"name":"zorblax","confidence":0.5}]`,
			expected: []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 1}},
		},
		{
			name:     "array of strings",
			raw:      `["Zorblax", " ", "Acme Inc"]`,
			expected: []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 0.8}, {Name: "Acme Inc", Confidence: 0.8}},
		},
		{
			name: "line list",
			raw:  "- Zorblax: 0.95\n* Acme Inc (0.6)\n3. \"Globex\"\n\n",
			expected: []models.DiscoveredOrg{
				{Name: "Zorblax", Confidence: 0.95},
				{Name: "Acme Inc", Confidence: 0.6},
				{Name: "Globex", Confidence: 0.8},
			},
		},
		{
			name:     "none answer",
			raw:      "None",
			expected: []models.DiscoveredOrg{},
		},
		{
			name:     "empty object list",
			raw:      `{"organizations":[]}`,
			expected: []models.DiscoveredOrg{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := common.ParseDiscoveryResponse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDiscoveryResponseErrors(t *testing.T) {
	_, err := common.ParseDiscoveryResponse("  \n ")
	assert.True(t, eris.Is(err, services.ErrEmptyDiscoveryResponse))

	_, err = common.ParseDiscoveryResponse("```\n```")
	assert.True(t, eris.Is(err, services.ErrEmptyDiscoveryResponse))

	_, err = common.ParseDiscoveryResponse(`{"organizations": [`)
	assert.Error(t, err)

	_, err = common.ParseDiscoveryResponse(`[1, 2]`)
	assert.Error(t, err)
}

func TestBuildDiscoveryPrompt(t *testing.T) {
	prompt := common.BuildDiscoveryPrompt(models.DiscoveryRequest{
		OrgName:    "HubSpot",
		Keywords:   []string{"crm", "marketing"},
		Candidates: []string{"Zorblax", "Smart Scheduling"},
		Context:    "Teams often pick Zorblax.",
	})

	assert.Contains(t, prompt, "on behalf of HubSpot (industry keywords: crm, marketing)")
	assert.Contains(t, prompt, "- Zorblax\n- Smart Scheduling\n")
	assert.Contains(t, prompt, `{"organizations": [{"name": "...", "confidence": 0.9}]}`)
	assert.True(t, strings.HasSuffix(prompt, "Answer text:\nTeams often pick Zorblax."))

	bare := common.BuildDiscoveryPrompt(models.DiscoveryRequest{Candidates: []string{"Zorblax"}})
	assert.NotContains(t, bare, "on behalf of")
}
