package claude_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
)

func TestDiscover(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected []models.DiscoveredOrg
	}{
		{
			name:     "fenced json",
			reply:    "```json\n" + testutil.SampleStructuredReply() + "\n```",
			expected: []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 0.92}},
		},
		{
			name:     "line list",
			reply:    "- Zorblax: 0.9",
			expected: []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 0.9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockAnthropicServer()
			defer server.Close()
			server.Reply = tt.reply

			cfg := testutil.SampleConfig()
			cfg.Discovery.Provider = "anthropic"
			d := claude.NewDiscoverer(cfg, testutil.NewMockCostService(), option.WithBaseURL(server.URL()))

			res, err := d.Discover(context.Background(), testutil.SampleDiscoveryRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Organizations)
			assert.Equal(t, 100, res.InputTokens)
			assert.Equal(t, 20, res.OutputTokens)
			assert.Equal(t, 0.0015, res.Cost)

			requests := server.Requests()
			require.Len(t, requests, 1)
			assert.Equal(t, "claude-3-5-haiku-20241022", requests[0]["model"])
		})
	}
}

func TestDiscoverServerError(t *testing.T) {
	server := testutil.NewMockAnthropicServer()
	defer server.Close()
	server.StatusCode = http.StatusServiceUnavailable

	d := claude.NewDiscoverer(testutil.SampleConfig(), nil, option.WithBaseURL(server.URL()))
	_, err := d.Discover(context.Background(), testutil.SampleDiscoveryRequest())
	assert.Error(t, err)
	assert.Len(t, server.Requests(), 1)
	assert.Equal(t, "anthropic", d.Name())
}
