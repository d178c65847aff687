package gpt_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/gpt"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
)

func TestDiscover(t *testing.T) {
	server := testutil.NewMockOpenAIServer()
	defer server.Close()
	server.Reply = testutil.SampleStructuredReply()

	var pricedModel string
	cost := &testutil.MockCostService{
		CalculateCostFunc: func(provider, model string, in, out int) float64 {
			pricedModel = model
			assert.Equal(t, 120, in)
			assert.Equal(t, 30, out)
			return 0.0042
		},
	}

	d := gpt.NewDiscoverer(testutil.SampleConfig(), cost, option.WithBaseURL(server.URL()))
	res, err := d.Discover(context.Background(), testutil.SampleDiscoveryRequest())
	require.NoError(t, err)

	assert.Equal(t, []models.DiscoveredOrg{{Name: "Zorblax", Confidence: 0.92}}, res.Organizations)
	assert.Equal(t, 120, res.InputTokens)
	assert.Equal(t, 30, res.OutputTokens)
	assert.Equal(t, 0.0042, res.Cost)
	assert.Equal(t, "gpt-4.1-mini", pricedModel)
	assert.Equal(t, "openai", d.Name())

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4.1-mini", requests[0]["model"])
	format, ok := requests[0]["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}

func TestDiscoverFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"empty reply", http.StatusOK, ""},
		{"malformed json", http.StatusOK, `{"organizations": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockOpenAIServer()
			defer server.Close()
			server.StatusCode = tt.status
			server.Reply = tt.reply

			d := gpt.NewDiscoverer(testutil.SampleConfig(), nil, option.WithBaseURL(server.URL()))
			_, err := d.Discover(context.Background(), testutil.SampleDiscoveryRequest())
			assert.Error(t, err)
			assert.Len(t, server.Requests(), 1, "discovery must not retry")
		})
	}
}

func TestDiscoverNoCandidates(t *testing.T) {
	server := testutil.NewMockOpenAIServer()
	defer server.Close()

	d := gpt.NewDiscoverer(testutil.SampleConfig(), nil, option.WithBaseURL(server.URL()))
	res, err := d.Discover(context.Background(), models.DiscoveryRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Organizations)
	assert.Empty(t, server.Requests())
}

func TestNewDiscovererModelSelection(t *testing.T) {
	cfg := testutil.SampleConfig()
	cfg.Discovery.Model = "claude-3-5-haiku-20241022"

	server := testutil.NewMockOpenAIServer()
	defer server.Close()
	server.Reply = `{"organizations":[]}`

	d := gpt.NewDiscoverer(cfg, nil, option.WithBaseURL(server.URL()))
	_, err := d.Discover(context.Background(), testutil.SampleDiscoveryRequest())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", server.Requests()[0]["model"])
}
