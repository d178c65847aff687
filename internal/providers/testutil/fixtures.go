package testutil

import (
	"time"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// SampleConfig returns a test configuration with discovery enabled
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:    "test-openai-key",
		AnthropicAPIKey: "test-anthropic-key",
		Discovery: config.DiscoveryConfig{
			Enabled:         true,
			Provider:        "openai",
			Model:           "gpt-4.1-mini",
			Timeout:         2 * time.Second,
			MinConfidence:   0.75,
			MaxTerms:        20,
			BreakerFailures: 2,
			BreakerCooldown: time.Minute,
		},
	}
}

// SampleDiscoveryRequest returns a batch with one real company and one generic term
func SampleDiscoveryRequest() models.DiscoveryRequest {
	return models.DiscoveryRequest{
		OrgName:    "HubSpot",
		Keywords:   []string{"crm"},
		Candidates: []string{"Zorblax", "Smart Scheduling"},
		Context:    "Teams moving off spreadsheets often pick Zorblax. Smart Scheduling allows reps to book meetings.",
	}
}

// SampleStructuredReply is a reply in the requested JSON shape
func SampleStructuredReply() string {
	return `{"organizations":[{"name":"Zorblax","confidence":0.92}]}`
}
