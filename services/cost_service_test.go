package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI-Template-SDK/senso-visibility/services"
)

func TestCalculateCost(t *testing.T) {
	cost := services.NewCostService()

	tests := []struct {
		name     string
		provider string
		model    string
		input    int
		output   int
		expected float64
	}{
		{"gpt-4.1-mini", "openai", "gpt-4.1-mini", 1_000_000, 1_000_000, 2.00},
		{"model name is case insensitive", "openai", "GPT-4.1", 500_000, 0, 1.00},
		{"claude sonnet", "anthropic", "claude-sonnet-4-20250514", 1000, 1000, 0.018},
		{"unknown openai model uses default", "azure-openai", "my-deployment", 1_000_000, 0, 0.40},
		{"unknown claude model uses default", "claude", "claude-next", 0, 1_000_000, 4.00},
		{"zero tokens", "anthropic", "claude-3-5-haiku-20241022", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cost.CalculateCost(tt.provider, tt.model, tt.input, tt.output)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}
