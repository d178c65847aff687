package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func TestValidatorCheck(t *testing.T) {
	text := "Smart Scheduling allows teams to book meetings. Smart Scheduling is included. " +
		"Acme Rockets offers launch services. Zorblax is mentioned once. " +
		"Salesforce helps sales teams. Book rooms on booking.com for the trip."

	v := NewValidator()

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{"cue word in sentence", "Acme Rockets", ""},
		{"capability phrase", "Smart Scheduling", RejectNegativeContext},
		{"single mention without cue", "Zorblax", RejectEvidence},
		{"lower case", "acme", RejectShape},
		{"stopword", "The", RejectStopword},
		{"too short", "AB", RejectStopword},
		{"allow list skips context rules", "Salesforce", ""},
		{"domain shape", "booking.com", RejectEvidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Check(tt.candidate, text))
		})
	}
}

func TestValidatorCustomAllowList(t *testing.T) {
	text := "Zorblax is mentioned once."
	assert.Equal(t, RejectEvidence, NewValidator().Check("Zorblax", text))
	assert.Equal(t, "", NewValidator("  zorblax ").Check("Zorblax", text))
}

func TestValidatorFilterKeepsOrder(t *testing.T) {
	text := "Zendesk offers support desks. Zorblax appears. Freshdesk is a popular helpdesk."
	candidates := []models.RawCandidate{
		{Text: "Freshdesk"},
		{Text: "Zorblax"},
		{Text: "Zendesk"},
	}

	assert.Equal(t, []string{"Freshdesk", "Zendesk"}, NewValidator().Filter(candidates, text))
	assert.Empty(t, NewValidator().Filter(nil, text))
}
