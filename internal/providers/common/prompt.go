package common

import (
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// SystemPrompt frames every discovery call
const SystemPrompt = "You classify short terms taken from an AI assistant's answer. Decide which terms are names of organizations, companies, products or brands. Answer only with JSON."

// BuildDiscoveryPrompt renders the user message for one discovery batch
func BuildDiscoveryPrompt(req models.DiscoveryRequest) string {
	var b strings.Builder

	if req.OrgName != "" {
		fmt.Fprintf(&b, "The answer was written for a question asked on behalf of %s", req.OrgName)
		if len(req.Keywords) > 0 {
			fmt.Fprintf(&b, " (industry keywords: %s)", strings.Join(req.Keywords, ", "))
		}
		b.WriteString(".\n\n")
	}

	b.WriteString("Candidate terms:\n")
	for _, c := range req.Candidates {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString(`
Rules:
- Only return terms from the candidate list, spelled exactly as given
- A term is an organization when it names a company, product, service or brand
- Generic nouns, product features, job titles, places and people are not organizations
- Confidence is a number between 0 and 1

Return {"organizations": [{"name": "...", "confidence": 0.9}]}. Return an empty list when none qualify.

Answer text:
`)
	b.WriteString(req.Context)
	return b.String()
}
