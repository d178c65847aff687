package common

import "github.com/AI-Template-SDK/senso-visibility/internal/models"

// DiscoveryResponse is the structured answer requested from a discovery model
type DiscoveryResponse struct {
	Organizations []models.DiscoveredOrg `json:"organizations" jsonschema_description:"Candidate terms that are names of real companies, products or brands, each with a confidence between 0 and 1. Omit generic words, features and people."`
}

// defaultLineConfidence is assigned to names recovered from a plain line list
const defaultLineConfidence = 0.8
