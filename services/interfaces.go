// services/interfaces.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var (
	// ErrOrgNotFound is returned by the catalog when the org does not exist
	ErrOrgNotFound = eris.New("organization not found")
	// ErrQuestionRunNotFound is returned when a stored run cannot be loaded
	ErrQuestionRunNotFound = eris.New("question run not found")
	// ErrInvalidRequest marks a request that can never succeed on retry
	ErrInvalidRequest = eris.New("invalid analysis request")
	// ErrDiscoveryDisabled is returned when no discovery provider is configured
	ErrDiscoveryDisabled = eris.New("discovery is disabled")
	// ErrEmptyDiscoveryResponse is returned when the discovery model answers with nothing parseable
	ErrEmptyDiscoveryResponse = eris.New("empty discovery response")
)

// AnalysisRequest is one (prompt, provider) response to analyze together with
// everything the pipeline reads about the org
type AnalysisRequest struct {
	OrgID           string                       `json:"org_id"`
	ResponseText    string                       `json:"response_text"`
	Profile         models.OrgProfile            `json:"profile"`
	Catalog         []models.BrandCatalogEntry   `json:"catalog"`
	Overlay         *models.OrgOverlay           `json:"overlay,omitempty"`
	CrossProvider   *models.CrossProviderContext `json:"cross_provider,omitempty"`
	Strategy        models.Strategy              `json:"strategy,omitempty"`
	EnableDiscovery bool                         `json:"enable_discovery"`
}

// VisibilityService runs detection and scoring over a single response
type VisibilityService interface {
	Analyze(ctx context.Context, req *AnalysisRequest) (*models.AnalysisResult, error)
	// Invalidate drops the cached catalog gazetteer of an org
	Invalidate(orgID string)
}

// CatalogService reads org data owned by the product database
type CatalogService interface {
	GetOrgProfile(ctx context.Context, orgID uuid.UUID) (*models.OrgProfile, error)
	GetBrandCatalog(ctx context.Context, orgID uuid.UUID) ([]models.BrandCatalogEntry, error)
	GetOverlay(ctx context.Context, orgID uuid.UUID) (*models.OrgOverlay, error)
	GetRecentCompetitors(ctx context.Context, promptID uuid.UUID, since time.Time) ([]models.RecentCompetitor, error)
}

// ResultStore reads question runs and persists their analysis
type ResultStore interface {
	GetQuestionRun(ctx context.Context, questionRunID uuid.UUID) (*models.QuestionRun, error)
	ListQuestionRuns(ctx context.Context, orgID uuid.UUID) ([]*models.QuestionRun, error)
	// ListUnanalyzedRuns returns runs created at or after since that have no stored result, oldest first
	ListUnanalyzedRuns(ctx context.Context, since time.Time, limit int) ([]*models.QuestionRun, error)
	SaveResult(ctx context.Context, record *models.VisibilityRecord) error
}

// AnalysisLoader assembles an AnalysisRequest for a stored question run
type AnalysisLoader interface {
	LoadRequest(ctx context.Context, run *models.QuestionRun) (*AnalysisRequest, error)
}

type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}

// GenerateSchema builds a strict JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return map[string]interface{}{
		"type":                 "object",
		"properties":           schema.Properties,
		"required":             schema.Required,
		"additionalProperties": false,
	}
}
