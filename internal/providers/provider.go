package providers

import (
	"context"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// DiscoveryProvider is a model backend that classifies candidate terms as
// organization names
type DiscoveryProvider interface {
	Discover(ctx context.Context, req models.DiscoveryRequest) (*models.DiscoveryResult, error)
	Name() string
}
