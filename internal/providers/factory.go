package providers

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/gpt"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

// NewDiscoverer builds the configured discovery backend behind a rate limiter
// and circuit breaker. It returns services.ErrDiscoveryDisabled when discovery
// is switched off.
func NewDiscoverer(cfg *config.Config, costService services.CostService) (DiscoveryProvider, error) {
	if cfg == nil || !cfg.Discovery.Enabled {
		return nil, services.ErrDiscoveryDisabled
	}

	var backend DiscoveryProvider
	switch provider := strings.ToLower(cfg.Discovery.Provider); provider {
	case "openai", "azure", "azure-openai":
		if cfg.OpenAIAPIKey == "" && cfg.AzureOpenAIKey == "" {
			return nil, eris.New("OpenAI API key is empty in config")
		}
		backend = gpt.NewDiscoverer(cfg, costService)
	case "anthropic", "claude":
		if cfg.AnthropicAPIKey == "" {
			return nil, eris.New("Anthropic API key is empty in config")
		}
		backend = claude.NewDiscoverer(cfg, costService)
	default:
		return nil, eris.Errorf("unsupported discovery provider: %s", cfg.Discovery.Provider)
	}

	zap.L().Info("[ProviderFactory] selected discovery provider",
		zap.String("provider", backend.Name()),
		zap.Float64("rate_per_second", cfg.Discovery.RatePerSecond),
		zap.Int("breaker_failures", cfg.Discovery.BreakerFailures),
	)

	return common.NewGuard(backend.Name(), backend, common.GuardOptions{
		RatePerSecond: cfg.Discovery.RatePerSecond,
		MaxFailures:   cfg.Discovery.BreakerFailures,
		Cooldown:      cfg.Discovery.BreakerCooldown,
	}), nil
}
