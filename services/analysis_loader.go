// services/analysis_loader.go
package services

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type analysisLoader struct {
	cfg     *config.Config
	catalog CatalogService
}

func NewAnalysisLoader(cfg *config.Config, catalog CatalogService) AnalysisLoader {
	return &analysisLoader{cfg: cfg, catalog: catalog}
}

// LoadRequest reads the org profile, catalog, overlay and the competitors
// other providers returned for the same prompt inside the lookback window
func (l *analysisLoader) LoadRequest(ctx context.Context, run *models.QuestionRun) (*AnalysisRequest, error) {
	if run == nil {
		return nil, eris.Wrap(ErrInvalidRequest, "question run is nil")
	}

	profile, err := l.catalog.GetOrgProfile(ctx, run.OrgID)
	if err != nil {
		return nil, err
	}

	catalog, err := l.catalog.GetBrandCatalog(ctx, run.OrgID)
	if err != nil {
		return nil, err
	}

	overlay, err := l.catalog.GetOverlay(ctx, run.OrgID)
	if err != nil {
		return nil, err
	}

	lookback := l.cfg.Detection.ConsensusLookback()
	recent, err := l.catalog.GetRecentCompetitors(ctx, run.PromptID, run.CreatedAt.Add(-lookback))
	if err != nil {
		// consensus only raises confidence; analysis continues without it
		zap.L().Warn("[LoadRequest] recent competitors unavailable, skipping consensus",
			zap.String("question_run_id", run.QuestionRunID.String()),
			zap.Error(err),
		)
		recent = nil
	}

	req := &AnalysisRequest{
		OrgID:        run.OrgID.String(),
		ResponseText: run.ResponseText,
		Profile:      *profile,
		Catalog:      catalog,
		Overlay:      overlay,
		CrossProvider: &models.CrossProviderContext{
			PromptID:          run.PromptID.String(),
			Provider:          run.Provider,
			AsOf:              run.CreatedAt,
			Lookback:          lookback,
			RecentCompetitors: recent,
		},
		Strategy:        l.cfg.Detection.Strategy,
		EnableDiscovery: l.cfg.Discovery.Enabled,
	}

	zap.L().Debug("[LoadRequest] analysis input loaded",
		zap.String("question_run_id", run.QuestionRunID.String()),
		zap.String("org", profile.Name),
		zap.Int("catalog_entries", len(catalog)),
		zap.Int("recent_competitors", len(recent)),
	)
	return req, nil
}
