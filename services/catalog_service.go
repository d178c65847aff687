// services/catalog_service.go
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type catalogService struct {
	db *sqlx.DB
}

func NewCatalogService(db *sqlx.DB) CatalogService {
	return &catalogService{db: db}
}

type orgRow struct {
	OrgID            uuid.UUID      `db:"org_id"`
	Name             string         `db:"name"`
	Domain           sql.NullString `db:"domain"`
	Keywords         pq.StringArray `db:"keywords"`
	Competitors      pq.StringArray `db:"competitors"`
	ProductsServices pq.StringArray `db:"products_services"`
}

func (r orgRow) toProfile() *models.OrgProfile {
	return &models.OrgProfile{
		OrgID:            r.OrgID.String(),
		Name:             r.Name,
		Domain:           r.Domain.String,
		Keywords:         []string(r.Keywords),
		Competitors:      []string(r.Competitors),
		ProductsServices: []string(r.ProductsServices),
	}
}

type catalogRow struct {
	Name       string         `db:"name"`
	IsOrgBrand bool           `db:"is_org_brand"`
	Variants   pq.StringArray `db:"variants"`
}

type overlayRow struct {
	CompetitorOverrides  pq.StringArray `db:"competitor_overrides"`
	CompetitorExclusions pq.StringArray `db:"competitor_exclusions"`
	BrandVariants        pq.StringArray `db:"brand_variants"`
}

func (s *catalogService) GetOrgProfile(ctx context.Context, orgID uuid.UUID) (*models.OrgProfile, error) {
	var row orgRow
	err := s.db.GetContext(ctx, &row, `
		SELECT org_id, name, domain, keywords, competitors, products_services
		FROM orgs
		WHERE org_id = $1 AND deleted_at IS NULL`, orgID)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrOrgNotFound, "org %s", orgID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load org %s", orgID)
	}
	return row.toProfile(), nil
}

func (s *catalogService) GetBrandCatalog(ctx context.Context, orgID uuid.UUID) ([]models.BrandCatalogEntry, error) {
	var rows []catalogRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT name, is_org_brand, variants
		FROM brand_catalog
		WHERE org_id = $1
		ORDER BY is_org_brand DESC, name`, orgID)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load brand catalog for org %s", orgID)
	}

	entries := make([]models.BrandCatalogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.BrandCatalogEntry{
			Name:       r.Name,
			IsOrgBrand: r.IsOrgBrand,
			Variants:   []string(r.Variants),
		})
	}
	zap.L().Debug("[GetBrandCatalog] loaded catalog", zap.String("org_id", orgID.String()), zap.Int("entries", len(entries)))
	return entries, nil
}

// GetOverlay returns nil when the org has no manual corrections
func (s *catalogService) GetOverlay(ctx context.Context, orgID uuid.UUID) (*models.OrgOverlay, error) {
	var row overlayRow
	err := s.db.GetContext(ctx, &row, `
		SELECT competitor_overrides, competitor_exclusions, brand_variants
		FROM org_overlays
		WHERE org_id = $1`, orgID)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load overlay for org %s", orgID)
	}
	return &models.OrgOverlay{
		CompetitorOverrides:  []string(row.CompetitorOverrides),
		CompetitorExclusions: []string(row.CompetitorExclusions),
		BrandVariants:        []string(row.BrandVariants),
	}, nil
}

// GetRecentCompetitors lists competitors published for the prompt by runs
// created at or after since, newest first
func (s *catalogService) GetRecentCompetitors(ctx context.Context, promptID uuid.UUID, since time.Time) ([]models.RecentCompetitor, error) {
	var rows []models.RecentCompetitor
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.name AS name, vr.provider AS provider, qr.created_at AS seen_at
		FROM visibility_results vr
		JOIN question_runs qr ON qr.question_run_id = vr.question_run_id
		CROSS JOIN LATERAL unnest(vr.competitors) AS c(name)
		WHERE vr.prompt_id = $1 AND qr.created_at >= $2
		ORDER BY qr.created_at DESC`, promptID, since)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load recent competitors for prompt %s", promptID)
	}
	return rows, nil
}
