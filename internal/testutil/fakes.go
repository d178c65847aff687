// Package testutil holds in-memory fakes of the service interfaces
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

// SampleConfig returns a configuration with discovery off and the fallback strategy
func SampleConfig() *config.Config {
	return &config.Config{
		Port:        "8080",
		Environment: "test",
		Log:         config.LogConfig{Level: "debug", Format: "console"},
		Detection: config.DetectionConfig{
			Strategy:              models.StrategyFallback,
			ConsensusLookbackDays: 7,
			ReanalyzeConcurrency:  2,
		},
		Discovery: config.DiscoveryConfig{
			Provider:      "openai",
			Model:         "gpt-4.1-mini",
			Timeout:       time.Second,
			MinConfidence: 0.75,
			MaxTerms:      20,
		},
	}
}

// SampleProfile is an org whose own brand is HubSpot
func SampleProfile(orgID uuid.UUID) *models.OrgProfile {
	return &models.OrgProfile{
		OrgID:       orgID.String(),
		Name:        "HubSpot",
		Domain:      "https://www.hubspot.com",
		Keywords:    []string{"crm", "inbound marketing"},
		Competitors: []string{"Pipedrive"},
	}
}

// SampleCatalog lists HubSpot as the org brand and Zoho as a verified competitor
func SampleCatalog() []models.BrandCatalogEntry {
	return []models.BrandCatalogEntry{
		{Name: "HubSpot", IsOrgBrand: true, Variants: []string{"HubSpot Marketing Hub", "HubSpot CRM"}},
		{Name: "Zoho", Variants: []string{"Zoho CRM"}},
	}
}

// FakeCatalog is an in-memory services.CatalogService
type FakeCatalog struct {
	Profiles   map[uuid.UUID]*models.OrgProfile
	Catalogs   map[uuid.UUID][]models.BrandCatalogEntry
	Overlays   map[uuid.UUID]*models.OrgOverlay
	Recent     map[uuid.UUID][]models.RecentCompetitor
	RecentErr  error
	CatalogErr error
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Profiles: make(map[uuid.UUID]*models.OrgProfile),
		Catalogs: make(map[uuid.UUID][]models.BrandCatalogEntry),
		Overlays: make(map[uuid.UUID]*models.OrgOverlay),
		Recent:   make(map[uuid.UUID][]models.RecentCompetitor),
	}
}

func (f *FakeCatalog) GetOrgProfile(ctx context.Context, orgID uuid.UUID) (*models.OrgProfile, error) {
	p, ok := f.Profiles[orgID]
	if !ok {
		return nil, eris.Wrapf(services.ErrOrgNotFound, "org %s", orgID)
	}
	return p, nil
}

func (f *FakeCatalog) GetBrandCatalog(ctx context.Context, orgID uuid.UUID) ([]models.BrandCatalogEntry, error) {
	if f.CatalogErr != nil {
		return nil, f.CatalogErr
	}
	return f.Catalogs[orgID], nil
}

func (f *FakeCatalog) GetOverlay(ctx context.Context, orgID uuid.UUID) (*models.OrgOverlay, error) {
	return f.Overlays[orgID], nil
}

func (f *FakeCatalog) GetRecentCompetitors(ctx context.Context, promptID uuid.UUID, since time.Time) ([]models.RecentCompetitor, error) {
	if f.RecentErr != nil {
		return nil, f.RecentErr
	}
	var out []models.RecentCompetitor
	for _, rc := range f.Recent[promptID] {
		if !rc.SeenAt.Before(since) {
			out = append(out, rc)
		}
	}
	return out, nil
}

// FakeResultStore keeps question runs and saved results in memory
type FakeResultStore struct {
	mu      sync.Mutex
	Runs    map[uuid.UUID]*models.QuestionRun
	Saved   map[uuid.UUID]*models.VisibilityRecord
	SaveErr error
}

func NewFakeResultStore(runs ...*models.QuestionRun) *FakeResultStore {
	s := &FakeResultStore{
		Runs:  make(map[uuid.UUID]*models.QuestionRun),
		Saved: make(map[uuid.UUID]*models.VisibilityRecord),
	}
	for _, r := range runs {
		s.Runs[r.QuestionRunID] = r
	}
	return s
}

func (s *FakeResultStore) GetQuestionRun(ctx context.Context, questionRunID uuid.UUID) (*models.QuestionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.Runs[questionRunID]
	if !ok {
		return nil, eris.Wrapf(services.ErrQuestionRunNotFound, "question run %s", questionRunID)
	}
	return run, nil
}

func (s *FakeResultStore) ListQuestionRuns(ctx context.Context, orgID uuid.UUID) ([]*models.QuestionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.QuestionRun
	for _, r := range s.Runs {
		if r.OrgID == orgID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *FakeResultStore) ListUnanalyzedRuns(ctx context.Context, since time.Time, limit int) ([]*models.QuestionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.QuestionRun
	for id, r := range s.Runs {
		if _, done := s.Saved[id]; done || r.CreatedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FakeResultStore) SaveResult(ctx context.Context, record *models.VisibilityRecord) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saved[record.QuestionRunID] = record
	return nil
}

// SavedCount is the number of distinct question runs with a stored result
func (s *FakeResultStore) SavedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Saved)
}
