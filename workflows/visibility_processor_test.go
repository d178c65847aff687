package workflows_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/testutil"
	"github.com/AI-Template-SDK/senso-visibility/services"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

const exampleText = "While Salesforce CRM is popular, our HubSpot Marketing Hub offers better value."

type fixture struct {
	processor *workflows.VisibilityProcessor
	catalog   *testutil.FakeCatalog
	store     *testutil.FakeResultStore
	orgID     uuid.UUID
	promptID  uuid.UUID
}

func newFixture(t *testing.T, runs int) *fixture {
	t.Helper()
	global, err := gazetteer.LoadGlobal()
	require.NoError(t, err)

	f := &fixture{orgID: uuid.New(), promptID: uuid.New(), catalog: testutil.NewFakeCatalog()}
	f.catalog.Profiles[f.orgID] = testutil.SampleProfile(f.orgID)
	f.catalog.Catalogs[f.orgID] = testutil.SampleCatalog()

	var seeded []*models.QuestionRun
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < runs; i++ {
		seeded = append(seeded, &models.QuestionRun{
			QuestionRunID: uuid.New(),
			OrgID:         f.orgID,
			PromptID:      f.promptID,
			Provider:      []string{"openai", "anthropic"}[i%2],
			ResponseText:  exampleText,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	f.store = testutil.NewFakeResultStore(seeded...)

	cfg := testutil.SampleConfig()
	registry := gazetteer.NewRegistry()
	visibility := services.NewVisibilityService(cfg, detection.NewDetector(detection.Options{}), registry, global, nil)
	loader := services.NewAnalysisLoader(cfg, f.catalog)
	f.processor = workflows.NewVisibilityProcessor(cfg, visibility, loader, f.store, workflows.NewSlackAlerter(""))
	return f
}

func (f *fixture) runIDs(t *testing.T) []string {
	t.Helper()
	runs, err := f.store.ListQuestionRuns(context.Background(), f.orgID)
	require.NoError(t, err)
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.QuestionRunID.String())
	}
	return ids
}

func TestAnalyzeRun(t *testing.T) {
	f := newFixture(t, 1)
	runID := f.runIDs(t)[0]

	record, err := f.processor.AnalyzeRun(context.Background(), runID)
	require.NoError(t, err)

	assert.Equal(t, runID, record.QuestionRunID.String())
	assert.Equal(t, f.orgID, record.OrgID)
	assert.Equal(t, f.promptID, record.PromptID)
	assert.True(t, record.Result.BrandPresent)
	assert.Equal(t, []string{"HubSpot Marketing Hub"}, record.Result.Brands)
	assert.Equal(t, []string{"Salesforce CRM"}, record.Result.Competitors)
	assert.Equal(t, 1, f.store.SavedCount())
}

func TestAnalyzeRunIsRepeatable(t *testing.T) {
	f := newFixture(t, 1)
	runID := f.runIDs(t)[0]

	first, err := f.processor.AnalyzeRun(context.Background(), runID)
	require.NoError(t, err)
	second, err := f.processor.AnalyzeRun(context.Background(), runID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.SavedCount())
	assert.Equal(t, first.Result.VisibilityScore, second.Result.VisibilityScore)
	assert.Equal(t, first.Result.Competitors, second.Result.Competitors)
}

func TestAnalyzeRunErrors(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.processor.AnalyzeRun(context.Background(), "not-a-uuid")
		assert.True(t, eris.Is(err, services.ErrInvalidRequest))
	})

	t.Run("unknown run", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.processor.AnalyzeRun(context.Background(), uuid.NewString())
		assert.True(t, eris.Is(err, services.ErrQuestionRunNotFound))
	})

	t.Run("org missing", func(t *testing.T) {
		f := newFixture(t, 1)
		delete(f.catalog.Profiles, f.orgID)
		_, err := f.processor.AnalyzeRun(context.Background(), f.runIDs(t)[0])
		assert.True(t, eris.Is(err, services.ErrOrgNotFound))
	})

	t.Run("save fails", func(t *testing.T) {
		f := newFixture(t, 1)
		f.store.SaveErr = errors.New("disk full")
		_, err := f.processor.AnalyzeRun(context.Background(), f.runIDs(t)[0])
		assert.EqualError(t, err, "disk full")
		assert.Equal(t, 0, f.store.SavedCount())
	})
}

func TestLoadInputCarriesConsensusContext(t *testing.T) {
	f := newFixture(t, 1)
	runID := f.runIDs(t)[0]
	f.catalog.Recent[f.promptID] = []models.RecentCompetitor{
		{Name: "Pipedrive", Provider: "anthropic", SeenAt: time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)},
	}

	input, err := f.processor.LoadInput(context.Background(), runID)
	require.NoError(t, err)
	require.NotNil(t, input.Request.CrossProvider)
	assert.Equal(t, "openai", input.Request.CrossProvider.Provider)
	assert.Len(t, input.Request.CrossProvider.RecentCompetitors, 1)
	assert.Equal(t, input.Run.ResponseText, input.Request.ResponseText)
}

func TestReanalyzeRuns(t *testing.T) {
	f := newFixture(t, 6)
	ids := f.runIDs(t)
	missing := uuid.NewString()

	summary := f.processor.ReanalyzeRuns(context.Background(), f.orgID.String(), append(ids, missing))

	assert.Equal(t, f.orgID.String(), summary.OrgID)
	assert.Equal(t, 7, summary.TotalRuns)
	assert.Equal(t, 6, summary.Analyzed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{missing}, summary.FailedRunIDs)
	assert.Equal(t, 6, f.store.SavedCount())
}

func TestReanalyzeRunsEmpty(t *testing.T) {
	f := newFixture(t, 0)
	summary := f.processor.ReanalyzeRuns(context.Background(), f.orgID.String(), nil)
	assert.Equal(t, &workflows.ReanalyzeSummary{OrgID: f.orgID.String()}, summary)
}

func TestReanalyzeRunsCancelled(t *testing.T) {
	f := newFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := f.processor.ReanalyzeRuns(ctx, f.orgID.String(), f.runIDs(t))
	assert.Equal(t, 3, summary.TotalRuns)
	assert.Equal(t, summary.TotalRuns, summary.Analyzed+summary.Failed, fmt.Sprintf("%+v", summary))
}
