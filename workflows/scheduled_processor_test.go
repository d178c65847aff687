package workflows_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/testutil"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

func TestPendingRunIDs(t *testing.T) {
	now := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)
	orgID := uuid.New()

	run := func(age time.Duration) *models.QuestionRun {
		return &models.QuestionRun{QuestionRunID: uuid.New(), OrgID: orgID, PromptID: uuid.New(), Provider: "openai", CreatedAt: now.Add(-age)}
	}
	older, newer, analyzed, stale := run(30*time.Hour), run(2*time.Hour), run(time.Hour), run(72*time.Hour)

	store := testutil.NewFakeResultStore(older, newer, analyzed, stale)
	store.Saved[analyzed.QuestionRunID] = &models.VisibilityRecord{QuestionRunID: analyzed.QuestionRunID}

	p := workflows.NewScheduledProcessor(store)
	ids, err := p.PendingRunIDs(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{older.QuestionRunID.String(), newer.QuestionRunID.String()}, ids)
}

func TestAnalyzeEvent(t *testing.T) {
	evt := workflows.AnalyzeEvent("run-1", "scheduled_sweep")
	assert.Equal(t, workflows.AnalyzeQuestionRunEventName, evt.Name)
	assert.Equal(t, map[string]interface{}{"question_run_id": "run-1", "triggered_by": "scheduled_sweep"}, evt.Data)
}
