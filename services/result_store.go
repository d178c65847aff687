// services/result_store.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type resultStore struct {
	db *sqlx.DB
}

func NewResultStore(db *sqlx.DB) ResultStore {
	return &resultStore{db: db}
}

const questionRunColumns = `question_run_id, org_id, prompt_id, provider, response_text, created_at`

func (s *resultStore) GetQuestionRun(ctx context.Context, questionRunID uuid.UUID) (*models.QuestionRun, error) {
	var run models.QuestionRun
	err := s.db.GetContext(ctx, &run, `SELECT `+questionRunColumns+` FROM question_runs WHERE question_run_id = $1`, questionRunID)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrQuestionRunNotFound, "question run %s", questionRunID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load question run %s", questionRunID)
	}
	return &run, nil
}

func (s *resultStore) ListQuestionRuns(ctx context.Context, orgID uuid.UUID) ([]*models.QuestionRun, error) {
	var runs []*models.QuestionRun
	err := s.db.SelectContext(ctx, &runs, `SELECT `+questionRunColumns+` FROM question_runs WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to list question runs for org %s", orgID)
	}
	return runs, nil
}

func (s *resultStore) ListUnanalyzedRuns(ctx context.Context, since time.Time, limit int) ([]*models.QuestionRun, error) {
	var runs []*models.QuestionRun
	query := `SELECT qr.question_run_id, qr.org_id, qr.prompt_id, qr.provider, qr.response_text, qr.created_at
		FROM question_runs qr
		LEFT JOIN visibility_results vr ON vr.question_run_id = qr.question_run_id
		WHERE vr.question_run_id IS NULL AND qr.created_at >= $1
		ORDER BY qr.created_at
		LIMIT $2`
	if err := s.db.SelectContext(ctx, &runs, query, since, limit); err != nil {
		return nil, eris.Wrap(err, "failed to list unanalyzed question runs")
	}
	return runs, nil
}

type resultRow struct {
	VisibilityResultID uuid.UUID      `db:"visibility_result_id"`
	QuestionRunID      uuid.UUID      `db:"question_run_id"`
	OrgID              uuid.UUID      `db:"org_id"`
	PromptID           uuid.UUID      `db:"prompt_id"`
	Provider           string         `db:"provider"`
	BrandPresent       bool           `db:"brand_present"`
	Prominence         sql.NullInt64  `db:"prominence"`
	VisibilityScore    float64        `db:"visibility_score"`
	Brands             pq.StringArray `db:"brands"`
	Competitors        pq.StringArray `db:"competitors"`
	Metadata           string         `db:"metadata"` // jsonb, sent as text
	CreatedAt          time.Time      `db:"created_at"`
}

func newResultRow(record *models.VisibilityRecord) (*resultRow, error) {
	metadata, err := json.Marshal(record.Result.Metadata)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode analysis metadata")
	}

	row := &resultRow{
		VisibilityResultID: record.VisibilityResultID,
		QuestionRunID:      record.QuestionRunID,
		OrgID:              record.OrgID,
		PromptID:           record.PromptID,
		Provider:           record.Provider,
		BrandPresent:       record.Result.BrandPresent,
		VisibilityScore:    record.Result.VisibilityScore,
		Brands:             pq.StringArray(nonNil(record.Result.Brands)),
		Competitors:        pq.StringArray(nonNil(record.Result.Competitors)),
		Metadata:           string(metadata),
		CreatedAt:          record.CreatedAt,
	}
	if record.Result.Prominence != nil {
		row.Prominence = sql.NullInt64{Int64: int64(*record.Result.Prominence), Valid: true}
	}
	return row, nil
}

// SaveResult upserts the analysis of one question run; re-analysis replaces
// the previous row
func (s *resultStore) SaveResult(ctx context.Context, record *models.VisibilityRecord) error {
	if record.VisibilityResultID == uuid.Nil {
		record.VisibilityResultID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	row, err := newResultRow(record)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO visibility_results (
			visibility_result_id, question_run_id, org_id, prompt_id, provider,
			brand_present, prominence, visibility_score, brands, competitors, metadata, created_at
		) VALUES (
			:visibility_result_id, :question_run_id, :org_id, :prompt_id, :provider,
			:brand_present, :prominence, :visibility_score, :brands, :competitors, :metadata, :created_at
		)
		ON CONFLICT (question_run_id) DO UPDATE SET
			brand_present = EXCLUDED.brand_present,
			prominence = EXCLUDED.prominence,
			visibility_score = EXCLUDED.visibility_score,
			brands = EXCLUDED.brands,
			competitors = EXCLUDED.competitors,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`, row)
	if err != nil {
		return eris.Wrapf(err, "failed to save visibility result for question run %s", record.QuestionRunID)
	}

	zap.L().Info("[SaveResult] stored visibility result",
		zap.String("question_run_id", record.QuestionRunID.String()),
		zap.Bool("brand_present", record.Result.BrandPresent),
		zap.Int("competitors", len(record.Result.Competitors)),
	)
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
