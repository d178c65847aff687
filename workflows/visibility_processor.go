// workflows/visibility_processor.go
package workflows

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

const (
	AnalyzeQuestionRunEventName = "question_run.analyze"
	ReanalyzeOrgEventName       = "org.visibility.reanalyze"
)

// VisibilityProcessor runs the visibility pipeline for stored question runs.
// Each (prompt, provider) response is analyzed at most once per attempt;
// Inngest owns retries.
type VisibilityProcessor struct {
	client      inngestgo.Client
	visibility  services.VisibilityService
	loader      services.AnalysisLoader
	store       services.ResultStore
	alerter     Alerter
	concurrency int
}

func NewVisibilityProcessor(cfg *config.Config, visibility services.VisibilityService, loader services.AnalysisLoader, store services.ResultStore, alerter Alerter) *VisibilityProcessor {
	concurrency := cfg.Detection.ReanalyzeConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &VisibilityProcessor{
		visibility:  visibility,
		loader:      loader,
		store:       store,
		alerter:     alerter,
		concurrency: concurrency,
	}
}

// SetClient sets the Inngest client for this processor
func (p *VisibilityProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// AnalyzeQuestionRunEvent is the payload of question_run.analyze
type AnalyzeQuestionRunEvent struct {
	QuestionRunID string `json:"question_run_id"`
	TriggeredBy   string `json:"triggered_by,omitempty"`
}

// ReanalyzeOrgEvent is the payload of org.visibility.reanalyze
type ReanalyzeOrgEvent struct {
	OrgID       string `json:"org_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// AnalysisInput is the memoized output of the load step
type AnalysisInput struct {
	Run     *models.QuestionRun       `json:"run"`
	Request *services.AnalysisRequest `json:"request"`
}

// ReanalyzeSummary is returned by the org re-analysis function
type ReanalyzeSummary struct {
	OrgID        string   `json:"org_id"`
	TotalRuns    int      `json:"total_runs"`
	Analyzed     int      `json:"analyzed"`
	Failed       int      `json:"failed"`
	FailedRunIDs []string `json:"failed_run_ids,omitempty"`
}

func (p *VisibilityProcessor) AnalyzeQuestionRun() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "analyze-question-run-visibility",
			Name:    "Analyze Question Run Visibility",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger(AnalyzeQuestionRunEventName, nil),
		func(ctx context.Context, input inngestgo.Input[AnalyzeQuestionRunEvent]) (any, error) {
			runID := input.Event.Data.QuestionRunID
			zap.L().Info("[AnalyzeQuestionRun] starting visibility analysis",
				zap.String("question_run_id", runID),
				zap.String("triggered_by", input.Event.Data.TriggeredBy),
			)

			loaded, err := step.Run(ctx, "load-analysis-input", func(ctx context.Context) (*AnalysisInput, error) {
				return p.LoadInput(ctx, runID)
			})
			if err != nil {
				return nil, fmt.Errorf("step 1 failed: %w", err)
			}

			result, err := step.Run(ctx, "analyze-response", func(ctx context.Context) (*models.AnalysisResult, error) {
				return p.visibility.Analyze(ctx, loaded.Request)
			})
			if err != nil {
				return nil, fmt.Errorf("step 2 failed: %w", err)
			}

			record, err := step.Run(ctx, "store-analysis-result", func(ctx context.Context) (*models.VisibilityRecord, error) {
				return p.StoreResult(ctx, loaded.Run, result)
			})
			if err != nil {
				return nil, fmt.Errorf("step 3 failed: %w", err)
			}

			return map[string]interface{}{
				"question_run_id":  runID,
				"brand_present":    record.Result.BrandPresent,
				"competitors":      len(record.Result.Competitors),
				"visibility_score": record.Result.VisibilityScore,
				"strategy_used":    record.Result.Metadata.StrategyUsed,
			}, nil
		},
	)
	if err != nil {
		panic(fmt.Errorf("failed to create AnalyzeQuestionRun function: %w", err))
	}
	return fn
}

func (p *VisibilityProcessor) ReanalyzeOrg() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "reanalyze-org-visibility",
			Name:    "Re-analyze Organization Visibility - All Question Runs",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger(ReanalyzeOrgEventName, nil),
		func(ctx context.Context, input inngestgo.Input[ReanalyzeOrgEvent]) (any, error) {
			orgID := input.Event.Data.OrgID
			zap.L().Info("[ReanalyzeOrg] starting re-analysis",
				zap.String("org_id", orgID),
				zap.String("triggered_by", input.Event.Data.TriggeredBy),
			)

			runIDs, err := step.Run(ctx, "fetch-question-runs", func(ctx context.Context) ([]string, error) {
				return p.questionRunIDs(ctx, orgID)
			})
			if err != nil {
				return nil, fmt.Errorf("step 1 failed: %w", err)
			}

			summary, err := step.Run(ctx, "reanalyze-question-runs", func(ctx context.Context) (*ReanalyzeSummary, error) {
				// catalog edits are the usual trigger; drop the cached snapshot first
				p.visibility.Invalidate(orgID)
				return p.ReanalyzeRuns(ctx, orgID, runIDs), nil
			})
			if err != nil {
				return nil, fmt.Errorf("step 2 failed: %w", err)
			}

			if summary.Failed > 0 {
				_, _ = step.Run(ctx, "report-failures", func(ctx context.Context) (bool, error) {
					reason := fmt.Sprintf("%d of %d question runs failed", summary.Failed, summary.TotalRuns)
					if err := p.alerter.ReportPipelineFailure(ctx, "visibility-reanalyze", orgID, reason, eris.New("re-analysis incomplete")); err != nil {
						zap.L().Warn("[ReanalyzeOrg] failed to send alert", zap.Error(err))
						return false, nil
					}
					return true, nil
				})
			}

			zap.L().Info("[ReanalyzeOrg] re-analysis finished",
				zap.String("org_id", orgID),
				zap.Int("total_runs", summary.TotalRuns),
				zap.Int("analyzed", summary.Analyzed),
				zap.Int("failed", summary.Failed),
			)
			return summary, nil
		},
	)
	if err != nil {
		panic(fmt.Errorf("failed to create ReanalyzeOrg function: %w", err))
	}
	return fn
}

// LoadInput reads the question run and everything its analysis depends on
func (p *VisibilityProcessor) LoadInput(ctx context.Context, questionRunID string) (*AnalysisInput, error) {
	id, err := uuid.Parse(questionRunID)
	if err != nil {
		return nil, eris.Wrapf(services.ErrInvalidRequest, "invalid question run ID %q", questionRunID)
	}

	run, err := p.store.GetQuestionRun(ctx, id)
	if err != nil {
		return nil, err
	}

	req, err := p.loader.LoadRequest(ctx, run)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load analysis input for question run %s", id)
	}
	return &AnalysisInput{Run: run, Request: req}, nil
}

// StoreResult persists one analysis against the run that produced it
func (p *VisibilityProcessor) StoreResult(ctx context.Context, run *models.QuestionRun, result *models.AnalysisResult) (*models.VisibilityRecord, error) {
	record := &models.VisibilityRecord{
		QuestionRunID: run.QuestionRunID,
		OrgID:         run.OrgID,
		PromptID:      run.PromptID,
		Provider:      run.Provider,
		Result:        *result,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.store.SaveResult(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// AnalyzeRun is load, analyze and store for one question run outside of Inngest
func (p *VisibilityProcessor) AnalyzeRun(ctx context.Context, questionRunID string) (*models.VisibilityRecord, error) {
	loaded, err := p.LoadInput(ctx, questionRunID)
	if err != nil {
		return nil, err
	}
	result, err := p.visibility.Analyze(ctx, loaded.Request)
	if err != nil {
		return nil, err
	}
	return p.StoreResult(ctx, loaded.Run, result)
}

// ReanalyzeRuns analyzes every run with bounded concurrency. A failed run is
// counted and logged; it never stops the others.
func (p *VisibilityProcessor) ReanalyzeRuns(ctx context.Context, orgID string, runIDs []string) *ReanalyzeSummary {
	summary := &ReanalyzeSummary{OrgID: orgID, TotalRuns: len(runIDs)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, runID := range runIDs {
		g.Go(func() error {
			_, err := p.AnalyzeRun(gctx, runID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.FailedRunIDs = append(summary.FailedRunIDs, runID)
				zap.L().Warn("[ReanalyzeRuns] question run failed",
					zap.String("org_id", orgID),
					zap.String("question_run_id", runID),
					zap.Error(err),
				)
				return nil
			}
			summary.Analyzed++
			return nil
		})
	}
	_ = g.Wait()
	return summary
}

func (p *VisibilityProcessor) questionRunIDs(ctx context.Context, orgID string) ([]string, error) {
	id, err := uuid.Parse(orgID)
	if err != nil {
		return nil, eris.Wrapf(services.ErrInvalidRequest, "invalid org ID %q", orgID)
	}

	runs, err := p.store.ListQuestionRuns(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.QuestionRunID.String())
	}
	return ids, nil
}
