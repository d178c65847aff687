// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/services"
)

const (
	sweepLookback = 48 * time.Hour
	sweepLimit    = 500
)

// ScheduledProcessor re-queues question runs whose analysis event was lost
// or exhausted its retries
type ScheduledProcessor struct {
	store  services.ResultStore
	client inngestgo.Client
}

func NewScheduledProcessor(store services.ResultStore) *ScheduledProcessor {
	return &ScheduledProcessor{
		store: store,
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

func (p *ScheduledProcessor) PendingAnalysisSweep() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "pending-visibility-analysis-sweep",
			Name: "Pending Visibility Analysis Sweep",
		},
		inngestgo.CronTrigger("0 3 * * *"), // Every day at 3 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now().UTC()

			runIDs, err := step.Run(ctx, "get-pending-question-runs", func(ctx context.Context) ([]string, error) {
				return p.PendingRunIDs(ctx, now)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list pending question runs: %w", err)
			}

			sent := 0
			for _, runID := range runIDs {
				// one step per run so a retry only re-sends what did not go out
				_, err := step.Run(ctx, "trigger-analysis-"+runID, func(ctx context.Context) (any, error) {
					return p.client.Send(ctx, AnalyzeEvent(runID, "scheduled_sweep"))
				})
				if err != nil {
					zap.L().Warn("[PendingAnalysisSweep] failed to send analysis event",
						zap.String("question_run_id", runID),
						zap.Error(err),
					)
					continue
				}
				sent++
			}

			zap.L().Info("[PendingAnalysisSweep] sweep finished",
				zap.Int("pending", len(runIDs)),
				zap.Int("triggered", sent),
			)
			return map[string]interface{}{
				"execution_date": now.Format("2006-01-02"),
				"pending_runs":   len(runIDs),
				"triggered":      sent,
			}, nil
		},
	)
	if err != nil {
		panic(fmt.Errorf("failed to create PendingAnalysisSweep function: %w", err))
	}
	return fn
}

// PendingRunIDs lists runs from the sweep window that still have no result
func (p *ScheduledProcessor) PendingRunIDs(ctx context.Context, now time.Time) ([]string, error) {
	runs, err := p.store.ListUnanalyzedRuns(ctx, now.Add(-sweepLookback), sweepLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.QuestionRunID.String())
	}
	return ids, nil
}

// AnalyzeEvent builds the question_run.analyze event for one run
func AnalyzeEvent(questionRunID, triggeredBy string) inngestgo.Event {
	return inngestgo.Event{
		Name: AnalyzeQuestionRunEventName,
		Data: map[string]interface{}{
			"question_run_id": questionRunID,
			"triggered_by":    triggeredBy,
		},
	}
}
