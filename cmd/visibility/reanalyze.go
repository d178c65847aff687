package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
	"github.com/AI-Template-SDK/senso-visibility/services"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

var reanalyzeCmd = &cobra.Command{
	Use:   "reanalyze",
	Short: "Re-run visibility analysis for every stored question run of an org",
	Long: `Re-run visibility analysis for every stored question run of an org and
overwrite the stored results. Runs against the database in DATABASE_*
without going through Inngest.

Examples:
  reanalyze --org 6f1c1b8e-6c53-4b2c-9a55-5b7d0f1f6c01
  reanalyze --org 6f1c1b8e-6c53-4b2c-9a55-5b7d0f1f6c01 --dry-run`,
	RunE: runReanalyze,
}

func init() {
	reanalyzeCmd.Flags().String("org", "", "org ID to re-analyze")
	reanalyzeCmd.Flags().Bool("dry-run", false, "list the question runs without analyzing them")
	_ = reanalyzeCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(reanalyzeCmd)
}

func runReanalyze(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orgFlag, _ := cmd.Flags().GetString("org")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	orgID, err := uuid.Parse(orgFlag)
	if err != nil {
		return eris.Wrapf(services.ErrInvalidRequest, "invalid org ID %q", orgFlag)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.ConnectionString())
	if err != nil {
		return eris.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	store := services.NewResultStore(db)
	runs, err := store.ListQuestionRuns(ctx, orgID)
	if err != nil {
		return err
	}
	runIDs := make([]string, 0, len(runs))
	for _, run := range runs {
		runIDs = append(runIDs, run.QuestionRunID.String())
	}
	zap.L().Info("[runReanalyze] question runs found", zap.String("org_id", orgID.String()), zap.Int("count", len(runIDs)))

	if dryRun {
		return writeJSON(cmd, runIDs)
	}

	processor, err := buildProcessor(db, store)
	if err != nil {
		return err
	}
	return writeJSON(cmd, processor.ReanalyzeRuns(ctx, orgID.String(), runIDs))
}

func buildProcessor(db *sqlx.DB, store services.ResultStore) (*workflows.VisibilityProcessor, error) {
	global, err := loadGazetteer("")
	if err != nil {
		return nil, err
	}

	opts := detection.Options{
		DiscoveryTimeout:       cfg.Discovery.Timeout,
		DiscoveryMinConfidence: cfg.Discovery.MinConfidence,
		DiscoveryMaxTerms:      cfg.Discovery.MaxTerms,
	}
	provider, err := providers.NewDiscoverer(cfg, services.NewCostService())
	switch {
	case err == nil:
		opts.Discoverer = provider
	case eris.Is(err, services.ErrDiscoveryDisabled):
	default:
		return nil, err
	}

	catalog := services.NewCatalogService(db)
	visibility := services.NewVisibilityService(cfg, detection.NewDetector(opts), gazetteer.NewRegistry(), global, nil)
	loader := services.NewAnalysisLoader(cfg, catalog)
	return workflows.NewVisibilityProcessor(cfg, visibility, loader, store, workflows.NewSlackAlerter(cfg.SlackWebhookURL)), nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
