package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/detection"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one response offline and print the result as JSON",
	Long: `Analyze one response without a database.

The profile file is JSON with the org profile, its brand catalog and an
optional overlay and cross-provider context:

  {
    "profile": {"name": "HubSpot", "domain": "hubspot.com", "competitors": ["Pipedrive"]},
    "catalog": [{"name": "HubSpot", "is_org_brand": true, "variants": ["HubSpot Marketing Hub"]}],
    "overlay": {"competitor_exclusions": ["Zoho"]}
  }

Examples:
  # Strategy from DETECTION_STRATEGY (default fallback)
  analyze --text answer.txt --profile hubspot.json

  # Liberal detection with model-assisted discovery
  analyze --text answer.txt --profile hubspot.json --strategy liberal --discovery`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("text", "", "file holding the response text (- for stdin)")
	f.String("profile", "", "JSON file with profile, catalog and overlay")
	f.String("strategy", "", "conservative, liberal or fallback (default from config)")
	f.Bool("discovery", false, "enable model-assisted discovery for unresolved names")
	f.String("gazetteer", "", "global gazetteer YAML (default: embedded)")
	_ = analyzeCmd.MarkFlagRequired("text")
	_ = analyzeCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	textPath, _ := cmd.Flags().GetString("text")
	profilePath, _ := cmd.Flags().GetString("profile")
	strategyFlag, _ := cmd.Flags().GetString("strategy")
	discovery, _ := cmd.Flags().GetBool("discovery")
	gazetteerPath, _ := cmd.Flags().GetString("gazetteer")

	req, err := readRequest(profilePath)
	if err != nil {
		return err
	}

	text, err := readText(cmd, textPath)
	if err != nil {
		return err
	}
	req.ResponseText = text

	if strategyFlag != "" {
		strategy, ok := models.ParseStrategy(strategyFlag)
		if !ok {
			return eris.Wrapf(services.ErrInvalidRequest, "unknown strategy %q", strategyFlag)
		}
		req.Strategy = strategy
	}
	global, err := loadGazetteer(gazetteerPath)
	if err != nil {
		return err
	}

	opts := detection.Options{
		DiscoveryTimeout:       cfg.Discovery.Timeout,
		DiscoveryMinConfidence: cfg.Discovery.MinConfidence,
		DiscoveryMaxTerms:      cfg.Discovery.MaxTerms,
	}
	if discovery {
		cfg.Discovery.Enabled = true
		provider, err := providers.NewDiscoverer(cfg, services.NewCostService())
		if err != nil {
			return eris.Wrap(err, "discovery requested but unavailable")
		}
		opts.Discoverer = provider
		req.EnableDiscovery = true
	}

	svc := services.NewVisibilityService(cfg, detection.NewDetector(opts), nil, global, nil)
	result, err := svc.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	zap.L().Debug("[runAnalyze] analysis finished", zap.String("strategy_used", string(result.Metadata.StrategyUsed)))

	return writeJSON(cmd, result)
}

func readRequest(path string) (*services.AnalysisRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read profile %s", path)
	}
	var req services.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, eris.Wrapf(err, "parse profile %s", path)
	}
	if req.OrgID == "" {
		req.OrgID = req.Profile.OrgID
	}
	return &req, nil
}

func readText(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", eris.Wrap(err, "read response text from stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read response text %s", path)
	}
	return string(data), nil
}
