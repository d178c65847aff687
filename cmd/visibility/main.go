package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "visibility",
	Short:        "Brand visibility analysis for LLM responses",
	Long:         "Detects the org's own brand and its competitors in an AI assistant response and scores how visible the brand is.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			_ = godotenv.Load("dev.env")
		}

		cfg = config.Load()
		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
