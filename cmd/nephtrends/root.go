package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/nephtrends/internal/assess"
	"github.com/gyeh/nephtrends/internal/config"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/risk"
)

var (
	cfg        config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "nephtrends",
	Short: "Patient lab/vital reconciliation and kidney & cardiovascular risk scoring",
	Long: "Imports patient document exports into Postgres, resolves the latest eGFR, UACR, " +
		"cholesterol, blood pressure and BMI per patient, and scores KFRE and PREVENT risk.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		return cfg.LoadFromFile(configPath)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&configPath, "config", "", "YAML file with kfre_region and test-name aliases")
	pf.StringVar(&cfg.KFRERegion, "kfre-region", "", "KFRE baseline: north_america (default) or non_north_america")
}

// newAssessor builds the assessment pipeline from the loaded configuration.
func newAssessor(log zerolog.Logger) (*assess.Assessor, error) {
	kfre, err := cfg.KidneyFailureModel()
	if err != nil {
		return nil, err
	}
	cat := normalize.NewCatalog(cfg.Sources())
	return assess.New(log, cat, risk.NewCalculator(kfre, nil)), nil
}
