package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/nephtrends/internal/db"
	"github.com/gyeh/nephtrends/internal/exitcode"
	"github.com/gyeh/nephtrends/internal/ingest"
	"github.com/gyeh/nephtrends/internal/logging"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a patient document export into the registry",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to JSON array or NDJSON export (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-import even if file SHA already exists")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after merge")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN, 4, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.MergeError)
	}

	summary, err := ingest.Run(ctx, pool, log, &cfg)
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("import failed")
			switch pe.Phase {
			case ingest.PhasePreflight:
				os.Exit(exitcode.ValidationError)
			case ingest.PhaseStage:
				os.Exit(exitcode.StageError)
			default:
				os.Exit(exitcode.MergeError)
			}
		}
		log.Error().Err(err).Msg("import failed")
		os.Exit(exitcode.MergeError)
	}

	fmt.Printf("Import complete: %d documents read, %d staged, %d rejected; patients %d new, %d updated, %d unchanged (%.1fs)\n",
		summary.DocsRead, summary.DocsStaged, summary.DocsRejected,
		summary.PatientsInserted, summary.PatientsUpdated, summary.PatientsUnchanged,
		summary.DurationTotal.Seconds())
	return nil
}
