package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/nephtrends/internal/exitcode"
	"github.com/gyeh/nephtrends/internal/logging"
	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/snapshot"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation and coverage stats for an export (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to JSON array or NDJSON export (required)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.ValidationError)
	}
	stat, err := os.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.ValidationError)
	}

	stats, err := snapshot.Scan(cfg.FilePath, normalize.NewCatalog(cfg.Sources()))
	if err != nil {
		log.Error().Err(err).Msg("failed to scan export")
		os.Exit(exitcode.ValidationError)
	}

	fmt.Println("=== nephtrends plan ===")
	fmt.Printf("File:          %s\n", cfg.FilePath)
	fmt.Printf("SHA-256:       %s\n", sha)
	fmt.Printf("Size:          %d bytes\n", stat.Size())
	fmt.Printf("Format:        %s\n", stats.Format)
	fmt.Printf("Documents:     %d (%d importable)\n", stats.Documents, stats.Importable())
	fmt.Printf("Rejected:      %d not objects, %d without id, %d duplicate ids\n",
		stats.Rejected, stats.MissingIDs, stats.DuplicateIDs)
	fmt.Printf("Visits:        %d\n", stats.Visits)
	fmt.Printf("Lab batches:   %d\n", stats.Batches)
	fmt.Printf("Undated:       %d records\n", stats.UndatedRecs)
	fmt.Printf("Malformed:     %d values\n", stats.Malformed)
	if names := cfg.AliasNames(); len(names) > 0 {
		fmt.Printf("Aliases:       %v\n", names)
	}
	fmt.Println()
	fmt.Println("Variable coverage:")
	for _, vs := range model.AllVariables {
		fmt.Printf("  %-18s %6d patients, %8d observations\n",
			vs.Label, stats.Patients[vs.Variable], stats.Candidates[vs.Variable])
	}

	if err := stats.Validate(); err != nil {
		log.Error().Err(err).Msg("export validation failed")
		os.Exit(exitcode.ValidationError)
	}
	fmt.Println("\nValidation: OK")
	return nil
}
