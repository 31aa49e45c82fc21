package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/nephtrends/internal/assess"
	"github.com/gyeh/nephtrends/internal/db"
	"github.com/gyeh/nephtrends/internal/exitcode"
	"github.com/gyeh/nephtrends/internal/logging"
	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/parquetout"
	"github.com/gyeh/nephtrends/internal/snapshot"
	"github.com/gyeh/nephtrends/internal/store"
)

var exportSave bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Score every patient and write the assessments to Parquet",
	Long: "Scores every patient in --file, or every patient in the registry when --file is " +
		"omitted, and writes one row per patient to --out.",
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&cfg.OutPath, "out", "", "Output Parquet path (required)")
	f.StringVar(&cfg.FilePath, "file", "", "Read patients from this export instead of the registry")
	f.StringVar(&cfg.AsOf, "as-of", "", "Evaluation date, YYYY-MM-DD or RFC 3339 (default today)")
	f.BoolVar(&exportSave, "save", false, "Also record each assessment in the registry history")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)
	start := time.Now()

	fromFile := cfg.FilePath != ""
	if fromFile {
		if err := cfg.Validate(); err != nil {
			log.Error().Err(err).Msg("config validation failed")
			os.Exit(exitcode.UsageError)
		}
	} else if cfg.DSN == "" {
		log.Error().Msg("--file, --dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}
	if exportSave && fromFile {
		log.Error().Msg("--save needs the registry; drop --file")
		os.Exit(exitcode.UsageError)
	}

	asOf, err := assess.ParseAsOf(cfg.AsOf, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("invalid --as-of")
		os.Exit(exitcode.UsageError)
	}
	assessor, err := newAssessor(log)
	if err != nil {
		log.Error().Err(err).Msg("invalid risk model configuration")
		os.Exit(exitcode.UsageError)
	}

	var each func(emitFunc) error
	if fromFile {
		each = func(emit emitFunc) error { return exportFromFile(cfg.FilePath, log, emit) }
	} else {
		pool, err := db.NewPool(ctx, cfg.DSN, 4, log)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		st := store.New(pool)
		each = func(emit emitFunc) error { return exportFromRegistry(ctx, st, emit) }
	}

	summary, err := writeExport(ctx, cfg.OutPath, assessor, asOf, each)
	if err != nil {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitcode.ExportError)
	}

	summary.Duration = time.Since(start)
	log.Info().
		Int64("patients", summary.Patients).
		Int64("kfre_scored", summary.KFREScored).
		Int64("prevent_scored", summary.PREVENTScored).
		Str("out", summary.OutPath).
		Msg("export complete")
	fmt.Printf("Export complete: %d patients (%d KFRE, %d PREVENT scored) to %s (%.1fs)\n",
		summary.Patients, summary.KFREScored, summary.PREVENTScored, summary.OutPath, summary.Duration.Seconds())
	return nil
}

type emitFunc func(*model.PatientRecord) (*model.Assessment, error)

// writeExport assesses every record each yields and writes the rows to
// outPath. The Parquet footer is written even when each fails part way, so
// the rows already emitted stay readable.
func writeExport(ctx context.Context, outPath string, a *assess.Assessor, asOf time.Time, each func(emitFunc) error) (*model.ExportSummary, error) {
	w, err := parquetout.Create(outPath)
	if err != nil {
		return nil, err
	}

	summary := &model.ExportSummary{OutPath: outPath}
	err = each(func(rec *model.PatientRecord) (*model.Assessment, error) {
		res := a.Assess(ctx, rec, asOf)
		summary.Patients++
		if res.KidneyFailure.FiveYear != nil {
			summary.KFREScored++
		}
		if res.Cardiovascular.TenYear != nil {
			summary.PREVENTScored++
		}
		return &res, w.Write(&res)
	})
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return summary, err
}

func exportFromFile(path string, log zerolog.Logger, emit emitFunc) error {
	r, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		rec, _, err := r.Next()
		if err == io.EOF {
			return nil
		}
		var docErr *snapshot.DocumentError
		if errors.As(err, &docErr) {
			log.Warn().Err(err).Msg("skipping document")
			continue
		}
		if err != nil {
			return err
		}
		if _, err := emit(rec); err != nil {
			return err
		}
	}
}

func exportFromRegistry(ctx context.Context, st *store.Store, emit emitFunc) error {
	return st.EachPatient(ctx, func(rec *model.PatientRecord) error {
		a, err := emit(rec)
		if err != nil || !exportSave {
			return err
		}
		_, sha, err := normalize.DocumentHash(rec)
		if err != nil {
			return err
		}
		_, err = st.SaveAssessment(ctx, a, sha)
		return err
	})
}
