package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/config"
	"github.com/gyeh/nephtrends/internal/model"
)

// Pipeline phases, as reported by PipelineError.
const (
	PhasePreflight = "preflight"
	PhaseStage     = "stage"
	PhaseMerge     = "merge"
	PhaseFinalize  = "finalize"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run imports one document-store export: preflight → stage → merge →
// finalize → cleanup.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.ImportSummary, error) {
	totalStart := time.Now()

	log.Info().Str("file", cfg.FilePath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, cfg.FilePath, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	log = log.With().Str("import_batch_id", pf.ImportBatchID.String()).Logger()

	if pf.AlreadyLoaded {
		log.Info().
			Int64("import_file_id", pf.ImportFileID).
			Str("sha256", pf.FileSHA256).
			Msg("file already imported, skipping (use --force to re-import)")
		return &model.ImportSummary{
			FilePath:      pf.FilePath,
			FileSHA256:    pf.FileSHA256,
			ImportFileID:  pf.ImportFileID,
			ImportBatchID: pf.ImportBatchID.String(),
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	// fail marks the file failed and drops the partial batch. It runs on a
	// fresh context so a cancelled run still records its outcome.
	fail := func(phase string, err error) error {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = UpdateStatus(cleanupCtx, pool, pf.ImportFileID, StatusFailed)
		if !cfg.KeepStaging {
			if _, cerr := Cleanup(cleanupCtx, pool, log, pf.ImportBatchID); cerr != nil {
				log.Warn().Err(cerr).Msg("staging cleanup after failure failed")
			}
		}
		return &PipelineError{Phase: phase, Err: err}
	}

	log.Info().Msg("starting staging")
	if err := UpdateStatus(ctx, pool, pf.ImportFileID, StatusStaging); err != nil {
		return nil, &PipelineError{Phase: PhaseStage, Err: err}
	}
	stageResult, err := Stage(ctx, pool, log, pf)
	if err != nil {
		return nil, fail(PhaseStage, err)
	}
	if err := UpdateStatus(ctx, pool, pf.ImportFileID, StatusStaged); err != nil {
		return nil, fail(PhaseStage, err)
	}

	log.Info().Msg("starting merge")
	if err := UpdateStatus(ctx, pool, pf.ImportFileID, StatusMerging); err != nil {
		return nil, fail(PhaseMerge, err)
	}
	mergeResult, err := Merge(ctx, pool, log, pf.ImportBatchID)
	if err != nil {
		return nil, fail(PhaseMerge, err)
	}

	log.Info().Msg("finalizing")
	finalizeDur, err := Finalize(ctx, pool, log, pf.ImportFileID)
	if err != nil {
		return nil, fail(PhaseFinalize, err)
	}

	var stagingDeleted int64
	if !cfg.KeepStaging {
		log.Info().Msg("cleaning up staging")
		stagingDeleted, err = Cleanup(ctx, pool, log, pf.ImportBatchID)
		if err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	summary := &model.ImportSummary{
		FilePath:          pf.FilePath,
		FileSHA256:        pf.FileSHA256,
		ImportFileID:      pf.ImportFileID,
		ImportBatchID:     pf.ImportBatchID.String(),
		DocsRead:          stageResult.DocsRead,
		DocsStaged:        stageResult.DocsStaged,
		DocsRejected:      stageResult.DocsRejected,
		PatientsInserted:  mergeResult.Inserted,
		PatientsUpdated:   mergeResult.Updated,
		PatientsUnchanged: mergeResult.Unchanged,
		StagingDeleted:    stagingDeleted,
		DurationStage:     stageResult.Duration,
		DurationMerge:     mergeResult.Duration,
		DurationFinalize:  finalizeDur,
		DurationTotal:     time.Since(totalStart),
	}

	log.Info().
		Int64("docs_read", summary.DocsRead).
		Int64("docs_staged", summary.DocsStaged).
		Int64("docs_rejected", summary.DocsRejected).
		Int64("patients_inserted", summary.PatientsInserted).
		Int64("patients_updated", summary.PatientsUpdated).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("import pipeline complete")

	return summary, nil
}
