package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/db"
	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/snapshot"
)

const stageBufferSize = 256

// StageResult holds metrics from the staging phase.
type StageResult struct {
	DocsRead     int64
	DocsStaged   int64
	DocsRejected int64
	Duration     time.Duration
}

// Stage streams documents from the export, re-encodes them, and COPY-loads
// them into ingest.stage_patient_docs via a channel-backed CopyFromSource.
func Stage(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, pf *PreflightResult) (*StageResult, error) {
	start := time.Now()

	reader, err := snapshot.Open(pf.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stage open: %w", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *model.StagingRow, stageBufferSize)
	errCh := make(chan error, 1)

	var docsRead, docsRejected int64

	// Producer: decode → staging row → channel
	go func() {
		defer close(ch)
		for {
			rec, _, readErr := reader.Next()
			if readErr == io.EOF {
				errCh <- nil
				return
			}
			docsRead++

			var de *snapshot.DocumentError
			if errors.As(readErr, &de) {
				docsRejected++
				log.Warn().Err(de.Err).Int64("document", de.Index).Msg("document rejected")
				continue
			}
			if readErr != nil {
				errCh <- readErr
				return
			}

			row, normErr := normalize.ToStagingRow(rec, pf.ImportBatchID, pf.ImportFileID, reader.Index())
			if normErr != nil {
				docsRejected++
				log.Warn().Err(normErr).Int64("document", reader.Index()).Msg("document rejected")
				continue
			}

			select {
			case ch <- row:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	// Consumer: COPY from channel into staging table
	source := db.NewChannelSource(ch)
	docsStaged, err := pool.CopyFrom(ctx,
		pgx.Identifier{"ingest", "stage_patient_docs"},
		model.StagingColumns(),
		source,
	)
	if err != nil {
		// Unblock the producer before waiting on it.
		cancel()
		for range ch {
		}
	}

	prodErr := <-errCh
	if err != nil {
		return nil, fmt.Errorf("stage copy: %w", err)
	}
	if prodErr != nil {
		return nil, fmt.Errorf("stage producer: %w", prodErr)
	}
	if sent := source.Count(); sent != docsStaged {
		return nil, fmt.Errorf("stage copy: server stored %d of %d documents", docsStaged, sent)
	}

	dur := time.Since(start)
	log.Info().
		Int64("docs_read", docsRead).
		Int64("docs_staged", docsStaged).
		Int64("docs_rejected", docsRejected).
		Str("duration", dur.String()).
		Msg("staging complete")

	return &StageResult{
		DocsRead:     docsRead,
		DocsStaged:   docsStaged,
		DocsRejected: docsRejected,
		Duration:     dur,
	}, nil
}
