package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/nephtrends/internal/sql"
)

// Finalize marks the import file merged and refreshes planner statistics.
func Finalize(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, importFileID int64) (time.Duration, error) {
	start := time.Now()

	if err := UpdateStatus(ctx, pool, importFileID, StatusMerged); err != nil {
		return 0, fmt.Errorf("update status to merged: %w", err)
	}
	if _, err := pool.Exec(ctx, embedsql.AnalyzeRegistry); err != nil {
		return 0, fmt.Errorf("analyze registry: %w", err)
	}
	log.Info().Int64("import_file_id", importFileID).Msg("import finalized")

	return time.Since(start), nil
}
