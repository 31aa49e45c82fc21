package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/nephtrends/internal/sql"
)

// MergeResult holds metrics from merging a staged batch into the registry.
type MergeResult struct {
	Patients  int64
	Inserted  int64
	Updated   int64
	Unchanged int64
	Duration  time.Duration
}

// Merge upserts the batch's staged documents into registry.patients. When a
// patient appears more than once in the export the last document wins, and
// stored documents with an identical hash are left untouched.
func Merge(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) (*MergeResult, error) {
	start := time.Now()

	var res MergeResult
	if err := pool.QueryRow(ctx, embedsql.MergePatients, batchID).Scan(&res.Patients, &res.Inserted, &res.Updated); err != nil {
		return nil, fmt.Errorf("merge patients: %w", err)
	}
	res.Unchanged = res.Patients - res.Inserted - res.Updated
	res.Duration = time.Since(start)

	log.Info().
		Int64("patients", res.Patients).
		Int64("inserted", res.Inserted).
		Int64("updated", res.Updated).
		Int64("unchanged", res.Unchanged).
		Str("duration", res.Duration.String()).
		Msg("merge complete")

	return &res, nil
}
