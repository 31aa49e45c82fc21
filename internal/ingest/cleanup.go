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

// Cleanup drops the staged documents of one import batch and returns how many
// were removed. A batch that is already gone deletes nothing and is not an
// error.
func Cleanup(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) (int64, error) {
	start := time.Now()

	tag, err := pool.Exec(ctx, embedsql.DeleteStagingBatch, batchID)
	if err != nil {
		return 0, fmt.Errorf("drop staging batch %s: %w", batchID, err)
	}
	deleted := tag.RowsAffected()

	evt := log.Info()
	if deleted == 0 {
		evt = log.Debug()
	}
	evt.
		Str("import_batch_id", batchID.String()).
		Int64("docs_deleted", deleted).
		Dur("duration", time.Since(start)).
		Msg("staging batch dropped")
	return deleted, nil
}
