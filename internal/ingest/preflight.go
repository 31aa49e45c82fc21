package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/snapshot"
	embedsql "github.com/gyeh/nephtrends/internal/sql"
)

// Import file statuses, in pipeline order.
const (
	StatusPending = "pending"
	StatusStaging = "staging"
	StatusStaged  = "staged"
	StatusMerging = "merging"
	StatusMerged  = "merged"
	StatusFailed  = "failed"
)

// PreflightResult holds all context resolved during the preflight phase.
type PreflightResult struct {
	FilePath   string
	FileSHA256 string
	FileSize   int64
	// ImportFileID is the ingest.import_files key for this export, either
	// newly registered or looked up by SHA-256.
	ImportFileID int64
	// ImportBatchID tags this run's staged rows for merge and cleanup.
	ImportBatchID uuid.UUID
	Stats         *snapshot.Stats
	// AlreadyLoaded is true when this exact file was merged before and
	// force mode is off.
	AlreadyLoaded bool
}

// Preflight hashes and scans the export, rejects files with nothing to
// import, and registers the file.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, filePath string, force bool) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	stats, err := snapshot.Scan(filePath, nil)
	if err != nil {
		return nil, fmt.Errorf("preflight scan: %w", err)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}

	log.Info().
		Str("file", filepath.Base(filePath)).
		Str("sha256", sha).
		Str("format", string(stats.Format)).
		Int64("documents", stats.Documents).
		Int64("importable", stats.Importable()).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	fileID, alreadyLoaded, err := registerImportFile(ctx, pool, filePath, sha, stat.Size(), stats.Documents, force)
	if err != nil {
		return nil, fmt.Errorf("preflight register file: %w", err)
	}

	return &PreflightResult{
		FilePath:      filePath,
		FileSHA256:    sha,
		FileSize:      stat.Size(),
		ImportFileID:  fileID,
		ImportBatchID: uuid.New(),
		Stats:         stats,
		AlreadyLoaded: alreadyLoaded,
	}, nil
}

func registerImportFile(ctx context.Context, pool *pgxpool.Pool, filePath, sha string, size, docs int64, force bool) (int64, bool, error) {
	var id int64
	err := pool.QueryRow(ctx, embedsql.RegisterImportFile, filepath.Base(filePath), sha, size, docs).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("register import file: %w", err)
	}

	// ON CONFLICT DO NOTHING returned no row: the file is known.
	var status string
	if err := pool.QueryRow(ctx, embedsql.LookupImportFile, sha).Scan(&id, &status); err != nil {
		return 0, false, fmt.Errorf("lookup existing import file: %w", err)
	}
	if !force && status == StatusMerged {
		return id, true, nil
	}
	if err := UpdateStatus(ctx, pool, id, StatusPending); err != nil {
		return 0, false, fmt.Errorf("reset import status: %w", err)
	}
	return id, false, nil
}

// UpdateStatus updates the import file status.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, importFileID int64, status string) error {
	_, err := pool.Exec(ctx, embedsql.UpdateImportStatus, importFileID, status)
	return err
}
