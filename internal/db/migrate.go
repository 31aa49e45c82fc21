package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/nephtrends/internal/sql"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS public.schema_migrations (
	name       text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
)`

// ApplyMigrations runs the embedded SQL migrations in filename order. Each
// migration runs in its own transaction and is recorded in
// public.schema_migrations so it is applied at most once.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	entries, err := fs.ReadDir(embedsql.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(embedsql.Migrations, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		ran, err := applyOne(ctx, pool, name, string(data))
		if err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if ran {
			applied++
			log.Info().Str("migration", name).Msg("migration applied")
		} else {
			log.Debug().Str("migration", name).Msg("migration already applied")
		}
	}

	log.Info().Int("applied", applied).Int("total", len(entries)).Msg("migrations up to date")
	return nil
}

func applyOne(ctx context.Context, pool *pgxpool.Pool, name, ddl string) (bool, error) {
	ran := false
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"INSERT INTO public.schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		ran = true
		_, err = tx.Exec(ctx, ddl)
		return err
	})
	return ran, err
}
