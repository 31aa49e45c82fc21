package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/nephtrends/internal/api"
	"github.com/gyeh/nephtrends/internal/assess"
	"github.com/gyeh/nephtrends/internal/config"
	"github.com/gyeh/nephtrends/internal/db"
	"github.com/gyeh/nephtrends/internal/exitcode"
	"github.com/gyeh/nephtrends/internal/logging"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/risk"
	"github.com/gyeh/nephtrends/internal/store"
)

var (
	envFile      string
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve patient metrics and risk assessments over HTTP",
	Long:  "Reads PORT, DATABASE_URL, DB_MAX_CONNS, LOG_FORMAT, KFRE_REGION, CONFIG_FILE and CACHE_SIZE from the environment or --env-file.",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&envFile, "env-file", ".env", "Optional .env file with server settings")
	f.BoolVar(&serveMigrate, "migrate", false, "Apply schema migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := config.LoadServer(envFile)
	if err != nil {
		l := logging.Setup(cfg.LogFormat)
		l.Error().Err(err).Msg("server config invalid")
		os.Exit(exitcode.UsageError)
	}
	log := logging.Setup(srv.LogFormat)

	c, err := srv.CLI()
	if err != nil {
		log.Error().Err(err).Msg("server config invalid")
		os.Exit(exitcode.UsageError)
	}
	kfre, err := c.KidneyFailureModel()
	if err != nil {
		log.Error().Err(err).Msg("invalid risk model configuration")
		os.Exit(exitcode.UsageError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, srv.DatabaseURL, srv.DBMaxConns, log)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if serveMigrate {
		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.MergeError)
		}
	}

	assessor := assess.New(log, normalize.NewCatalog(c.Sources()), risk.NewCalculator(kfre, nil))
	h := api.NewHandler(store.New(pool), assessor, assess.NewCache(assessor, srv.CacheSize), pool)
	e := api.NewServer(log, h)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + srv.Port
		log.Info().
			Str("addr", addr).
			Str("kfre_model", kfre.Version()).
			Int("cache_size", srv.CacheSize).
			Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("server error")
		os.Exit(exitcode.ServeError)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		os.Exit(exitcode.ServeError)
	}
	log.Info().Msg("server stopped")
	return nil
}
