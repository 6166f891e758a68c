package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"bank_reviews/internal/adapters/observability"
	redisad "bank_reviews/internal/adapters/redis"
	"bank_reviews/internal/domain"
	"bank_reviews/internal/shared"
)

// newRootCmd builds the command tree. The config is loaded once per run and
// handed to each stage by value.
func newRootCmd() *cobra.Command {
	var cfg shared.Config

	root := &cobra.Command{
		Use:   "pipeline",
		Short: "Bank app review analytics pipeline",
		Long: `pipeline scrapes Google Play reviews for the configured banks, cleans them,
scores sentiment, tags themes, stores everything in MySQL and renders reports.

Each stage reads the previous stage's CSV and writes its own, so any stage can
be rerun on its own. 'run' executes every stage in order.

Configuration comes from the environment (DB_HOST, SCRAPER_BASE_URL, HF_TOKEN,
REDIS_ADDR, ...) and an optional TOML banks file (BANKS_FILE).

Logs go to stderr; stdout carries only stage summaries and report JSON.`,
		Example: `  # full pipeline
  pipeline run

  # rerun theme extraction on an existing sentiment file
  pipeline themes --in data/processed/reviews_with_sentiment.csv

  # apply the schema, load the data, print reports
  pipeline migrate && pipeline persist && pipeline report > reports.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := shared.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			log.Logger = observability.NewLogger(cmd.ErrOrStderr(), cfg.AppEnv, cfg.LogLevel)
			observability.Serve(cfg.MetricsAddr)
			return nil
		},
	}
	root.SuggestionsMinimumDistance = 2

	// RunE closures dereference cfg after PersistentPreRunE has filled it.
	root.AddCommand(
		newCollectCmd(&cfg),
		newPreprocessCmd(&cfg),
		newSentimentCmd(&cfg),
		newThemesCmd(&cfg),
		newMigrateCmd(&cfg),
		newPersistCmd(&cfg),
		newReportCmd(&cfg),
		newVisualizeCmd(&cfg),
		newRunCmd(&cfg),
	)
	return root
}

func openDB(ctx context.Context, c shared.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// openCache returns nil when no Redis is configured or reachable.
func openCache(ctx context.Context, cfg shared.Config) (domain.Cache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without report cache")
		rc.Close()
		return nil, func() {}
	}
	return rc, func() { rc.Close() }
}

// pathFlag returns the flag value or def when it was left empty.
func pathFlag(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
