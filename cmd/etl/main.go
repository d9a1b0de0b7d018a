package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"localpulse/internal/adapters/landing"
	"localpulse/internal/adapters/observability"
	"localpulse/internal/adapters/rawjson"
	"localpulse/internal/app"
	"localpulse/internal/pipeline/category"
	"localpulse/internal/pipeline/location"
	"localpulse/internal/pipeline/sentiment"
	"localpulse/internal/shared"
	mysqlrepo "localpulse/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	log.Info().
		Str("meta", cfg.RawMetaPath).
		Str("reviews", cfg.RawReviewsPath).
		Int("workers", cfg.Workers).
		Msg("etl starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	mapper, err := category.Load(cfg.CategoryMapPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CategoryMapPath).Msg("category mapping load failed")
	}
	loc, err := location.LoadCSV(cfg.ZipRefPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ZipRefPath).Msg("zip reference load failed")
	}
	analyzer := sentiment.New(ctx, sentiment.Options{
		ModelURL:          cfg.ModelURL,
		ModelRPS:          cfg.ModelRPS,
		PositiveThreshold: &cfg.PositiveThreshold,
		NegativeThreshold: &cfg.NegativeThreshold,
	})
	log.Info().Str("method", analyzer.Method()).Msg("sentiment strategy selected")

	pipe := app.NewPipeline(repo,
		app.NewMetadataTransformer(mapper, loc, cfg.Workers),
		app.NewReviewTransformer(analyzer, cfg.Workers),
	)

	if err := runBatch(ctx, cfg, pipe); err != nil {
		log.Fatal().Err(err).Msg("pipeline run failed")
	}

	if cfg.LandingDir == "" {
		log.Info().Msg("etl completed")
		return
	}

	// watch mode: rerun the batch when new dump files land
	w, err := landing.New(cfg.LandingDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.LandingDir).Msg("landing watcher failed")
	}
	defer w.Close()
	log.Info().Str("dir", cfg.LandingDir).Msg("watching landing directory")

	for range w.Runs(ctx) {
		if err := runBatch(ctx, cfg, pipe); err != nil {
			log.Error().Err(err).Msg("pipeline rerun failed")
		}
	}
	log.Info().Msg("etl stopped")
}

func runBatch(ctx context.Context, cfg shared.Config, pipe *app.Pipeline) error {
	rawBusinesses, skipped, err := rawjson.ReadBusinesses(cfg.RawMetaPath)
	if err != nil {
		return err
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("path", cfg.RawMetaPath).Msg("malformed metadata lines skipped")
	}

	rawReviews, skipped, err := rawjson.ReadReviews(cfg.RawReviewsPath)
	if err != nil {
		return err
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("path", cfg.RawReviewsPath).Msg("malformed review lines skipped")
	}

	return pipe.Run(ctx, rawBusinesses, rawReviews)
}
