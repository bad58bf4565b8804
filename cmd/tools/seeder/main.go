package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/noah-isme/toko-storefront/internal/app"
	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/obs"
)

func main() {
	file := flag.String("file", "", "catalog YAML to seed instead of the embedded sample")
	skipMigrate := flag.Bool("skip-migrate", false, "seed without applying migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "seeder").Logger()
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if !*skipMigrate {
		m, err := catalog.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrations")
		}
		if err := catalog.RunMigrations(m); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
		logger.Info().Msg("migrations applied")
	}

	recs, err := loadRecords(*file)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog records")
	}
	// Validate before touching the database.
	if _, err := catalog.Build(recs); err != nil {
		logger.Fatal().Err(err).Msg("invalid catalog")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	pool, err := app.NewPool(ctx, cfg.DatabaseURL, "toko-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := catalog.Seed(ctx, pool, recs); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	logger.Info().Int("hero_banners", len(recs.HeroBanners)).Int("sections", len(recs.Sections)).Msg("seeding completed")
}

func loadRecords(path string) (catalog.Records, error) {
	if path == "" {
		return catalog.DefaultRecords()
	}
	f, err := os.Open(path)
	if err != nil {
		return catalog.Records{}, err
	}
	defer f.Close()
	return catalog.DecodeYAML(f)
}
