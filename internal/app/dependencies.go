package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/health"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/ratelimit"
)

// Dependencies enumerates the infrastructure shared by the binaries. Redis
// and DB are nil when their URLs are not configured.
type Dependencies struct {
	DB           *pgxpool.Pool
	Redis        *redis.Client
	TaskClient   *asynq.Client
	Catalog      *catalog.Catalog
	Limiter      *limiter.Limiter
	LimiterStore limiter.Store

	closers []func() error
}

// Build connects the configured backends and loads the catalog.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	if cfg.DatabaseURL != "" && cfg.CatalogSource == config.CatalogPostgres {
		pool, err := NewPool(ctx, cfg.DatabaseURL, "toko-storefront")
		if err != nil {
			return nil, err
		}
		deps.DB = pool
		deps.closers = append(deps.closers, func() error { pool.Close(); return nil })
	}

	if cfg.RedisURL != "" {
		client, err := NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.Redis = client
		deps.closers = append(deps.closers, client.Close)

		taskClient, err := NewTaskClient(cfg.RedisURL)
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.TaskClient = taskClient
		deps.closers = append(deps.closers, taskClient.Close)
	} else {
		logger.Warn().Msg("REDIS_URL not set: snapshots, activity events and shared rate limits disabled")
	}

	cat, err := LoadCatalog(ctx, cfg, deps.DB)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Catalog = cat

	store, err := ratelimit.NewStore(deps.Redis)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	lim, err := ratelimit.New(store, cfg.RateLimit)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.LimiterStore = store
	deps.Limiter = lim
	return deps, nil
}

// Probes returns readiness checks for every configured backend.
func (d *Dependencies) Probes() map[string]health.Probe {
	probes := map[string]health.Probe{}
	if d.DB != nil {
		probes["postgres"] = health.PostgresProbe(d.DB)
	}
	if d.Redis != nil {
		probes["redis"] = health.RedisProbe(d.Redis)
	}
	return probes
}

// Close releases resources in reverse acquisition order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// NewPool opens a traced pgx pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRedis opens an instrumented Redis client and verifies connectivity.
// Instrumentation failures are logged and do not prevent startup.
func NewRedis(ctx context.Context, redisURL string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisConnOpt converts a redis URL into asynq connection options.
func RedisConnOpt(redisURL string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	return opt, nil
}

// NewTaskClient builds the asynq client used to publish activity tasks.
func NewTaskClient(redisURL string) (*asynq.Client, error) {
	opt, err := RedisConnOpt(redisURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewClient(opt), nil
}

// LoadCatalog loads the catalog from the configured source. pool is only
// consulted for the postgres source.
func LoadCatalog(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*catalog.Catalog, error) {
	switch cfg.CatalogSource {
	case config.CatalogFile:
		cat, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("load catalog file: %w", err)
		}
		return cat, nil
	case config.CatalogPostgres:
		if pool == nil {
			return nil, errors.New("postgres catalog requires a database pool")
		}
		cat, err := catalog.NewPostgresSource(pool).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog from postgres: %w", err)
		}
		return cat, nil
	default:
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded catalog: %w", err)
		}
		return cat, nil
	}
}

// Meter returns the global OpenTelemetry meter for instrumentation hooks.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
