package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/toko-storefront/internal/app"
	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/events"
	"github.com/noah-isme/toko-storefront/internal/health"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/ratelimit"
	"github.com/noah-isme/toko-storefront/internal/resilience"
	"github.com/noah-isme/toko-storefront/internal/security"
	"github.com/noah-isme/toko-storefront/internal/session"
	"github.com/noah-isme/toko-storefront/internal/storefront"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := obs.InitTelemetry(ctx, obs.TelemetryConfig{
		ServiceName:       "toko-storefront",
		Environment:       cfg.AppEnv,
		TraceExporter:     cfg.TracingExporter,
		TraceEndpoint:     cfg.TracingEndpoint,
		SampleRatio:       cfg.TracingSampleRatio,
		MetricsRegisterer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise telemetry")
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Build(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{Catalog: deps.Catalog})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	codec, err := session.NewCodec(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise session codec")
	}
	csrfCookie := ""
	if cfg.CSRFEnabled {
		csrfCookie = security.DefaultCSRFCookie
	}
	sessions := session.Middleware{
		Codec:      codec,
		CookieName: cfg.SessionCookieName,
		CSRFCookie: csrfCookie,
		Secure:     cfg.CookieSecure,
		SameSite:   cfg.CookieSameSite,
		Logger:     logger,
	}

	registryCfg := storefront.RegistryConfig{
		Products: deps.Catalog,
		Controller: storefront.ControllerConfig{
			HeroBanners:   deps.Catalog.HeroCount(),
			CarouselItems: deps.Catalog.SectionLen(catalog.SectionBestSellers),
			MenuOpenDelay: cfg.MenuOpenDelay,
		},
		IdleTTL: cfg.SessionIdleTTL,
		Logger:  logger.With().Str("component", "storefront").Logger(),
		Meter:   app.Meter("toko-storefront/storefront"),
	}
	if deps.Redis != nil {
		registryCfg.Store = storefront.GuardedStore{
			Store: storefront.NewRedisStore(deps.Redis, cfg.SnapshotTTL),
			Breaker: resilience.NewBreaker(resilience.BreakerConfig{
				Target:  "snapshot_store",
				OpenFor: 30 * time.Second,
				Logger:  logger,
			}),
		}
	}
	registry := storefront.NewRegistry(registryCfg)
	go registry.Run(ctx)

	handlerCfg := storefront.HandlerConfig{
		Registry: registry,
		Products: deps.Catalog,
		Logger:   logger,
	}
	if deps.TaskClient != nil {
		handlerCfg.Publisher = &events.Publisher{Client: deps.TaskClient, Queue: cfg.EventsQueue}
	}
	storefrontHandler := storefront.NewHandler(handlerCfg)

	idem := common.Idem{
		R:   deps.Redis,
		TTL: cfg.IdempotencyTTL,
		Scope: func(r *http.Request) string {
			id, _ := session.ID(r.Context())
			return id
		},
	}

	httpMetrics := obs.NewHTTPMetrics(obs.HTTPMetricsConfig{
		Namespace: cfg.MetricsNamespace,
		Buckets:   obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.TracingMiddleware)
	r.Use(httpMetrics.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", security.DefaultCSRFHeader, common.IdempotencyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.Headers{EnableHSTS: cfg.CookieSecure}.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{Probes: deps.Probes(), Timeout: 500 * time.Millisecond}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	rateLimited := ratelimit.Handler{
		Limiter: deps.Limiter,
		Key:     ratelimit.ByClientIP,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter store") },
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateLimited.Middleware)
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

		v.Get("/catalog", catalogHandler.Overview)
		v.Get("/catalog/sections/{section}", catalogHandler.Section)
		v.Get("/products/{id}", catalogHandler.ProductDetail)

		v.Route("/storefront", func(s chi.Router) {
			s.Use(security.Headers{NoStore: true}.Middleware)
			s.Use(sessions.Handler)
			if cfg.CSRFEnabled {
				s.Use(security.CSRF{Cookie: csrfCookie}.Middleware)
			}
			storefrontHandler.Routes(s, idem.Middleware)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("catalog", cfg.CatalogSource).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Int("sessions", registry.Len()).Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
