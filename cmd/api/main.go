package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ziaroyale/backend-invoicing/internal/analytics"
	"github.com/ziaroyale/backend-invoicing/internal/common"
	"github.com/ziaroyale/backend-invoicing/internal/config"
	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/export"
	"github.com/ziaroyale/backend-invoicing/internal/health"
	"github.com/ziaroyale/backend-invoicing/internal/inventory"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/obs"
	"github.com/ziaroyale/backend-invoicing/internal/ratelimit"
	"github.com/ziaroyale/backend-invoicing/internal/render"
	"github.com/ziaroyale/backend-invoicing/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "invoicing")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "invoicing-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: 1.0,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := initDatabase(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}

	redisClient := initRedis(ctx, cfg, logger, metricsEnabled)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	var docStore store.Store
	if pool != nil {
		docStore = store.NewMirrored(ctx, store.NewPostgres(pool), logger, obs.StoreMirrorFailures)
	} else {
		logger.Warn().Msg("no database configured; documents live in memory for this session")
		docStore = store.NewMemory()
	}

	notifiers := []events.Notifier{}
	if redisClient != nil {
		notifiers = append(notifiers, analytics.Invalidator{R: redisClient})
	}
	bus := &events.Bus{Notifiers: notifiers}

	defaults := invoice.Defaults{
		Currency:      cfg.DefaultCurrency,
		ThemeColor:    cfg.DefaultThemeColor,
		SenderName:    cfg.DefaultSenderName,
		SenderDetails: cfg.DefaultSenderInfo,
		Notes:         cfg.DefaultNotes,
		Terms:         cfg.DefaultTerms,
	}
	invoiceSvc, err := invoice.NewService(docStore, defaults, bus, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise invoice service")
	}
	inventorySvc, err := inventory.NewService(docStore, validator.New())
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise inventory service")
	}
	invoiceHandler := &invoice.Handler{
		Svc: invoiceSvc,
		Catalog: func(ctx context.Context, id string) (string, float64, error) {
			item, err := inventorySvc.Get(ctx, id)
			if err != nil {
				return "", 0, err
			}
			return item.Name, item.Price.F(), nil
		},
	}
	inventoryHandler := &inventory.Handler{Svc: inventorySvc}

	renderer := render.NewRenderer()
	renderHandler := &render.Handler{Invoices: invoiceSvc, Renderer: renderer}

	var exportClient *asynq.Client
	if redisClient != nil {
		exportClient = asynq.NewClient(asynqRedisOpt(cfg.RedisURL))
		defer func() {
			if err := exportClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
	}
	exportHandler := &export.Handler{
		Invoices: invoiceSvc,
		Enq:      &export.Enqueuer{Client: exportClient, Queue: cfg.ExportQueue},
	}

	exportLimiter, err := ratelimit.New(cfg.ExportRateLimit, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.ExportRateLimit).Msg("initialise rate limiter")
	}
	exportLimit := ratelimit.Handler{
		Limiter: exportLimiter,
		Key:     common.ClientIP,
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		},
	}

	analyticsSvc := &analytics.Service{
		History:     invoiceSvc,
		R:           redisClient,
		TTL:         cfg.AnalyticsCacheTTL,
		RecentCount: cfg.AnalyticsRecentCount,
	}
	analyticsHandler := &analytics.Handler{Svc: analyticsSvc}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		DB:           pool,
		Redis:        redisClient,
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/draft", func(d chi.Router) {
			d.Get("/", invoiceHandler.Draft)
			d.Put("/", invoiceHandler.SaveDraft)
			d.Post("/new", invoiceHandler.NewDraft)
			d.Post("/items/from-inventory/{id}", invoiceHandler.AddItemFromInventory)
		})

		v.Route("/invoices", func(i chi.Router) {
			i.Get("/", invoiceHandler.List)
			i.Post("/", invoiceHandler.Save)
			i.Get("/next-number", invoiceHandler.NextNumber)
			i.Route("/{number}", func(one chi.Router) {
				one.Get("/", invoiceHandler.Get)
				one.Delete("/", invoiceHandler.Delete)
				one.Get("/document", renderHandler.Document)
				one.With(exportLimit.Middleware).Post("/export", exportHandler.Export)
			})
		})

		v.Get("/profile", invoiceHandler.GetProfile)

		v.Route("/inventory", func(inv chi.Router) {
			inv.Get("/", inventoryHandler.List)
			inv.Post("/", inventoryHandler.Create)
			inv.Put("/{id}", inventoryHandler.Update)
			inv.Delete("/{id}", inventoryHandler.Delete)
		})

		v.Route("/analytics", func(an chi.Router) {
			an.Get("/summary", analyticsHandler.Summary)
			an.Get("/recent", analyticsHandler.Recent)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

// initDatabase connects, migrates, and returns the pool, or nil when no
// DATABASE_URL is configured. Connection failures are fatal: a configured but
// unreachable database is a deployment error, not a degraded mode.
func initDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "invoicing-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	if err := store.Migrate(pool); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}
	return pool
}

func initRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metricsEnabled bool) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func asynqRedisOpt(redisURL string) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{Addr: redisURL}
	}
	return asynq.RedisClientOpt{Addr: opts.Addr, Username: opts.Username, Password: opts.Password, DB: opts.DB}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(common.AtoiDefault(os.Getenv(key), fallback)) * time.Millisecond
}
