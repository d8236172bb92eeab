package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ziaroyale/backend-invoicing/internal/config"
	"github.com/ziaroyale/backend-invoicing/internal/events"
	"github.com/ziaroyale/backend-invoicing/internal/export"
	"github.com/ziaroyale/backend-invoicing/internal/invoice"
	"github.com/ziaroyale/backend-invoicing/internal/obs"
	"github.com/ziaroyale/backend-invoicing/internal/render"
	"github.com/ziaroyale/backend-invoicing/internal/store"
)

// The worker renders queued invoice exports. It needs Redis for the queue and
// a database for the invoice history: unlike the API it has no in-memory
// session to fall back on.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "invoicing"), nil)

	if cfg.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is required for the export worker")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required for the export worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	docStore := store.NewPostgres(pool)
	invoiceSvc, err := invoice.NewService(docStore, invoice.Defaults{
		Currency:   cfg.DefaultCurrency,
		ThemeColor: cfg.DefaultThemeColor,
		SenderName: cfg.DefaultSenderName,
		Notes:      cfg.DefaultNotes,
		Terms:      cfg.DefaultTerms,
	}, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise invoice service")
	}

	processor := &export.Processor{
		Invoices: invoiceSvc,
		Renderer: render.NewRenderer(),
		Dir:      cfg.ExportDir,
		Bus:      &events.Bus{},
		Logger:   logger,
	}

	queue := cfg.ExportQueue
	if queue == "" {
		queue = "default"
	}
	srv := asynq.NewServer(asynqRedisOpt(cfg.RedisURL), asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{queue: 1},
		Logger:      asynqZerolog{logger},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(export.TypeInvoiceExport, processor.HandleInvoiceExport)

	logger.Info().Str("queue", queue).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func asynqRedisOpt(redisURL string) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{Addr: redisURL}
	}
	return asynq.RedisClientOpt{Addr: opts.Addr, Username: opts.Username, Password: opts.Password, DB: opts.DB}
}

// asynqZerolog adapts the shared logger to asynq's logging interface.
type asynqZerolog struct {
	l zerolog.Logger
}

func (a asynqZerolog) Debug(args ...any) { a.l.Debug().Msgf("%v", args) }
func (a asynqZerolog) Info(args ...any)  { a.l.Info().Msgf("%v", args) }
func (a asynqZerolog) Warn(args ...any)  { a.l.Warn().Msgf("%v", args) }
func (a asynqZerolog) Error(args ...any) { a.l.Error().Msgf("%v", args) }
func (a asynqZerolog) Fatal(args ...any) { a.l.Fatal().Msgf("%v", args) }

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
