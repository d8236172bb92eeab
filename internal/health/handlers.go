package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Handler exposes HTTP handlers for health endpoints. Both backing services
// are optional: without a database the store runs memory-only and readiness
// reports "memory", without Redis caching and export queueing are off and
// readiness reports "disabled". Only configured dependencies can fail the
// probe.
type Handler struct {
	DB           *pgxpool.Pool
	Redis        *redis.Client
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	healthy := true

	dbStatus := "memory"
	if h.DB != nil {
		dbStatus = "ok"
		if err := h.pingDB(ctx); err != nil {
			dbStatus = err.Error()
			healthy = false
		}
	}
	redisStatus := "disabled"
	if h.Redis != nil {
		redisStatus = "ok"
		if err := h.pingRedis(ctx); err != nil {
			redisStatus = err.Error()
			healthy = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"db":    dbStatus,
		"redis": redisStatus,
	})
}

func (h Handler) pingDB(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.dbTimeout())
	defer cancel()
	return h.DB.Ping(ctx)
}

func (h Handler) pingRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.redisTimeout())
	defer cancel()
	return h.Redis.Ping(ctx).Err()
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
