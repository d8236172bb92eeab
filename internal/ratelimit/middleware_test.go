package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ziaroyale/backend-invoicing/internal/ratelimit"
)

func TestMiddlewareEnforcesLimit(t *testing.T) {
	lim, err := ratelimit.New("2-H", nil)
	require.NoError(t, err)

	handler := ratelimit.Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "client-a" },
	}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", nil))
		statuses = append(statuses, rec.Code)
	}
	require.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, statuses)
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	lim, err := ratelimit.New("5-M", nil)
	require.NoError(t, err)

	handler := ratelimit.Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "client-b" },
	}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", nil))
	require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestMiddlewarePassesThroughWithoutLimiter(t *testing.T) {
	handler := ratelimit.Handler{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
