package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/logger"
	"go.uber.org/zap"
)

// Pinger checks a dependency.
type Pinger func(ctx context.Context) error

// Health is the liveness probe.
func Health(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Healthz is the readiness probe: it pings the database.
func Healthz(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("readiness check failed", zap.Error(err))
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
