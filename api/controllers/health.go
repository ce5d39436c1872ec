package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/cartside/cartside-backend/api/responses"
	"github.com/cartside/cartside-backend/pkg/config"
	pkgerrors "github.com/cartside/cartside-backend/pkg/errors"
	"github.com/cartside/cartside-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is the connectivity check shared by the datastores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cartside-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both Postgres and Redis answer a ping.
func HealthReady(cfg *config.Config, database, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cartside-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"db": "ok", "redis": "ok"}
		healthy := true

		if database == nil {
			checks["db"] = "not configured"
			healthy = false
		} else if err := database.Ping(ctx); err != nil {
			checks["db"] = "unreachable"
			healthy = false
		}

		if cache == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(map[string]any{
				"db":    checks["db"],
				"redis": checks["redis"],
			})
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready", "db": checks["db"], "redis": checks["redis"]})
	}
}
