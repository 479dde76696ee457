package controllers

import (
	"context"
	"net/http"

	"github.com/pmdelrosario/merkado-backend/api/responses"
	"github.com/pmdelrosario/merkado-backend/pkg/config"
	"github.com/pmdelrosario/merkado-backend/pkg/logger"
)

const envHeader = "X-Merkado-Env"

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency and reports per-component status. Any
// failing component flips the response to 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		components := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				components[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				components[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "component", name), "readiness probe failed", err)
				}
				continue
			}
			components[name] = "up"
		}

		status := "ready"
		httpStatus := http.StatusOK
		if !healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, httpStatus, map[string]any{
			"status":     status,
			"components": components,
		})
	}
}

// ReadyDeps assembles the readiness probe set, skipping nil dependencies.
func ReadyDeps(db, redis, storage Pinger) map[string]Pinger {
	return map[string]Pinger{
		"database": db,
		"redis":    redis,
		"storage":  storage,
	}
}
