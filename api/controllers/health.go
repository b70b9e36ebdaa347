package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/eventra-app/eventra-backend/api/responses"
	"github.com/eventra-app/eventra-backend/pkg/config"
	"github.com/eventra-app/eventra-backend/pkg/db"
	pkgerrors "github.com/eventra-app/eventra-backend/pkg/errors"
	"github.com/eventra-app/eventra-backend/pkg/logger"
	"github.com/eventra-app/eventra-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

type queuePinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Eventra-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, queueP queuePinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		ready := true

		check := func(name string, ping func(context.Context) error) {
			if err := ping(ctx); err != nil {
				checks[name] = "down"
				ready = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			check("database", dbP.Ping)
		} else {
			checks["database"] = "skipped"
		}
		if redisP != nil {
			check("redis", redisP.Ping)
		} else {
			checks["redis"] = "skipped"
		}
		if queueP != nil {
			check("pubsub", queueP.Ping)
		} else {
			checks["pubsub"] = "skipped"
		}

		w.Header().Set("X-Eventra-Env", cfg.App.Env)
		if !ready {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
