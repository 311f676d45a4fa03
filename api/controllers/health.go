package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/shareit-backend/api/responses"
	"github.com/angelmondragon/shareit-backend/pkg/config"
	"github.com/angelmondragon/shareit-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
	"github.com/angelmondragon/shareit-backend/pkg/redis"
)

const (
	envHeader    = "X-ShareIt-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, redis. A nil redis pinger is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok"}
		var failed error
		if dbP == nil {
			failed = pkgerrors.New(pkgerrors.CodeDependency, "database not configured")
			checks["database"] = "missing"
		} else if err := dbP.Ping(ctx); err != nil {
			failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database ping failed")
			checks["database"] = "down"
		}
		if redisP != nil {
			checks["redis"] = "ok"
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "down"
				if failed == nil {
					failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis ping failed")
				}
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.As(failed).WithDetails(checks))
			return
		}
		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
