package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gastaldl/lojaflow/api/responses"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-Lojaflow-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency; nil entries are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]db.Pinger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name, dep := range deps {
		if dep != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(names))
		healthy := true
		for _, name := range names {
			if err := deps[name].Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				continue
			}
			checks[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
