// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	dto "github.com/vertriebsportal/maildispatch/internal/http/dto/health"
	"github.com/vertriebsportal/maildispatch/internal/http/helpers"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

// Check verifica una dependencia.
type Check func(ctx context.Context) error

// HealthController maneja /healthz y /readyz.
type HealthController struct {
	checks  map[string]Check
	version string
	timeout time.Duration
}

func NewHealthController(version string, checks map[string]Check) *HealthController {
	return &HealthController{checks: checks, version: version, timeout: 2 * time.Second}
}

// Healthz maneja GET /healthz (liveness, sin dependencias).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Version:   c.version,
		Timestamp: time.Now().UTC(),
	})
}

// Readyz maneja GET /readyz. 503 si alguna dependencia falla.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()
	log := logger.From(ctx).With(logger.Op("HealthController.Readyz"))

	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.ComponentStatus, len(names)),
		Version:    c.version,
		Timestamp:  time.Now().UTC(),
	}
	status := http.StatusOK
	for _, n := range names {
		if err := c.checks[n](ctx); err != nil {
			log.Warn("readiness check failed", logger.Component(n), logger.Err(err))
			resp.Components[n] = dto.ComponentStatus{Status: "error", Message: err.Error()}
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[n] = dto.ComponentStatus{Status: "ok"}
	}

	helpers.WriteJSON(w, status, resp)
}
