// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/vertriebsportal/maildispatch/internal/http/controllers/health"
	mailctrl "github.com/vertriebsportal/maildispatch/internal/http/controllers/mail"
	httperrors "github.com/vertriebsportal/maildispatch/internal/http/errors"
	mw "github.com/vertriebsportal/maildispatch/internal/http/middlewares"
	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/metrics"
	"github.com/vertriebsportal/maildispatch/internal/rate"
)

// Deps contiene lo necesario para registrar las rutas.
type Deps struct {
	Mail     *mailctrl.MailController
	Health   *healthctrl.HealthController
	Resolver identity.Resolver

	// Opcionales
	Limiter     rate.Limiter
	Metrics     *metrics.Metrics
	MetricsPath string
}

// New devuelve el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestID(),
		mw.WithCaller(d.Resolver),
		mw.WithLogging(d.Metrics),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Health: sin auth ni rate limit
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics.Handler())
	}

	r.With(
		mw.WithNoStore(),
		mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.Limiter, Metrics: d.Metrics}),
	).Post("/send-mail", d.Mail.SendMail)

	return r
}
