package middlewares

import (
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/vertriebsportal/maildispatch/internal/http/errors"
	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/metrics"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
	"github.com/vertriebsportal/maildispatch/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// CallerRateKey usa el email del caller. Sin caller devuelve "": el request
// no consume cupo y el dispatch lo rechaza con 401.
func CallerRateKey(r *http.Request) string {
	if c := identity.FromContext(r.Context()); c != nil && c.Email != "" {
		return "caller|" + c.Email
	}
	return ""
}

// RateLimitConfig configura el middleware de rate limiting.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
	Metrics *metrics.Metrics
}

// WithRateLimit responde 429 cuando la clave excede su ventana.
// Si el limiter falla, o KeyFunc devuelve "", el request pasa sin contar.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = CallerRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.KeyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Op("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				cfg.Metrics.RateLimited()
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
