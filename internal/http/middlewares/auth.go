package middlewares

import (
	"errors"
	"net/http"

	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
)

// WithCaller resuelve el caller con el Resolver y lo guarda en el contexto.
// No rechaza: sin identidad el request sigue y el dispatch responde 401.
func WithCaller(res identity.Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		if res == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := res.CurrentUser(r)
			if err != nil {
				if !errors.Is(err, identity.ErrTokenMissing) {
					logger.From(r.Context()).Debug("bearer token rejected", logger.Op("auth"), logger.Err(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithCaller(r.Context(), c)))
		})
	}
}
