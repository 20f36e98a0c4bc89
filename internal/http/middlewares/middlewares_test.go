package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/observability/logger"
	"github.com/vertriebsportal/maildispatch/internal/rate"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(ok, mk("A"), mk("B"), mk("C"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestWithRecover(t *testing.T) {
	h := WithRecover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-mail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Interner Serverfehler."}`, rec.Body.String())
}

type stubResolver struct {
	caller *identity.Caller
	err    error
}

func (s stubResolver) CurrentUser(*http.Request) (*identity.Caller, error) { return s.caller, s.err }

func TestWithCaller(t *testing.T) {
	var got *identity.Caller
	capture := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = identity.FromContext(r.Context())
	})

	WithCaller(stubResolver{caller: &identity.Caller{Email: "a@tenant.example"}})(capture).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	assert.Equal(t, "a@tenant.example", got.Email)

	got = nil
	rec := httptest.NewRecorder()
	WithCaller(stubResolver{err: identity.ErrTokenInvalid})(capture).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, got, "token inválido no rechaza, sigue sin caller")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type errLimiter struct{}

func (errLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, errors.New("redis down")
}

func TestWithRateLimit(t *testing.T) {
	h := Chain(ok,
		WithCaller(stubResolver{caller: &identity.Caller{Email: "a@tenant.example"}}),
		WithRateLimit(RateLimitConfig{Limiter: rate.NewMemoryLimiter(1, time.Minute)}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-mail", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-mail", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestWithRateLimit_FailOpen(t *testing.T) {
	h := Chain(ok,
		WithCaller(stubResolver{caller: &identity.Caller{Email: "a@tenant.example"}}),
		WithRateLimit(RateLimitConfig{Limiter: errLimiter{}}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-mail", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCallerRateKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/send-mail", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	assert.Empty(t, CallerRateKey(r), "sin caller no hay clave")

	r = r.WithContext(identity.WithCaller(r.Context(), &identity.Caller{Email: "a@tenant.example"}))
	assert.Equal(t, "caller|a@tenant.example", CallerRateKey(r))
}

func TestWithRateLimit_AnonymousNotCounted(t *testing.T) {
	l := rate.NewMemoryLimiter(1, time.Minute)
	anon := WithRateLimit(RateLimitConfig{Limiter: l})(ok)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		anon.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-mail", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	res, err := l.Allow(context.Background(), "caller|a@tenant.example")
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.CurrentHits)
}

func TestWithLogging_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.L()
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(prev) })

	var scoped bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = logger.From(r.Context()) != logger.L()
		w.WriteHeader(http.StatusBadRequest)
	}), WithRequestID(), WithLogging(nil))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/send-mail", nil))
	assert.True(t, scoped)

	entries := logs.FilterMessage("request completed with client error").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "/send-mail", ctx["path"])
	assert.EqualValues(t, 400, ctx["status"])
	assert.NotEmpty(t, ctx["request_id"])
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Chain(ok, WithSecurityHeaders(), WithNoStore()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
