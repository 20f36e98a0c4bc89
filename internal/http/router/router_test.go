package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertriebsportal/maildispatch/internal/audit"
	"github.com/vertriebsportal/maildispatch/internal/directory"
	"github.com/vertriebsportal/maildispatch/internal/dispatch"
	healthctrl "github.com/vertriebsportal/maildispatch/internal/http/controllers/health"
	mailctrl "github.com/vertriebsportal/maildispatch/internal/http/controllers/mail"
	maildto "github.com/vertriebsportal/maildispatch/internal/http/dto/mail"
	"github.com/vertriebsportal/maildispatch/internal/identity"
	"github.com/vertriebsportal/maildispatch/internal/mail"
	"github.com/vertriebsportal/maildispatch/internal/metrics"
	"github.com/vertriebsportal/maildispatch/internal/rate"
)

const secret = "test-secret"

type recordingTransport struct {
	mu   sync.Mutex
	err  error
	sent []mail.Message
}

func (t *recordingTransport) Send(_ context.Context, _ mail.Credentials, m mail.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, m)
	return nil
}

type env struct {
	h         http.Handler
	jwt       *identity.JWTResolver
	transport *recordingTransport
	audit     *audit.Memory
}

type options struct {
	limiter  rate.Limiter
	notReady bool
}

func newEnv(t *testing.T, o options) *env {
	t.Helper()
	jr, err := identity.NewJWTResolver(identity.JWTConfig{Secret: secret})
	require.NoError(t, err)
	m, err := metrics.New(nil)
	require.NoError(t, err)

	e := &env{jwt: jr, transport: &recordingTransport{}, audit: audit.NewMemory()}
	dir := directory.NewMemory(
		directory.Entry{Email: "a@tenant.example", FullName: "A Name", SMTPUser: "a@smtp.ionos.de", SMTPPassword: "pw", Sparte: "Strom"},
		directory.Entry{Email: "nopw@tenant.example", FullName: "No Pw", SMTPUser: "nopw@smtp.ionos.de"},
	)
	svc := dispatch.New(dispatch.Deps{Directory: dir, Transport: e.transport, Audit: e.audit, Metrics: m})

	checks := map[string]healthctrl.Check{"directory": func(context.Context) error { return nil }}
	if o.notReady {
		checks["directory"] = func(context.Context) error { return errors.New("pool closed") }
	}

	e.h = New(Deps{
		Mail:     mailctrl.NewMailController(svc),
		Health:   healthctrl.NewHealthController("test", checks),
		Resolver: jr,
		Limiter:  o.limiter,
		Metrics:  m,
	})
	return e
}

func (e *env) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.jwt.Issue("u1", email, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *env) send(t *testing.T, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/send-mail", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

const okBody = `{"to":"x@y.z","subject":"Hi","text":"Hello"}`

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSendMail_Success(t *testing.T) {
	e := newEnv(t, options{})
	body := jsonBody(t, maildto.SendMailRequest{To: "x@y.z", Subject: "Hi", Text: "Hello"})
	rec, out := e.send(t, e.token(t, "a@tenant.example"), body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, dispatch.MsgSuccess, out["message"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	require.Len(t, e.transport.sent, 1)
	assert.Equal(t, "a@smtp.ionos.de", e.transport.sent[0].FromAddress)
	recs := e.audit.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "a@smtp.ionos.de", recs[0].From)
	assert.Equal(t, audit.DirectionOutbound, recs[0].Direction)
}

func TestSendMail_Unauthorized(t *testing.T) {
	e := newEnv(t, options{})

	for name, tok := range map[string]string{
		"no token":  "",
		"bad token": "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			rec, out := e.send(t, tok, okBody)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, dispatch.MsgUnauthorized, out["error"])
		})
	}
	assert.Empty(t, e.transport.sent)
	assert.Empty(t, e.audit.Records())
}

func TestSendMail_BadRequest(t *testing.T) {
	e := newEnv(t, options{})
	rec, out := e.send(t, e.token(t, "a@tenant.example"), `{"subject":"Hi","text":"Hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dispatch.MsgBadRequest, out["error"])
	assert.Empty(t, e.transport.sent)
}

func TestSendMail_PayloadTooLarge(t *testing.T) {
	e := newEnv(t, options{})
	big := `{"to":"x@y.z","subject":"Hi","text":"` + strings.Repeat("a", 2<<20) + `"}`

	rec, out := e.send(t, e.token(t, "a@tenant.example"), big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Empty(t, e.transport.sent)

	// sin identidad sigue siendo 401
	rec, _ = e.send(t, "", big)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMail_CredentialsMissing(t *testing.T) {
	e := newEnv(t, options{})
	rec, out := e.send(t, e.token(t, "nopw@tenant.example"), okBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dispatch.MsgCredentialsMissing, out["error"])
	assert.Empty(t, e.transport.sent)
}

func TestSendMail_TransportFailure(t *testing.T) {
	e := newEnv(t, options{})
	e.transport.err = &mail.TransportError{Code: mail.DiagAuth, Err: errors.New("535 5.7.8 authentication failed")}

	rec, out := e.send(t, e.token(t, "a@tenant.example"), okBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, out["error"], "535 5.7.8")
	assert.Empty(t, e.audit.Records())
}

func TestSendMail_RateLimited(t *testing.T) {
	e := newEnv(t, options{limiter: rate.NewMemoryLimiter(1, time.Minute)})
	tok := e.token(t, "a@tenant.example")

	rec, _ := e.send(t, tok, okBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := e.send(t, tok, okBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, dispatch.MsgRateLimited, out["error"])
	assert.Len(t, e.transport.sent, 1)
}

func TestSendMail_UnauthorizedDoesNotConsumeQuota(t *testing.T) {
	e := newEnv(t, options{limiter: rate.NewMemoryLimiter(1, time.Minute)})

	for i := 0; i < 3; i++ {
		rec, _ := e.send(t, "", okBody)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, _ := e.send(t, e.token(t, "a@tenant.example"), okBody)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendMail_MethodNotAllowed(t *testing.T) {
	e := newEnv(t, options{})
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send-mail", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHealth(t *testing.T) {
	e := newEnv(t, options{})

	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)

	down := newEnv(t, options{notReady: true})
	rec = httptest.NewRecorder()
	down.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "pool closed")
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, options{})
	e.send(t, e.token(t, "a@tenant.example"), okBody)

	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `maildispatch_dispatch_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="POST",path="/send-mail",status="200"} 1`)
}
