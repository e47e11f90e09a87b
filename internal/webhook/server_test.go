package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/fyrsmithlabs/automod/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func writeWebhookConfig(t *testing.T, configDir, domain, secret string) {
	t.Helper()
	dir := filepath.Join(configDir, domain)
	require.NoError(t, os.MkdirAll(dir, 0700))
	content := fmt.Sprintf("domain: %s\nsecret: %s\n", domain, secret)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "webhook.yaml"), []byte(content), 0600))
}

func newTestServer(t *testing.T, domain, secret string) *Server {
	t.Helper()
	configDir := t.TempDir()
	writeWebhookConfig(t, configDir, domain, secret)

	logger := logging.NewTestLogger()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	b, err := NewBroadcaster(logger.Logger, metrics)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	s, err := NewServer(logger.Logger, configDir, b, metrics, reg)
	require.NoError(t, err)
	return s
}

func signedRequest(domain, secret string, body []byte) *http.Request {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	sig := fmt.Sprintf("sha256=%s", hex.EncodeToString(h.Sum(nil)))

	req := httptest.NewRequest(http.MethodPost, "/webhook?domain="+domain, bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature", sig)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleWebhook_ValidSignatureAccepted(t *testing.T) {
	s := newTestServer(t, "example.social", "topsecret")
	body := []byte(`{"event": "status.created", "created_at": "2026-01-02T15:04:05Z", "object": {"id": "1", "account": {"id": "a1"}}}`)

	req := signedRequest("example.social", "topsecret", body)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleWebhook_WrongSecretRejected(t *testing.T) {
	s := newTestServer(t, "example.social", "topsecret")
	body := []byte(`{"event": "status.created"}`)

	req := signedRequest("example.social", "wrongsecret", body)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWebhook_UnknownDomainRejected(t *testing.T) {
	s := newTestServer(t, "example.social", "topsecret")
	body := []byte(`{"event": "status.created"}`)

	req := signedRequest("other.social", "topsecret", body)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	// "other.social" has no handler, so the candidate set is empty — zero
	// matches is an ambiguity failure like any other, not a distinct
	// not-found response.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWebhook_MalformedBodyReturns422(t *testing.T) {
	s := newTestServer(t, "example.social", "topsecret")
	body := []byte(`not json`)

	req := signedRequest("example.social", "topsecret", body)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// TestHandleWebhook_StampsTraceParent confirms an accepted delivery's
// published Event carries the handling span's W3C traceparent, so the
// worker goroutine that eventually picks it up off the broadcast subject
// can continue the same trace.
func TestHandleWebhook_StampsTraceParent(t *testing.T) {
	prevProp := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevProp) })

	tt := telemetry.NewTestTelemetry()
	prevTracer := tracer
	tracer = tt.Tracer("automod.webhook")
	t.Cleanup(func() { tracer = prevTracer })

	s := newTestServer(t, "example.social", "topsecret")

	received := make(chan *Event, 1)
	sub, err := s.broadcaster.Subscribe("example.social", func(ev *Event) { received <- ev })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	body := []byte(`{"event": "status.created", "created_at": "2026-01-02T15:04:05Z", "object": {"id": "1", "account": {"id": "a1"}}}`)
	req := signedRequest("example.social", "topsecret", body)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case ev := <-received:
		assert.NotEmpty(t, ev.TraceParent)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestHandleWebhook_NoDomainParamTriesAllConfiguredDomains(t *testing.T) {
	s := newTestServer(t, "example.social", "topsecret")
	body := []byte(`{"event": "status.created", "created_at": "2026-01-02T15:04:05Z", "object": {"id": "1", "account": {"id": "a1"}}}`)

	h := hmac.New(sha256.New, []byte("topsecret"))
	h.Write(body)
	sig := fmt.Sprintf("sha256=%s", hex.EncodeToString(h.Sum(nil)))

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature", sig)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleWebhook_AmbiguousSharedSecretRejected(t *testing.T) {
	configDir := t.TempDir()
	writeWebhookConfig(t, configDir, "example.social", "sharedsecret")
	writeWebhookConfig(t, configDir, "other.social", "sharedsecret")

	logger := logging.NewTestLogger()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	b, err := NewBroadcaster(logger.Logger, metrics)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	s, err := NewServer(logger.Logger, configDir, b, metrics, reg)
	require.NoError(t, err)

	body := []byte(`{"event": "status.created"}`)
	h := hmac.New(sha256.New, []byte("sharedsecret"))
	h.Write(body)
	sig := fmt.Sprintf("sha256=%s", hex.EncodeToString(h.Sum(nil)))

	// No "domain" query param: both domains' secrets validate, which is an
	// ambiguous delivery and must be rejected rather than attributed to
	// either domain.
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature", sig)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleHealthcheck_ReadyWhenConnected(t *testing.T) {
	s := newTestServer(t, "example.social", "topsecret")

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
