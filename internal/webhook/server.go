package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// tracer stamps trace_id/span_id onto a delivery's context for
// internal/logging.ContextFields to pick up; see internal/telemetry's doc
// comment. It resolves against whatever TracerProvider telemetry.New
// registered globally, or a no-op if telemetry is disabled.
var tracer = otel.Tracer("automod.webhook")

// maxWebhookBodyBytes bounds a single webhook delivery, matching the
// original's axum body-limit layer.
const maxWebhookBodyBytes = 1 << 20 // 1 MiB

// Server receives Mastodon webhook deliveries, verifies their signature,
// and publishes decoded events onto the matching domain's broadcast
// subject.
type Server struct {
	echo        *echo.Echo
	logger      *logging.Logger
	broadcaster *Broadcaster
	metrics     *Metrics
	registry    *prometheus.Registry

	mu      sync.RWMutex
	secrets map[string]config.Secret // domain -> webhook secret

	ready bool
}

// NewServer creates a webhook server for the domains already configured
// under configDir. Domains added later require a process restart to pick
// up, matching spec.md's non-goal of hot reload. metrics and registry are
// shared with the Broadcaster so /metrics exposes both webhook-intake and
// broadcast-fan-out counters from one registry.
func NewServer(logger *logging.Logger, configDir string, broadcaster *Broadcaster, metrics *Metrics, registry *prometheus.Registry) (*Server, error) {
	domains, err := config.ConfiguredDomains(configDir)
	if err != nil {
		return nil, fmt.Errorf("webhook: enumerate configured domains: %w", err)
	}

	secrets := make(map[string]config.Secret, len(domains))
	for _, domain := range domains {
		wh, err := config.LoadWebhook(configDir, domain)
		if err != nil {
			return nil, fmt.Errorf("webhook: load webhook config for %s: %w", domain, err)
		}
		secrets[domain] = wh.Secret
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		logger:      logger,
		broadcaster: broadcaster,
		metrics:     metrics,
		registry:    registry,
		secrets:     secrets,
		ready:       true,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", maxWebhookBodyBytes)))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			logger.Info(c.Request().Context(), "webhook http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthcheck", s.handleHealthcheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.echo.POST("/webhook", s.handleWebhook)
}

func (s *Server) handleHealthcheck(c echo.Context) error {
	if s.ready && s.broadcaster.Connected() {
		return c.NoContent(http.StatusNoContent)
	}
	return c.NoContent(http.StatusServiceUnavailable)
}

// candidateSecrets returns the domain secrets a delivery's signature must be
// checked against. A "domain" query parameter narrows the search to that one
// domain; its absence means every configured domain is tried. The query
// parameter is never trusted to pick the domain outright — it only narrows
// which handlers are attempted, matching the original's receive_webhook.
func (s *Server) candidateSecrets(queryDomain string) map[string]config.Secret {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if queryDomain == "" {
		candidates := make(map[string]config.Secret, len(s.secrets))
		for domain, secret := range s.secrets {
			candidates[domain] = secret
		}
		return candidates
	}
	if secret, ok := s.secrets[queryDomain]; ok {
		return map[string]config.Secret{queryDomain: secret}
	}
	return nil
}

func (s *Server) handleWebhook(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandleWebhook")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	queryDomain := c.QueryParam("domain")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		s.metrics.requestsTotal.WithLabelValues(queryDomain, "read_error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}

	header := c.Request().Header.Get("X-Hub-Signature")
	sig, err := ParseXHubSignature(header)
	if err != nil || sig.Algorithm != AlgorithmSha256 {
		s.metrics.signatureFailure.WithLabelValues(queryDomain).Inc()
		s.metrics.requestsTotal.WithLabelValues(queryDomain, "signature_failure").Inc()
		return c.NoContent(http.StatusUnauthorized)
	}

	var matched string
	matches := 0
	for domain, secret := range s.candidateSecrets(queryDomain) {
		if sig.IsValid([]byte(secret.Value()), body) {
			matched = domain
			matches++
		}
	}
	if matches != 1 {
		s.metrics.signatureFailure.WithLabelValues(queryDomain).Inc()
		s.metrics.requestsTotal.WithLabelValues(queryDomain, "signature_failure").Inc()
		return c.NoContent(http.StatusUnauthorized)
	}
	domain := matched

	ev, err := DecodeEvent(body)
	if err != nil {
		s.metrics.requestsTotal.WithLabelValues(domain, "decode_error").Inc()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "could not decode event")
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	ev.TraceParent = carrier.Get("traceparent")

	if err := s.broadcaster.Publish(domain, ev); err != nil {
		s.metrics.requestsTotal.WithLabelValues(domain, "publish_error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, "could not publish event")
	}

	s.metrics.requestsTotal.WithLabelValues(domain, "accepted").Inc()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Start starts the HTTP server listening on addr.
func (s *Server) Start(addr string) error {
	s.logger.Info(context.Background(), "starting webhook server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down webhook server")
	return s.echo.Shutdown(ctx)
}
