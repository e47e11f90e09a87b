package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/automod/internal/logging"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// eventSubject returns the NATS subject a domain's events fan out on.
func eventSubject(domain string) string {
	return fmt.Sprintf("automod.events.%s", domain)
}

// Broadcaster embeds a NATS server and publishes webhook events onto
// per-domain subjects for worker goroutines to subscribe to. automod ships
// as a single binary with no separate broker deployment, so the embedded
// server doubles as the production message bus rather than just a test
// fixture.
type Broadcaster struct {
	server *natsserver.Server
	conn   *nats.Conn
	logger *logging.Logger
	events *Metrics
}

// NewBroadcaster starts an embedded, loopback-only NATS server and connects
// to it.
func NewBroadcaster(logger *logging.Logger, metrics *Metrics) (*Broadcaster, error) {
	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	}

	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("webhook: start embedded NATS server: %w", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("webhook: embedded NATS server not ready")
	}

	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("webhook: connect to embedded NATS server: %w", err)
	}

	b := &Broadcaster{server: srv, conn: conn, logger: logger, events: metrics}
	conn.SetErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
		subject := ""
		if sub != nil {
			subject = sub.Subject
		}
		if err == nats.ErrSlowConsumer {
			metrics.eventsDropped.WithLabelValues(subject).Inc()
			logger.Warn(context.Background(), "subscriber fell behind, events dropped",
				zap.String("subject", subject),
			)
			return
		}
		logger.Error(context.Background(), "nats async error",
			zap.String("subject", subject),
			zap.Error(err),
		)
	})

	return b, nil
}

// Connected reports whether the broadcaster's connection to the embedded
// NATS server is currently up.
func (b *Broadcaster) Connected() bool {
	return b.conn != nil && b.conn.IsConnected()
}

// Publish publishes ev onto domain's subject.
func (b *Broadcaster) Publish(domain string, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}
	if err := b.conn.Publish(eventSubject(domain), data); err != nil {
		return fmt.Errorf("webhook: publish event: %w", err)
	}
	return nil
}

// Subscribe registers fn as the handler for domain's subject, returning the
// subscription so the caller can Unsubscribe on shutdown.
func (b *Broadcaster) Subscribe(domain string, fn func(*Event)) (*nats.Subscription, error) {
	return b.conn.Subscribe(eventSubject(domain), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Error(context.Background(), "failed to decode broadcast event",
				zap.String("domain", domain),
				zap.Error(err),
			)
			return
		}
		fn(&ev)
	})
}

// Close closes the connection (without draining it) and shuts down the
// embedded server.
func (b *Broadcaster) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
		b.server.WaitForShutdown()
	}
}

// Metrics holds the Prometheus collectors the webhook package registers.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	signatureFailure *prometheus.CounterVec
	ruleMatches      *prometheus.CounterVec
	restrictions     *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
}

// NewMetrics registers automod's webhook/engine metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automod_webhook_requests_total",
			Help: "Webhook deliveries received, by domain and outcome status.",
		}, []string{"domain", "status"}),
		signatureFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automod_signature_failures_total",
			Help: "Webhook deliveries rejected for signature verification failure, by domain.",
		}, []string{"domain"}),
		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automod_rule_matches_total",
			Help: "Rule matches, by domain, username, and rule name.",
		}, []string{"domain", "username", "rule"}),
		restrictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automod_restrictions_total",
			Help: "Account restrictions applied, by domain and restriction level.",
		}, []string{"domain", "level"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automod_events_dropped_total",
			Help: "Events dropped because a worker's subscription fell behind, by subject.",
		}, []string{"subject"}),
	}
	reg.MustRegister(m.requestsTotal, m.signatureFailure, m.ruleMatches, m.restrictions, m.eventsDropped)
	return m
}
