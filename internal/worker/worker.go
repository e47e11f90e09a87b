// Package worker runs one goroutine per (domain, username) pair, each
// subscribed to its domain's webhook broadcast subject and applying that
// user's compiled rules to every event it sees.
package worker

import (
	"context"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/engine"
	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/fyrsmithlabs/automod/internal/webhook"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer continues the span the webhook server started for this delivery
// (carried in Event.TraceParent), so a status's whole lifecycle — intake,
// signature check, rule evaluation, rspamd lookup — shares one trace_id
// even though the broadcast subject hands it off to a different goroutine.
var tracer = otel.Tracer("automod.worker")

// Worker applies one user's compiled rules to every event published on
// their domain's broadcast subject. Every worker under a domain subscribes
// independently to the same subject, so each sees a copy of every event —
// matching the original's tokio broadcast channel, where one sender fans
// out to every subscribed receiver.
type Worker struct {
	Domain   string
	Username string
	Rules    engine.CompiledRules

	Settings   *config.Settings
	Reporter   engine.Reporter
	Restricter engine.Restricter
	Logger     *logging.Logger
}

// Start subscribes the worker to its domain's broadcast subject and returns
// the subscription so the caller can unsubscribe on shutdown. Event
// handling happens on the NATS client's delivery goroutine for this
// subscription, so events for a given worker are processed strictly in the
// order they were published.
func (w *Worker) Start(b *webhook.Broadcaster) (*nats.Subscription, error) {
	return b.Subscribe(w.Domain, w.handleEvent)
}

func (w *Worker) handleEvent(ev *webhook.Event) {
	ctx := context.Background()
	if ev.TraceParent != "" {
		carrier := propagation.MapCarrier{"traceparent": ev.TraceParent}
		ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
	}
	ctx, span := tracer.Start(ctx, "HandleEvent", trace.WithAttributes(
		attribute.String("event.kind", string(ev.Kind)),
	))
	defer span.End()

	log := w.Logger.With(
		zap.String("domain", w.Domain),
		zap.String("username", w.Username),
	)

	switch ev.Kind {
	case webhook.KindStatusCreated, webhook.KindStatusUpdated:
		if ev.Status == nil {
			return
		}
		if err := engine.HandleStatus(ctx, w.Logger, w.Settings, w.Domain, w.Rules, ev.Status, w.Reporter, w.Restricter); err != nil {
			log.Error(ctx, "error handling status", zap.Error(err))
		}
	case webhook.KindReportCreated, webhook.KindReportUpdated:
		if ev.Report == nil {
			return
		}
		if err := engine.HandleReport(ctx, w.Settings, w.Domain, ev.Report); err != nil {
			log.Error(ctx, "error handling report", zap.Error(err))
		}
	default:
		log.Info(ctx, "unimplemented event type, ignoring", zap.String("kind", string(ev.Kind)))
	}
}
