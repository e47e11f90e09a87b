// Package telemetry provides OpenTelemetry tracing for automod.
//
// # Overview
//
// automod has no metrics/trace collector to push to: request-rate and
// rule-match counters are served directly via prometheus/client_golang on
// GET /metrics (see internal/webhook). This package's TracerProvider exists
// only to stamp trace_id/span_id onto context so a single webhook
// delivery's log lines — across signature verification, the rule engine,
// and the rspamd adapter — can be correlated (internal/logging.ContextFields
// reads them back out).
//
// # Usage
//
//	cfg := telemetry.NewDefaultConfig()
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
//	tracer := tel.Tracer("automod.webhook")
//	ctx, span := tracer.Start(ctx, "HandleStatus")
//	defer span.End()
//
// # Error Handling
//
// Telemetry failures do not crash the application. If the tracer provider
// cannot be initialized, the instance degrades gracefully and returns
// no-op tracers.
//
// # Testing
//
// Use TestTelemetry for tests:
//
//	tt := telemetry.NewTestTelemetry()
//	tracer := tt.Tracer("test")
//	_, span := tracer.Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
