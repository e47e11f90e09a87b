package worker

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/engine"
	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/pattern"
	"github.com/fyrsmithlabs/automod/internal/telemetry"
	"github.com/fyrsmithlabs/automod/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func testStatusEvent() *webhook.Event {
	return &webhook.Event{
		Kind: webhook.KindStatusCreated,
		Status: &mastodon.Status{
			ID:      "1",
			Content: "<p>buy my casino tokens</p>",
			Account: mastodon.Account{ID: "acct-1", Username: "alice", Acct: "alice"},
		},
	}
}

func wordRules(t *testing.T, word string, report *config.ReportSpec, restrict *config.Restriction) engine.CompiledRules {
	t.Helper()
	w := word
	cfg := &config.Config{
		Rules: []config.Rule{{
			Name:     "word-rule",
			Report:   report,
			Restrict: restrict,
			Patterns: []pattern.RulePattern{{Post: &pattern.PostPattern{Text: &pattern.TextPattern{Word: &w}}}},
		}},
	}
	rules, err := engine.Compile(cfg)
	require.NoError(t, err)
	return rules
}

type fakeReporter struct {
	reportID string
	calls    chan engine.AddReportRequest
}

func (f *fakeReporter) AddReport(ctx context.Context, req engine.AddReportRequest) (string, error) {
	f.calls <- req
	return f.reportID, nil
}

type fakeRestricter struct {
	calls chan engine.PerformAccountActionRequest
}

func (f *fakeRestricter) PerformAccountAction(ctx context.Context, req engine.PerformAccountActionRequest) error {
	f.calls <- req
	return nil
}

func newTestBroadcaster(t *testing.T) *webhook.Broadcaster {
	t.Helper()
	logger := logging.NewTestLogger()
	b, err := webhook.NewBroadcaster(logger.Logger, webhook.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestWorker_StatusEventMatchingRuleFilesReportAndRestricts(t *testing.T) {
	suspend := config.RestrictionSuspend
	rules := wordRules(t, "casino", &config.ReportSpec{Spam: true}, &suspend)

	reporter := &fakeReporter{reportID: "report-1", calls: make(chan engine.AddReportRequest, 1)}
	restricter := &fakeRestricter{calls: make(chan engine.PerformAccountActionRequest, 1)}

	b := newTestBroadcaster(t)
	w := &Worker{
		Domain:     "example.social",
		Username:   "alice",
		Rules:      rules,
		Settings:   &config.Settings{Listen: []string{":8080"}},
		Reporter:   reporter,
		Restricter: restricter,
		Logger:     logging.NewTestLogger().Logger,
	}
	sub, err := w.Start(b)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, b.Publish("example.social", testStatusEvent()))

	select {
	case req := <-reporter.calls:
		assert.Equal(t, "acct-1", req.AccountID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for report")
	}

	select {
	case req := <-restricter.calls:
		assert.Equal(t, engine.ActionSuspend, req.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for restriction")
	}
}

func TestWorker_NonMatchingStatusDoesNothing(t *testing.T) {
	rules := wordRules(t, "nonsense-word", &config.ReportSpec{Spam: true}, nil)

	reporter := &fakeReporter{calls: make(chan engine.AddReportRequest, 1)}
	restricter := &fakeRestricter{calls: make(chan engine.PerformAccountActionRequest, 1)}

	b := newTestBroadcaster(t)
	w := &Worker{
		Domain:     "example.social",
		Username:   "alice",
		Rules:      rules,
		Settings:   &config.Settings{Listen: []string{":8080"}},
		Reporter:   reporter,
		Restricter: restricter,
		Logger:     logging.NewTestLogger().Logger,
	}
	sub, err := w.Start(b)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, b.Publish("example.social", testStatusEvent()))

	select {
	case <-reporter.calls:
		t.Fatal("unexpected report")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestWorker_HandleEvent_ContinuesTraceParent confirms an event carrying a
// TraceParent (as the webhook server stamps one before publishing) makes
// handleEvent's span a child of that same trace, rather than starting an
// unrelated one — the correlation internal/telemetry's doc comment promises
// across the webhook-intake/rule-engine boundary.
func TestWorker_HandleEvent_ContinuesTraceParent(t *testing.T) {
	prevProp := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevProp) })

	tt := telemetry.NewTestTelemetry()
	prevTracer := tracer
	tracer = tt.Tracer("automod.worker")
	t.Cleanup(func() { tracer = prevTracer })

	parentCtx, parentSpan := tt.Tracer("automod.webhook").Start(context.Background(), "HandleWebhook")
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(parentCtx, carrier)
	parentSpanContext := trace.SpanContextFromContext(parentCtx)
	parentSpan.End()

	rules := wordRules(t, "casino", &config.ReportSpec{Spam: true}, nil)
	reporter := &fakeReporter{calls: make(chan engine.AddReportRequest, 1)}
	restricter := &fakeRestricter{calls: make(chan engine.PerformAccountActionRequest, 1)}
	w := &Worker{
		Domain:     "example.social",
		Username:   "alice",
		Rules:      rules,
		Settings:   &config.Settings{Listen: []string{":8080"}},
		Reporter:   reporter,
		Restricter: restricter,
		Logger:     logging.NewTestLogger().Logger,
	}

	ev := testStatusEvent()
	ev.TraceParent = carrier.Get("traceparent")
	w.handleEvent(ev)

	select {
	case <-reporter.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for report")
	}

	var child trace.ReadOnlySpan
	for _, span := range tt.Spans() {
		if span.Name() == "HandleEvent" {
			child = span
		}
	}
	require.NotNil(t, child, "HandleEvent span was not recorded")
	assert.Equal(t, parentSpanContext.TraceID(), child.SpanContext().TraceID())
	assert.Equal(t, parentSpanContext.SpanID(), child.Parent().SpanID())
}

func TestWorker_UnrecognizedEventIsIgnored(t *testing.T) {
	rules := wordRules(t, "casino", &config.ReportSpec{Spam: true}, nil)

	reporter := &fakeReporter{calls: make(chan engine.AddReportRequest, 1)}
	restricter := &fakeRestricter{calls: make(chan engine.PerformAccountActionRequest, 1)}

	b := newTestBroadcaster(t)
	w := &Worker{
		Domain:     "example.social",
		Username:   "alice",
		Rules:      rules,
		Settings:   &config.Settings{Listen: []string{":8080"}},
		Reporter:   reporter,
		Restricter: restricter,
		Logger:     logging.NewTestLogger().Logger,
	}
	sub, err := w.Start(b)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, b.Publish("example.social", &webhook.Event{Kind: webhook.KindAccountCreated}))

	select {
	case <-reporter.calls:
		t.Fatal("unexpected report")
	case <-time.After(200 * time.Millisecond):
	}
}
