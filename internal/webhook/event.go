package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/automod/internal/mastodon"
)

// EventKind names one of the webhook event types this service understands.
// Any other value decodes to KindUnknown and is dropped by the handler.
type EventKind string

const (
	KindAccountApproved EventKind = "account.approved"
	KindAccountCreated  EventKind = "account.created"
	KindAccountUpdated  EventKind = "account.updated"
	KindReportCreated   EventKind = "report.created"
	KindReportUpdated   EventKind = "report.updated"
	KindStatusCreated   EventKind = "status.created"
	KindStatusUpdated   EventKind = "status.updated"
	KindUnknown         EventKind = ""
)

// Event is one webhook delivery: a discriminated union over the kinds a
// Mastodon instance can push. Exactly one of Account/Report/Status is set,
// matching the payload named by Kind; neither is set for KindUnknown.
type Event struct {
	Kind      EventKind         `json:"kind"`
	CreatedAt time.Time         `json:"created_at"`
	Account   *mastodon.Account `json:"account,omitempty"`
	Report    *mastodon.Report  `json:"report,omitempty"`
	Status    *mastodon.Status  `json:"status,omitempty"`

	// TraceParent carries the W3C traceparent of the span that verified
	// and decoded this delivery, so a worker goroutine picking it up off
	// the broadcast subject — possibly on a different domain's worker,
	// well after the HTTP request has returned — can continue the same
	// trace instead of starting an unrelated one.
	TraceParent string `json:"trace_parent,omitempty"`
}

type eventEnvelope struct {
	Event     string          `json:"event"`
	CreatedAt time.Time       `json:"created_at"`
	Object    json.RawMessage `json:"object"`
}

// DecodeEvent decodes a webhook delivery body into an Event. An
// unrecognized "event" value decodes successfully to KindUnknown rather
// than erroring, matching the original implementation's #[serde(other)]
// catch-all — Mastodon instances add new webhook event types over time and
// a forward-compatible receiver should ignore, not reject, them.
func DecodeEvent(body []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("webhook: decode event envelope: %w", err)
	}

	ev := &Event{Kind: EventKind(env.Event), CreatedAt: env.CreatedAt}

	switch ev.Kind {
	case KindAccountApproved, KindAccountCreated, KindAccountUpdated:
		var account mastodon.Account
		if err := json.Unmarshal(env.Object, &account); err != nil {
			return nil, fmt.Errorf("webhook: decode %s object: %w", ev.Kind, err)
		}
		ev.Account = &account
	case KindReportCreated, KindReportUpdated:
		var report mastodon.Report
		if err := json.Unmarshal(env.Object, &report); err != nil {
			return nil, fmt.Errorf("webhook: decode %s object: %w", ev.Kind, err)
		}
		ev.Report = &report
	case KindStatusCreated, KindStatusUpdated:
		var status mastodon.Status
		if err := json.Unmarshal(env.Object, &status); err != nil {
			return nil, fmt.Errorf("webhook: decode %s object: %w", ev.Kind, err)
		}
		ev.Status = &status
	default:
		ev.Kind = KindUnknown
	}

	return ev, nil
}
