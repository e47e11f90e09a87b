package engine

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/logging"
	"go.uber.org/zap"
)

// AddReportRequest is the content of a report the rule engine files
// against a status.
type AddReportRequest struct {
	AccountID string
	StatusIDs []string
	Comment   string
	Category  string
	RuleIDs   []string
	Forward   bool
}

// Reporter files a moderation report. Production deployments inject a
// real Mastodon admin API client; automod ships only the interface plus
// LogReporter for local testing and dry-run operation, per spec.md's
// non-goal of not shipping a REST client.
type Reporter interface {
	AddReport(ctx context.Context, req AddReportRequest) (reportID string, err error)
}

// AccountAction is the admin action taken against an account, 1:1 with
// config.Restriction.
type AccountAction string

const (
	ActionSensitive AccountAction = "sensitive"
	ActionDisable   AccountAction = "disable"
	ActionSilence   AccountAction = "silence"
	ActionSuspend   AccountAction = "suspend"
)

// PerformAccountActionRequest is the admin action the rule engine applies
// to a restricted account.
type PerformAccountActionRequest struct {
	AccountID string
	Action    AccountAction
	// ReportID, when non-empty, links the action to the report that
	// justified it for audit purposes.
	ReportID string
}

// Restricter applies an account-level admin action. See Reporter for why
// this is an interface rather than a concrete client.
type Restricter interface {
	PerformAccountAction(ctx context.Context, req PerformAccountActionRequest) error
}

// restrictionToAction maps a configured Restriction onto the admin action
// type 1:1.
func restrictionToAction(r config.Restriction) AccountAction {
	switch r {
	case config.RestrictionSensitive:
		return ActionSensitive
	case config.RestrictionDisable:
		return ActionDisable
	case config.RestrictionSilence:
		return ActionSilence
	case config.RestrictionSuspend:
		return ActionSuspend
	default:
		return ActionSensitive
	}
}

// LogReporter is a Reporter that only logs; it never contacts a real
// Mastodon instance. Suitable for local testing and dry-run deployments
// where no admin API credentials are configured.
type LogReporter struct {
	Logger *logging.Logger
}

func (r *LogReporter) AddReport(ctx context.Context, req AddReportRequest) (string, error) {
	r.Logger.Audit(ctx, "would file report (dry run)",
		zap.String("account_id", req.AccountID),
		zap.Strings("status_ids", req.StatusIDs),
		zap.String("category", req.Category),
		zap.Bool("forward", req.Forward),
	)
	return fmt.Sprintf("dryrun-%s", req.AccountID), nil
}

// LogRestricter is a Restricter that only logs.
type LogRestricter struct {
	Logger *logging.Logger
}

func (r *LogRestricter) PerformAccountAction(ctx context.Context, req PerformAccountActionRequest) error {
	r.Logger.Audit(ctx, "would perform account action (dry run)",
		zap.String("account_id", req.AccountID),
		zap.String("action", string(req.Action)),
		zap.String("report_id", req.ReportID),
	)
	return nil
}
