// Package engine evaluates a user's configured rules against incoming
// posts and drives the resulting report/restrict actions.
package engine

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/automod/internal/config"
	"github.com/fyrsmithlabs/automod/internal/extract"
	"github.com/fyrsmithlabs/automod/internal/logging"
	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/mimeify"
	"github.com/fyrsmithlabs/automod/internal/pattern"
	"github.com/fyrsmithlabs/automod/internal/rspamd"
	"go.uber.org/zap"
)

// CompiledRule is one rule.Patterns list compiled into independent
// matchers: the list is OR'd as separately compiled RuleMatchers rather
// than folded into a single Any node, so a match still identifies exactly
// which rule (by name) fired for reporting.
type CompiledRule struct {
	Name     string
	Matchers []*pattern.RuleMatcher
	Report   *config.ReportSpec
	Restrict *config.Restriction
}

// matches reports whether any of the rule's patterns matches in.
func (r *CompiledRule) matches(in pattern.RuleMatcherInput) bool {
	for _, m := range r.Matchers {
		if m.IsMatch(in) {
			return true
		}
	}
	return false
}

// CompiledRules is a user's rule set, compiled once and reused across
// every event that user's worker processes.
type CompiledRules []CompiledRule

// Compile compiles every rule in cfg, in file order. Compile failures
// name the offending rule.
func Compile(cfg *config.Config) (CompiledRules, error) {
	rules := make(CompiledRules, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		matchers := make([]*pattern.RuleMatcher, 0, len(rule.Patterns))
		for _, p := range rule.Patterns {
			m, err := p.Compile()
			if err != nil {
				return nil, fmt.Errorf("engine: compile rule %q: %w", rule.Name, err)
			}
			matchers = append(matchers, m)
		}
		rules = append(rules, CompiledRule{
			Name:     rule.Name,
			Matchers: matchers,
			Report:   rule.Report,
			Restrict: rule.Restrict,
		})
	}
	return rules, nil
}

// Decision is the outcome of walking a rule set against one input: the
// accumulated report, if any rule matched with a report spec, and the
// highest restriction level seen, if any rule matched with one.
type Decision struct {
	Report   *ReportAccumulator
	Restrict *config.Restriction
}

// Evaluate walks rules in order and accumulates the report/restrict
// effects of every matching rule. Later rules with a higher restriction
// level than an earlier match win (Sensitive < Disable < Silence <
// Suspend).
func Evaluate(rules CompiledRules, in pattern.RuleMatcherInput) *Decision {
	d := &Decision{}
	for _, rule := range rules {
		if !rule.matches(in) {
			continue
		}
		if rule.Report != nil {
			if d.Report == nil {
				d.Report = newReportAccumulator()
			}
			d.Report.Accumulate(rule.Name, rule.Report)
		}
		if rule.Restrict != nil {
			if d.Restrict == nil || *rule.Restrict > *d.Restrict {
				level := *rule.Restrict
				d.Restrict = &level
			}
		}
	}
	return d
}

// HandleStatus builds a RuleMatcherInput from status (running it through
// rspamd first if configured), evaluates rules against it, and files a
// report and/or restricts the account as decided. Report submission
// failure is logged but does not prevent restriction; restriction
// failure is propagated, matching the original implementation's error
// handling.
func HandleStatus(
	ctx context.Context,
	logger *logging.Logger,
	settings *config.Settings,
	domain string,
	rules CompiledRules,
	status *mastodon.Status,
	reporter Reporter,
	restricter Restricter,
) error {
	post, err := extract.StatusMatcherInput(status)
	if err != nil {
		return fmt.Errorf("engine: extract post: %w", err)
	}
	account, err := extract.AccountMatcherInput(&status.Account)
	if err != nil {
		return fmt.Errorf("engine: extract account: %w", err)
	}

	in := pattern.RuleMatcherInput{Account: account, Post: post}

	if len(settings.RspamcCommand) > 0 {
		mimeBytes := mimeify.StatusToMIME(domain, status)
		action, err := rspamd.Scan(ctx, settings, mimeBytes)
		if err != nil {
			return fmt.Errorf("engine: rspamd scan: %w", err)
		}
		in.Rspamd = action
	}

	decision := Evaluate(rules, in)

	var reportID string
	if decision.Report != nil {
		id, err := reporter.AddReport(ctx, AddReportRequest{
			AccountID: status.Account.ID,
			StatusIDs: []string{status.ID},
			Comment:   decision.Report.Comment(),
			Category:  decision.Report.Category(),
			RuleIDs:   decision.Report.RuleIDs(),
			Forward:   decision.Report.Forward(),
		})
		if err != nil {
			logger.Error(ctx, "couldn't create report for status",
				zap.String("status_id", status.ID),
				zap.Error(err),
			)
		} else {
			reportID = id
		}
	}

	if decision.Restrict != nil {
		if err := restricter.PerformAccountAction(ctx, PerformAccountActionRequest{
			AccountID: status.Account.ID,
			Action:    restrictionToAction(*decision.Restrict),
			ReportID:  reportID,
		}); err != nil {
			return fmt.Errorf("engine: perform account action: %w", err)
		}
	}

	return nil
}
