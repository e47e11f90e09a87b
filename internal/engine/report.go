package engine

import (
	"sort"
	"strings"

	"github.com/fyrsmithlabs/automod/internal/config"
)

// ReportAccumulator collects the union of every matched rule's reporting
// intent across a single rule walk: which rules fired, which of the
// instance's own enforced rule IDs to cite, and whether to mark the
// filed report as spam and/or forward it to the target's home instance.
type ReportAccumulator struct {
	ruleNames map[string]struct{}
	ruleIDs   map[string]struct{}
	spam      bool
	forward   bool
}

// newReportAccumulator returns an empty accumulator.
func newReportAccumulator() *ReportAccumulator {
	return &ReportAccumulator{
		ruleNames: make(map[string]struct{}),
		ruleIDs:   make(map[string]struct{}),
	}
}

// Accumulate folds one matched rule's report spec into the accumulator:
// the rule's own name, the cited rule_ids (unioned), and the spam/forward
// flags (OR'd).
func (r *ReportAccumulator) Accumulate(ruleName string, spec *config.ReportSpec) {
	r.ruleNames[ruleName] = struct{}{}
	for _, id := range spec.RuleIDs {
		r.ruleIDs[id] = struct{}{}
	}
	r.spam = r.spam || spec.Spam
	r.forward = r.forward || spec.Forward
}

// RuleNames returns the matched rule names in sorted order.
func (r *ReportAccumulator) RuleNames() []string {
	names := make([]string, 0, len(r.ruleNames))
	for n := range r.ruleNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RuleIDs returns the cited rule IDs in sorted order.
func (r *ReportAccumulator) RuleIDs() []string {
	ids := make([]string, 0, len(r.ruleIDs))
	for id := range r.ruleIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Category is the report's classification: a non-empty rule_ids citation
// implies Violation, a bare spam flag implies Spam, and anything else
// falls back to Other.
func (r *ReportAccumulator) Category() string {
	switch {
	case len(r.ruleIDs) > 0:
		return "violation"
	case r.spam:
		return "spam"
	default:
		return "other"
	}
}

// Forward reports whether the filed report should be forwarded to the
// target account's home instance.
func (r *ReportAccumulator) Forward() bool {
	return r.forward
}

// Comment renders the report's human-readable body: the sorted list of
// rule names that matched, one per line.
func (r *ReportAccumulator) Comment() string {
	var b strings.Builder
	b.WriteString("Automod rules broken:")
	for _, name := range r.RuleNames() {
		b.WriteString("\n- ")
		b.WriteString(name)
	}
	return b.String()
}
