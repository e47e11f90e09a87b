package extract

import (
	"github.com/fyrsmithlabs/automod/internal/mastodon"
	"github.com/fyrsmithlabs/automod/internal/pattern"
)

// RuleMatcherInputFromStatus builds the RuleMatcherInput the rule engine
// evaluates a newly created/updated status against. Rspamd is left nil —
// the caller fills it in after running the spam filter, if configured.
func RuleMatcherInputFromStatus(s *mastodon.Status) (pattern.RuleMatcherInput, error) {
	account, err := AccountMatcherInput(&s.Account)
	if err != nil {
		return pattern.RuleMatcherInput{}, err
	}
	post, err := StatusMatcherInput(s)
	if err != nil {
		return pattern.RuleMatcherInput{}, err
	}
	return pattern.RuleMatcherInput{Account: account, Post: post}, nil
}
