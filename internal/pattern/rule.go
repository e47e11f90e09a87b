package pattern

import "encoding/json"

// RulePattern is the top-level pattern a moderation rule is built from: it
// tests an account, a post, or the spam-filter verdict attached to a post.
type RulePattern struct {
	Account *AccountPattern
	Post    *PostPattern
	Rspamd  *string
	Any     []RulePattern
	All     []RulePattern
	Not     *RulePattern
}

func (p *RulePattern) UnmarshalJSON(data []byte) error {
	return decodeOneOf(data, map[string]func(json.RawMessage) error{
		"account": func(v json.RawMessage) error {
			p.Account = &AccountPattern{}
			return json.Unmarshal(v, p.Account)
		},
		"post": func(v json.RawMessage) error {
			p.Post = &PostPattern{}
			return json.Unmarshal(v, p.Post)
		},
		"rspamd": func(v json.RawMessage) error {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.Rspamd = &s
			return nil
		},
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &RulePattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

type rulePatternLeaf struct {
	account *AccountPattern
	post    *PostPattern
	rspamd  *string
}

// Lower converts a RulePattern into the uniform intermediate representation.
func (p RulePattern) Lower() *Node[rulePatternLeaf] {
	switch {
	case p.Account != nil:
		return Leaf(rulePatternLeaf{account: p.Account})
	case p.Post != nil:
		return Leaf(rulePatternLeaf{post: p.Post})
	case p.Rspamd != nil:
		return Leaf(rulePatternLeaf{rspamd: p.Rspamd})
	case p.Any != nil:
		return Any(lowerRules(p.Any)...)
	case p.All != nil:
		return All(lowerRules(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty RulePattern")
}

func lowerRules(ps []RulePattern) []*Node[rulePatternLeaf] {
	out := make([]*Node[rulePatternLeaf], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// RuleMatcherInput is everything a RuleMatcher can test: the account and
// post involved in the event, plus the spam filter's verdict (action
// string) for the post, if rspamd is configured and has been run.
type RuleMatcherInput struct {
	Account AccountMatcherInput
	Post    PostMatcherInput
	Rspamd  *string
}

// RuleMatcher is the compiled form of a RulePattern.
type RuleMatcher struct {
	inner *simpleMatcher[RuleMatcherInput]
}

// Compile optimizes and compiles p into a RuleMatcher.
func (p RulePattern) Compile() (*RuleMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	inner, err := compileSimple(optimized, compileRuleLeaf)
	if err != nil {
		return nil, err
	}
	return &RuleMatcher{inner: inner}, nil
}

func compileRuleLeaf(leaf rulePatternLeaf) (func(RuleMatcherInput) bool, error) {
	switch {
	case leaf.account != nil:
		m, err := leaf.account.Compile()
		if err != nil {
			return nil, err
		}
		return func(in RuleMatcherInput) bool { return m.IsMatch(in.Account) }, nil
	case leaf.post != nil:
		m, err := leaf.post.Compile()
		if err != nil {
			return nil, err
		}
		return func(in RuleMatcherInput) bool { return m.IsMatch(in.Post) }, nil
	case leaf.rspamd != nil:
		action := *leaf.rspamd
		return func(in RuleMatcherInput) bool {
			return in.Rspamd != nil && *in.Rspamd == action
		}, nil
	}
	panic("pattern: empty rulePatternLeaf")
}

// IsMatch reports whether in satisfies the compiled pattern.
func (m *RuleMatcher) IsMatch(in RuleMatcherInput) bool {
	return m.inner.IsMatch(in)
}
