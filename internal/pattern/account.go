package pattern

import "encoding/json"

// AccountPattern matches a Mastodon account: its identity or its bio text.
type AccountPattern struct {
	User *UserPattern
	Text *TextPattern
	Any  []AccountPattern
	All  []AccountPattern
	Not  *AccountPattern
}

func (p *AccountPattern) UnmarshalJSON(data []byte) error {
	return decodeOneOf(data, map[string]func(json.RawMessage) error{
		"user": func(v json.RawMessage) error {
			p.User = &UserPattern{}
			return json.Unmarshal(v, p.User)
		},
		"text": func(v json.RawMessage) error {
			p.Text = &TextPattern{}
			return json.Unmarshal(v, p.Text)
		},
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &AccountPattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

type accountPatternLeaf struct {
	user *UserPattern
	text *TextPattern
}

// Lower converts an AccountPattern into the uniform intermediate representation.
func (p AccountPattern) Lower() *Node[accountPatternLeaf] {
	switch {
	case p.User != nil:
		return Leaf(accountPatternLeaf{user: p.User})
	case p.Text != nil:
		return Leaf(accountPatternLeaf{text: p.Text})
	case p.Any != nil:
		return Any(lowerAccounts(p.Any)...)
	case p.All != nil:
		return All(lowerAccounts(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty AccountPattern")
}

func lowerAccounts(ps []AccountPattern) []*Node[accountPatternLeaf] {
	out := make([]*Node[accountPatternLeaf], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// AccountMatcherInput is an account's identity and extracted bio text.
type AccountMatcherInput struct {
	User UserMatcherInput
	Text TextMatcherInput
}

// AccountMatcher is the compiled form of an AccountPattern.
type AccountMatcher struct {
	inner *simpleMatcher[AccountMatcherInput]
}

// Compile optimizes and compiles p into an AccountMatcher.
func (p AccountPattern) Compile() (*AccountMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	inner, err := compileSimple(optimized, compileAccountLeaf)
	if err != nil {
		return nil, err
	}
	return &AccountMatcher{inner: inner}, nil
}

func compileAccountLeaf(leaf accountPatternLeaf) (func(AccountMatcherInput) bool, error) {
	switch {
	case leaf.user != nil:
		m, err := leaf.user.Compile()
		if err != nil {
			return nil, err
		}
		return func(in AccountMatcherInput) bool { return m.IsMatch(in.User) }, nil
	case leaf.text != nil:
		m, err := leaf.text.Compile()
		if err != nil {
			return nil, err
		}
		return func(in AccountMatcherInput) bool { return m.IsMatch(in.Text) }, nil
	}
	panic("pattern: empty accountPatternLeaf")
}

// IsMatch reports whether in satisfies the compiled pattern.
func (m *AccountMatcher) IsMatch(in AccountMatcherInput) bool {
	return m.inner.IsMatch(in)
}
