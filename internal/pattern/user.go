package pattern

import (
	"encoding/json"
	"strings"
)

// UserPattern matches a Mastodon account identity: its username, its home
// instance, or whether it's local to the instance handling the event.
type UserPattern struct {
	Username *StringPattern
	Instance *InstancePattern
	Local    *bool
	Any      []UserPattern
	All      []UserPattern
	Not      *UserPattern
}

func (p *UserPattern) UnmarshalJSON(data []byte) error {
	return decodeOneOf(data, map[string]func(json.RawMessage) error{
		"username": func(v json.RawMessage) error {
			p.Username = &StringPattern{}
			return json.Unmarshal(v, p.Username)
		},
		"instance": func(v json.RawMessage) error {
			p.Instance = &InstancePattern{}
			return json.Unmarshal(v, p.Instance)
		},
		"local": func(v json.RawMessage) error {
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return err
			}
			p.Local = &b
			return nil
		},
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &UserPattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

// userPatternLeaf is the leaf payload of the UserPattern intermediate
// tree — exactly one of its fields is set.
type userPatternLeaf struct {
	username *StringPattern
	instance *InstancePattern
	local    *bool
}

// Lower converts a UserPattern into the uniform intermediate representation.
func (p UserPattern) Lower() *Node[userPatternLeaf] {
	switch {
	case p.Username != nil:
		return Leaf(userPatternLeaf{username: p.Username})
	case p.Instance != nil:
		return Leaf(userPatternLeaf{instance: p.Instance})
	case p.Local != nil:
		return Leaf(userPatternLeaf{local: p.Local})
	case p.Any != nil:
		return Any(lowerUsers(p.Any)...)
	case p.All != nil:
		return All(lowerUsers(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty UserPattern")
}

func lowerUsers(ps []UserPattern) []*Node[userPatternLeaf] {
	out := make([]*Node[userPatternLeaf], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// UserMatcherInput is the account/mention identity a UserMatcher tests.
type UserMatcherInput struct {
	Username string
	// Domain is nil for a local account (no "@domain" suffix on acct).
	Domain *string
}

// NewUserMatcherInputFromAcct splits a Mastodon "acct" field
// ("username" or "username@domain") the way both Mention.Acct and
// Account.Acct are split.
func NewUserMatcherInputFromAcct(acct string) UserMatcherInput {
	parts := strings.SplitN(acct, "@", 2)
	if len(parts) == 2 {
		domain := parts[1]
		return UserMatcherInput{Username: parts[0], Domain: &domain}
	}
	return UserMatcherInput{Username: parts[0]}
}

// UserMatcher is the compiled form of a UserPattern.
type UserMatcher struct {
	inner *simpleMatcher[UserMatcherInput]
}

// Compile optimizes and compiles p into a UserMatcher.
func (p UserPattern) Compile() (*UserMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	inner, err := compileSimple(optimized, compileUserLeaf)
	if err != nil {
		return nil, err
	}
	return &UserMatcher{inner: inner}, nil
}

func compileUserLeaf(leaf userPatternLeaf) (func(UserMatcherInput) bool, error) {
	switch {
	case leaf.username != nil:
		m, err := leaf.username.Compile()
		if err != nil {
			return nil, err
		}
		return func(in UserMatcherInput) bool { return m.IsMatch(in.Username) }, nil
	case leaf.instance != nil:
		m, err := leaf.instance.Compile()
		if err != nil {
			return nil, err
		}
		return func(in UserMatcherInput) bool {
			if in.Domain == nil {
				return false
			}
			return m.IsMatch(*in.Domain)
		}, nil
	case leaf.local != nil:
		want := *leaf.local
		return func(in UserMatcherInput) bool { return want == (in.Domain == nil) }, nil
	}
	panic("pattern: empty userPatternLeaf")
}

// IsMatch reports whether in satisfies the compiled pattern.
func (m *UserMatcher) IsMatch(in UserMatcherInput) bool {
	return m.inner.IsMatch(in)
}
