package pattern

import "encoding/json"

// InstancePattern matches a federated instance's domain name. It shares
// StringPattern's leaf representation (plain regex text) but additionally
// supports a Domain leaf, desugared the same way LinkPattern's Domain
// leaf is: a suffix-anchored, case-insensitive match so subdomains of the
// named instance match too.
type InstancePattern struct {
	Word   *string
	Regex  *string
	Domain *string
	Any    []InstancePattern
	All    []InstancePattern
	Not    *InstancePattern
}

func (p *InstancePattern) UnmarshalJSON(data []byte) error {
	return decodeOneOf(data, map[string]func(json.RawMessage) error{
		"word": func(v json.RawMessage) error {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.Word = &s
			return nil
		},
		"regex": func(v json.RawMessage) error {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.Regex = &s
			return nil
		},
		"domain": func(v json.RawMessage) error {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.Domain = &s
			return nil
		},
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &InstancePattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

// Lower converts an InstancePattern into the uniform intermediate
// representation, desugaring Word and Domain leaves to regex form.
func (p InstancePattern) Lower() *Node[string] {
	switch {
	case p.Word != nil:
		return Leaf(WordRegex(*p.Word))
	case p.Regex != nil:
		return Leaf(*p.Regex)
	case p.Domain != nil:
		return Leaf(DomainRegex(*p.Domain))
	case p.Any != nil:
		return Any(lowerInstances(p.Any)...)
	case p.All != nil:
		return All(lowerInstances(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty InstancePattern")
}

func lowerInstances(ps []InstancePattern) []*Node[string] {
	out := make([]*Node[string], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// InstanceMatcher is the compiled form of an InstancePattern. It reuses
// the same compiled representation as StringMatcher — the extra Domain
// leaf only affects lowering, not the compiled matcher shape.
type InstanceMatcher struct {
	inner *regexMatcher
}

// Compile optimizes and compiles p into an InstanceMatcher.
func (p InstancePattern) Compile() (*InstanceMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	inner, err := compileRegexMatcher(optimized)
	if err != nil {
		return nil, err
	}
	return &InstanceMatcher{inner: inner}, nil
}

// IsMatch reports whether domain satisfies the compiled pattern.
func (m *InstanceMatcher) IsMatch(domain string) bool {
	return m.inner.IsMatch(domain)
}
