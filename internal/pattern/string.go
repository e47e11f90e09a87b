package pattern

import "encoding/json"

// StringPattern matches a plain string (a username, a hashtag, ...).
// Exactly one field is set, mirroring the untagged, single-key-object
// wire format used throughout the pattern language.
type StringPattern struct {
	Word  *string
	Regex *string
	Any   []StringPattern
	All   []StringPattern
	Not   *StringPattern
}

func (p *StringPattern) UnmarshalJSON(data []byte) error {
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
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &StringPattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

// Lower converts a StringPattern into the uniform intermediate
// representation, desugaring Word leaves to their regex form.
func (p StringPattern) Lower() *Node[string] {
	switch {
	case p.Word != nil:
		return Leaf(WordRegex(*p.Word))
	case p.Regex != nil:
		return Leaf(*p.Regex)
	case p.Any != nil:
		return Any(lowerStrings(p.Any)...)
	case p.All != nil:
		return All(lowerStrings(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty StringPattern")
}

func lowerStrings(ps []StringPattern) []*Node[string] {
	out := make([]*Node[string], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// StringMatcher is the compiled form of a StringPattern.
type StringMatcher struct {
	inner *regexMatcher
}

// Compile optimizes and compiles p into a StringMatcher.
func (p StringPattern) Compile() (*StringMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	inner, err := compileRegexMatcher(optimized)
	if err != nil {
		return nil, err
	}
	return &StringMatcher{inner: inner}, nil
}

// IsMatch reports whether s satisfies the compiled pattern.
func (m *StringMatcher) IsMatch(s string) bool {
	return m.inner.IsMatch(s)
}
