package pattern

import "encoding/json"

// PostPattern matches a Mastodon status (post) by its extracted text.
type PostPattern struct {
	Text *TextPattern
	Any  []PostPattern
	All  []PostPattern
	Not  *PostPattern
}

func (p *PostPattern) UnmarshalJSON(data []byte) error {
	return decodeOneOf(data, map[string]func(json.RawMessage) error{
		"text": func(v json.RawMessage) error {
			p.Text = &TextPattern{}
			return json.Unmarshal(v, p.Text)
		},
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &PostPattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

type postPatternLeaf struct {
	text *TextPattern
}

// Lower converts a PostPattern into the uniform intermediate representation.
func (p PostPattern) Lower() *Node[postPatternLeaf] {
	switch {
	case p.Text != nil:
		return Leaf(postPatternLeaf{text: p.Text})
	case p.Any != nil:
		return Any(lowerPosts(p.Any)...)
	case p.All != nil:
		return All(lowerPosts(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty PostPattern")
}

func lowerPosts(ps []PostPattern) []*Node[postPatternLeaf] {
	out := make([]*Node[postPatternLeaf], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// PostMatcherInput is a post's extracted text.
type PostMatcherInput struct {
	Text TextMatcherInput
}

// PostMatcher is the compiled form of a PostPattern.
type PostMatcher struct {
	inner *simpleMatcher[PostMatcherInput]
}

// Compile optimizes and compiles p into a PostMatcher.
func (p PostPattern) Compile() (*PostMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	inner, err := compileSimple(optimized, compilePostLeaf)
	if err != nil {
		return nil, err
	}
	return &PostMatcher{inner: inner}, nil
}

func compilePostLeaf(leaf postPatternLeaf) (func(PostMatcherInput) bool, error) {
	m, err := leaf.text.Compile()
	if err != nil {
		return nil, err
	}
	return func(in PostMatcherInput) bool { return m.IsMatch(in.Text) }, nil
}

// IsMatch reports whether in satisfies the compiled pattern.
func (m *PostMatcher) IsMatch(in PostMatcherInput) bool {
	return m.inner.IsMatch(in)
}
