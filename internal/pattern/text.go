package pattern

import (
	"encoding/json"
	"net/url"
)

// TextPattern matches the extracted text, links, mentions, and hashtags of
// a post or account bio.
type TextPattern struct {
	Word    *string
	Regex   *string
	Link    *LinkPattern
	Mention *UserPattern
	Hashtag *StringPattern
	Any     []TextPattern
	All     []TextPattern
	Not     *TextPattern
}

func (p *TextPattern) UnmarshalJSON(data []byte) error {
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
		"link": func(v json.RawMessage) error {
			p.Link = &LinkPattern{}
			return json.Unmarshal(v, p.Link)
		},
		"mention": func(v json.RawMessage) error {
			p.Mention = &UserPattern{}
			return json.Unmarshal(v, p.Mention)
		},
		"hashtag": func(v json.RawMessage) error {
			p.Hashtag = &StringPattern{}
			return json.Unmarshal(v, p.Hashtag)
		},
		"any": func(v json.RawMessage) error { return json.Unmarshal(v, &p.Any) },
		"all": func(v json.RawMessage) error { return json.Unmarshal(v, &p.All) },
		"not": func(v json.RawMessage) error {
			child := &TextPattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

type textLeafKind int

const (
	textLeafRegex textLeafKind = iota
	textLeafLink
	textLeafMention
	textLeafHashtag
)

// textPatternLeaf is the leaf payload of the TextPattern intermediate
// tree. Only Regex leaves fuse into a regex set; Link/Mention/Hashtag
// leaves compile to their own sub-matcher and never fuse with siblings.
type textPatternLeaf struct {
	kind    textLeafKind
	regex   string
	link    *LinkPattern
	mention *UserPattern
	hashtag *StringPattern
}

// Lower converts a TextPattern into the uniform intermediate representation.
func (p TextPattern) Lower() *Node[textPatternLeaf] {
	switch {
	case p.Word != nil:
		return Leaf(textPatternLeaf{kind: textLeafRegex, regex: WordRegex(*p.Word)})
	case p.Regex != nil:
		return Leaf(textPatternLeaf{kind: textLeafRegex, regex: *p.Regex})
	case p.Link != nil:
		return Leaf(textPatternLeaf{kind: textLeafLink, link: p.Link})
	case p.Mention != nil:
		return Leaf(textPatternLeaf{kind: textLeafMention, mention: p.Mention})
	case p.Hashtag != nil:
		return Leaf(textPatternLeaf{kind: textLeafHashtag, hashtag: p.Hashtag})
	case p.Any != nil:
		return Any(lowerTexts(p.Any)...)
	case p.All != nil:
		return All(lowerTexts(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty TextPattern")
}

func lowerTexts(ps []TextPattern) []*Node[textPatternLeaf] {
	out := make([]*Node[textPatternLeaf], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// TextMatcherInput is everything extracted from a post or account bio that
// a TextPattern can be tested against.
type TextMatcherInput struct {
	Text     string
	Links    []*url.URL
	Mentions []UserMatcherInput
	Hashtags []string
}

// ExtendText appends a separating space then s, so fields extracted in
// sequence (spoiler text, media descriptions, poll options, ...) don't
// fuse words across a boundary.
func (in *TextMatcherInput) ExtendText(s string) {
	in.Text += " " + s
}

// Merge unions another TextMatcherInput's fields into in.
func (in *TextMatcherInput) Merge(other TextMatcherInput) {
	in.ExtendText(other.Text)
	in.Links = append(in.Links, other.Links...)
	in.Mentions = append(in.Mentions, other.Mentions...)
	in.Hashtags = append(in.Hashtags, other.Hashtags...)
}

// textMatcherKind is the compiled matcher's shape.
type textMatcherKind int

const (
	tmAnyRegexes textMatcherKind = iota
	tmAllRegexes
	tmLink
	tmMention
	tmHashtag
	tmAny
	tmAll
	tmNot
)

// TextMatcher is the compiled form of a TextPattern.
type TextMatcher struct {
	kind        textMatcherKind
	regexes     *regexSet
	link        *LinkMatcher
	mention     *UserMatcher
	hashtag     *StringMatcher
	anyChildren []*TextMatcher
	allChildren []*TextMatcher
	not         *TextMatcher
}

// Compile optimizes and compiles p into a TextMatcher.
func (p TextPattern) Compile() (*TextMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	return compileTextMatcher(optimized)
}

func compileTextMatcher(n *Node[textPatternLeaf]) (*TextMatcher, error) {
	switch n.Kind {
	case KindLeaf:
		return compileTextLeaf(n.Leaf)

	case KindNot:
		child, err := compileTextMatcher(n.Child)
		if err != nil {
			return nil, err
		}
		return &TextMatcher{kind: tmNot, not: child}, nil

	case KindAny, KindAll:
		if patterns, ok := allTextRegexLeaves(n.Children); ok {
			rs, err := newRegexSet(patterns)
			if err != nil {
				return nil, err
			}
			if n.Kind == KindAny {
				return &TextMatcher{kind: tmAnyRegexes, regexes: rs}, nil
			}
			return &TextMatcher{kind: tmAllRegexes, regexes: rs}, nil
		}

		children := make([]*TextMatcher, 0, len(n.Children))
		for _, c := range n.Children {
			cm, err := compileTextMatcher(c)
			if err != nil {
				return nil, err
			}
			children = append(children, cm)
		}
		if n.Kind == KindAny {
			return &TextMatcher{kind: tmAny, anyChildren: children}, nil
		}
		return &TextMatcher{kind: tmAll, allChildren: children}, nil
	}
	panic("pattern: unreachable node kind")
}

func compileTextLeaf(leaf textPatternLeaf) (*TextMatcher, error) {
	switch leaf.kind {
	case textLeafRegex:
		rs, err := newRegexSet([]string{leaf.regex})
		if err != nil {
			return nil, err
		}
		return &TextMatcher{kind: tmAnyRegexes, regexes: rs}, nil
	case textLeafLink:
		m, err := leaf.link.Compile()
		if err != nil {
			return nil, err
		}
		return &TextMatcher{kind: tmLink, link: m}, nil
	case textLeafMention:
		m, err := leaf.mention.Compile()
		if err != nil {
			return nil, err
		}
		return &TextMatcher{kind: tmMention, mention: m}, nil
	case textLeafHashtag:
		m, err := leaf.hashtag.Compile()
		if err != nil {
			return nil, err
		}
		return &TextMatcher{kind: tmHashtag, hashtag: m}, nil
	}
	panic("pattern: unreachable text leaf kind")
}

func allTextRegexLeaves(children []*Node[textPatternLeaf]) ([]string, bool) {
	patterns := make([]string, 0, len(children))
	for _, c := range children {
		if c.Kind != KindLeaf || c.Leaf.kind != textLeafRegex {
			return nil, false
		}
		patterns = append(patterns, c.Leaf.regex)
	}
	return patterns, true
}

// IsMatch reports whether in satisfies the compiled pattern.
func (m *TextMatcher) IsMatch(in TextMatcherInput) bool {
	switch m.kind {
	case tmAnyRegexes:
		return m.regexes.isMatch(in.Text)
	case tmAllRegexes:
		return m.regexes.matchCount(in.Text) == m.regexes.len()
	case tmLink:
		for _, l := range in.Links {
			if m.link.IsMatch(l) {
				return true
			}
		}
		return false
	case tmMention:
		for _, mention := range in.Mentions {
			if m.mention.IsMatch(mention) {
				return true
			}
		}
		return false
	case tmHashtag:
		for _, h := range in.Hashtags {
			if m.hashtag.IsMatch(h) {
				return true
			}
		}
		return false
	case tmAny:
		for _, c := range m.anyChildren {
			if c.IsMatch(in) {
				return true
			}
		}
		return false
	case tmAll:
		for _, c := range m.allChildren {
			if !c.IsMatch(in) {
				return false
			}
		}
		return true
	case tmNot:
		return !m.not.IsMatch(in)
	}
	return false
}
