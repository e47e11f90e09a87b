package pattern

import (
	"encoding/json"
	"net/url"
)

// LinkPattern matches a link extracted from a post or bio: a whole word
// within its text (Word), its full text as a regex (Regex), or, anchored
// more narrowly, the link's domain (Domain).
type LinkPattern struct {
	Word   *string
	Regex  *string
	Domain *string
	Any    []LinkPattern
	All    []LinkPattern
	Not    *LinkPattern
}

func (p *LinkPattern) UnmarshalJSON(data []byte) error {
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
			child := &LinkPattern{}
			if err := json.Unmarshal(v, child); err != nil {
				return err
			}
			p.Not = child
			return nil
		},
	})
}

// linkLeafKind distinguishes the two fusable leaf kinds of LinkPattern.
// Unlike StringPattern/InstancePattern, LinkPattern leaves don't collapse
// into one flat regex-text type at lowering time: a Domain leaf is
// matched against a parsed URL's host, a Regex leaf against the whole URL
// text, so the kind tag has to survive lowering for fusion to group like
// with like.
type linkLeafKind int

const (
	linkLeafRegex linkLeafKind = iota
	linkLeafDomain
)

type linkPatternLeaf struct {
	kind    linkLeafKind
	pattern string
}

// Lower converts a LinkPattern into the uniform intermediate representation.
func (p LinkPattern) Lower() *Node[linkPatternLeaf] {
	switch {
	case p.Word != nil:
		return Leaf(linkPatternLeaf{kind: linkLeafRegex, pattern: WordRegex(*p.Word)})
	case p.Regex != nil:
		return Leaf(linkPatternLeaf{kind: linkLeafRegex, pattern: *p.Regex})
	case p.Domain != nil:
		return Leaf(linkPatternLeaf{kind: linkLeafDomain, pattern: DomainRegex(*p.Domain)})
	case p.Any != nil:
		return Any(lowerLinks(p.Any)...)
	case p.All != nil:
		return All(lowerLinks(p.All)...)
	case p.Not != nil:
		return Not(p.Not.Lower())
	}
	panic("pattern: empty LinkPattern")
}

func lowerLinks(ps []LinkPattern) []*Node[linkPatternLeaf] {
	out := make([]*Node[linkPatternLeaf], len(ps))
	for i, p := range ps {
		out[i] = p.Lower()
	}
	return out
}

// linkMatcherKind is the compiled matcher's own shape, which adds fused
// regex-set and domain-set variants on top of the generic Any/All/Not/Leaf
// shapes.
type linkMatcherKind int

const (
	lmAnyRegexes linkMatcherKind = iota
	lmAllRegexes
	lmAnyDomains
	lmAllDomains
	lmAny
	lmAll
	lmNot
)

// LinkMatcher is the compiled form of a LinkPattern.
type LinkMatcher struct {
	kind        linkMatcherKind
	regexes     *regexSet
	anyChildren []*LinkMatcher
	allChildren []*LinkMatcher
	not         *LinkMatcher
}

// Compile optimizes and compiles p into a LinkMatcher.
func (p LinkPattern) Compile() (*LinkMatcher, error) {
	optimized, err := Optimize(p.Lower())
	if err != nil {
		return nil, err
	}
	return compileLinkMatcher(optimized)
}

func compileLinkMatcher(n *Node[linkPatternLeaf]) (*LinkMatcher, error) {
	switch n.Kind {
	case KindLeaf:
		rs, err := newRegexSet([]string{n.Leaf.pattern})
		if err != nil {
			return nil, err
		}
		if n.Leaf.kind == linkLeafDomain {
			return &LinkMatcher{kind: lmAnyDomains, regexes: rs}, nil
		}
		return &LinkMatcher{kind: lmAnyRegexes, regexes: rs}, nil

	case KindNot:
		child, err := compileLinkMatcher(n.Child)
		if err != nil {
			return nil, err
		}
		return &LinkMatcher{kind: lmNot, not: child}, nil

	case KindAny, KindAll:
		if kind, patterns, ok := allSameLeafKind(n.Children); ok {
			rs, err := newRegexSet(patterns)
			if err != nil {
				return nil, err
			}
			switch {
			case n.Kind == KindAny && kind == linkLeafRegex:
				return &LinkMatcher{kind: lmAnyRegexes, regexes: rs}, nil
			case n.Kind == KindAll && kind == linkLeafRegex:
				return &LinkMatcher{kind: lmAllRegexes, regexes: rs}, nil
			case n.Kind == KindAny && kind == linkLeafDomain:
				return &LinkMatcher{kind: lmAnyDomains, regexes: rs}, nil
			default:
				return &LinkMatcher{kind: lmAllDomains, regexes: rs}, nil
			}
		}

		children := make([]*LinkMatcher, 0, len(n.Children))
		for _, c := range n.Children {
			cm, err := compileLinkMatcher(c)
			if err != nil {
				return nil, err
			}
			children = append(children, cm)
		}
		if n.Kind == KindAny {
			return &LinkMatcher{kind: lmAny, anyChildren: children}, nil
		}
		return &LinkMatcher{kind: lmAll, allChildren: children}, nil
	}
	panic("pattern: unreachable node kind")
}

// allSameLeafKind reports whether every child is a Leaf of the same kind,
// returning that kind and the leaves' patterns if so.
func allSameLeafKind(children []*Node[linkPatternLeaf]) (linkLeafKind, []string, bool) {
	if len(children) == 0 || children[0].Kind != KindLeaf {
		return 0, nil, false
	}
	kind := children[0].Leaf.kind
	patterns := make([]string, 0, len(children))
	for _, c := range children {
		if c.Kind != KindLeaf || c.Leaf.kind != kind {
			return 0, nil, false
		}
		patterns = append(patterns, c.Leaf.pattern)
	}
	return kind, patterns, true
}

// IsMatch reports whether u satisfies the compiled pattern. A URL with no
// host fails any domain test.
func (m *LinkMatcher) IsMatch(u *url.URL) bool {
	switch m.kind {
	case lmAnyRegexes:
		return m.regexes.isMatch(u.String())
	case lmAllRegexes:
		return m.regexes.matchCount(u.String()) == m.regexes.len()
	case lmAnyDomains:
		if u.Hostname() == "" {
			return false
		}
		return m.regexes.isMatch(u.Hostname())
	case lmAllDomains:
		if u.Hostname() == "" {
			return false
		}
		return m.regexes.matchCount(u.Hostname()) == m.regexes.len()
	case lmAny:
		for _, c := range m.anyChildren {
			if c.IsMatch(u) {
				return true
			}
		}
		return false
	case lmAll:
		for _, c := range m.allChildren {
			if !c.IsMatch(u) {
				return false
			}
		}
		return true
	case lmNot:
		return !m.not.IsMatch(u)
	}
	return false
}
