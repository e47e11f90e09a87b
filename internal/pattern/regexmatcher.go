package pattern

// regexMatcher is the compiled matcher shape shared by StringPattern and
// InstancePattern: both lower to a Node[string] (plain regex text leaves,
// Word/Domain already desugared) and compile via the same fusion logic.
type regexMatcher struct {
	kind        regexMatcherKind
	anyRegexes  *regexSet
	allRegexes  *regexSet
	anyChildren []*regexMatcher
	allChildren []*regexMatcher
	not         *regexMatcher
}

type regexMatcherKind int

const (
	rmAnyRegexes regexMatcherKind = iota
	rmAllRegexes
	rmAny
	rmAll
	rmNot
)

// compileRegexMatcher compiles an optimized Node[string] into a
// regexMatcher, fusing homogeneous-leaf Any/All groups into a single
// regex set and falling back to per-child composition otherwise.
func compileRegexMatcher(n *Node[string]) (*regexMatcher, error) {
	switch n.Kind {
	case KindLeaf:
		rs, err := newRegexSet([]string{n.Leaf})
		if err != nil {
			return nil, err
		}
		return &regexMatcher{kind: rmAnyRegexes, anyRegexes: rs}, nil

	case KindNot:
		child, err := compileRegexMatcher(n.Child)
		if err != nil {
			return nil, err
		}
		return &regexMatcher{kind: rmNot, not: child}, nil

	case KindAny, KindAll:
		if patterns, ok := allLeafPatterns(n.Children); ok {
			rs, err := newRegexSet(patterns)
			if err != nil {
				return nil, err
			}
			if n.Kind == KindAny {
				return &regexMatcher{kind: rmAnyRegexes, anyRegexes: rs}, nil
			}
			return &regexMatcher{kind: rmAllRegexes, allRegexes: rs}, nil
		}

		children := make([]*regexMatcher, 0, len(n.Children))
		for _, c := range n.Children {
			cm, err := compileRegexMatcher(c)
			if err != nil {
				return nil, err
			}
			children = append(children, cm)
		}
		if n.Kind == KindAny {
			return &regexMatcher{kind: rmAny, anyChildren: children}, nil
		}
		return &regexMatcher{kind: rmAll, allChildren: children}, nil
	}
	panic("pattern: unreachable node kind")
}

// allLeafPatterns returns the leaf regex text of every child if, and only
// if, every child is itself a Leaf — the condition under which an Any/All
// group fuses into a single regex set.
func allLeafPatterns(children []*Node[string]) ([]string, bool) {
	patterns := make([]string, 0, len(children))
	for _, c := range children {
		if c.Kind != KindLeaf {
			return nil, false
		}
		patterns = append(patterns, c.Leaf)
	}
	return patterns, true
}

func (m *regexMatcher) IsMatch(s string) bool {
	switch m.kind {
	case rmAnyRegexes:
		return m.anyRegexes.isMatch(s)
	case rmAllRegexes:
		return m.allRegexes.matchCount(s) == m.allRegexes.len()
	case rmAny:
		for _, c := range m.anyChildren {
			if c.IsMatch(s) {
				return true
			}
		}
		return false
	case rmAll:
		for _, c := range m.allChildren {
			if !c.IsMatch(s) {
				return false
			}
		}
		return true
	case rmNot:
		return !m.not.IsMatch(s)
	}
	return false
}
