package pattern

import "errors"

// ErrReducedToNothing is returned when optimization collapses a tree to an
// empty Any/All at the root — an author authored a rule with no patterns
// at all, which has no sensible boolean value.
var ErrReducedToNothing = errors.New("pattern: rule reduced to nothing")

// rewriteRule rewrites a single node already reconstructed from its
// (already-visited) children. Returning nil drops the node from its
// parent's child list; at the root, a nil result is an error.
type rewriteRule[L any] func(*Node[L]) *Node[L]

// visit walks n bottom-up, rebuilding every Any/All/Not from its rewritten
// children before applying rule to the rebuilt node itself. Unlike a
// single-level rule application, this recurses into every depth of the
// tree on each call so that a fixed point is reached in a bounded number
// of outer passes regardless of how deeply rule patterns are nested.
func visit[L any](n *Node[L], rule rewriteRule[L]) *Node[L] {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindLeaf:
		return rule(n)
	case KindNot:
		child := visit(n.Child, rule)
		if child == nil {
			return nil
		}
		return rule(&Node[L]{Kind: KindNot, Child: child})
	case KindAny, KindAll:
		children := make([]*Node[L], 0, len(n.Children))
		for _, c := range n.Children {
			if rewritten := visit(c, rule); rewritten != nil {
				children = append(children, rewritten)
			}
		}
		return rule(&Node[L]{Kind: n.Kind, Children: children})
	default:
		return rule(n)
	}
}

// Optimize rewrites root to a fixed point using an ordered list of rules:
// drop-empty, collapse-double-negation, pull-up-singleton,
// flatten-same-type, De-Morgan-pullout. After any rule produces a smaller
// tree, the search restarts from the first rule; a full pass in which no
// rule shrinks the tree terminates optimization.
func Optimize[L any](root *Node[L]) (*Node[L], error) {
	rules := []rewriteRule[L]{
		dropEmpty[L],
		collapseDoubleNegation[L],
		pullUpSingleton[L],
		flattenSameType[L],
		deMorganPullout[L],
	}

	current := root
	for progress := true; progress; {
		progress = false
		numNodes := count(current)
		for _, rule := range rules {
			applied := visit(current, rule)
			if applied == nil {
				return nil, ErrReducedToNothing
			}
			if count(applied) < numNodes {
				current = applied
				progress = true
				break
			}
		}
	}
	return current, nil
}

// dropEmpty removes Any/All nodes with no children: they carry no
// information once their (vacuous) children have been pruned.
func dropEmpty[L any](n *Node[L]) *Node[L] {
	if (n.Kind == KindAny || n.Kind == KindAll) && len(n.Children) == 0 {
		return nil
	}
	return n
}

// collapseDoubleNegation rewrites Not(Not(x)) to x.
func collapseDoubleNegation[L any](n *Node[L]) *Node[L] {
	if n.Kind != KindNot {
		return n
	}
	if n.Child.Kind == KindNot {
		return n.Child.Child
	}
	return n
}

// pullUpSingleton rewrites Any/All with exactly one child to that child.
func pullUpSingleton[L any](n *Node[L]) *Node[L] {
	if (n.Kind == KindAny || n.Kind == KindAll) && len(n.Children) == 1 {
		return n.Children[0]
	}
	return n
}

// flattenSameType merges a child Any into a parent Any (and likewise All
// into All) by splicing the child's children into the parent's child list.
func flattenSameType[L any](n *Node[L]) *Node[L] {
	if n.Kind != KindAny && n.Kind != KindAll {
		return n
	}
	flattened := make([]*Node[L], 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == n.Kind {
			flattened = append(flattened, c.Children...)
		} else {
			flattened = append(flattened, c)
		}
	}
	return &Node[L]{Kind: n.Kind, Children: flattened}
}

// deMorganPullout rewrites Any[Not(a), Not(b), ...] to Not(All[a, b, ...])
// and All[Not(a), Not(b), ...] to Not(Any[a, b, ...]), but only when every
// child is a Not — a single non-negated child bails out unchanged.
func deMorganPullout[L any](n *Node[L]) *Node[L] {
	if n.Kind != KindAny && n.Kind != KindAll {
		return n
	}
	grandchildren := make([]*Node[L], 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind != KindNot {
			return n
		}
		grandchildren = append(grandchildren, c.Child)
	}
	dual := KindAll
	if n.Kind == KindAll {
		dual = KindAny
	}
	return &Node[L]{Kind: KindNot, Child: &Node[L]{Kind: dual, Children: grandchildren}}
}
