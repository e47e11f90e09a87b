package pattern

import "regexp"

// regexSet is a small stand-in for Rust's regex::RegexSet: a list of
// compiled patterns tested together. Go's standard regexp package has no
// native multi-pattern set type, and no library in the example pack
// provides one either, so this wraps a plain slice of *regexp.Regexp.
// For the pattern sizes automod deals with (a handful to a few dozen
// fused leaves per Any/All group) a linear scan is the right tool —
// nothing in the corpus reaches for a DFA-based multi-pattern matcher at
// this scale.
type regexSet struct {
	regexes []*regexp.Regexp
}

func newRegexSet(patterns []string) (*regexSet, error) {
	rs := &regexSet{regexes: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		rs.regexes = append(rs.regexes, re)
	}
	return rs, nil
}

// matchCount returns how many of the set's patterns match s.
func (rs *regexSet) matchCount(s string) int {
	n := 0
	for _, re := range rs.regexes {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}

// isMatch reports whether any pattern in the set matches s.
func (rs *regexSet) isMatch(s string) bool {
	for _, re := range rs.regexes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func (rs *regexSet) len() int {
	return len(rs.regexes)
}
