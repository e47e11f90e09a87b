package pattern

import "regexp"

// WordRegex builds the regex a Word(w) leaf desugars to at lowering time:
// a case-insensitive whole-word match.
func WordRegex(word string) string {
	return `(?i:\b` + regexp.QuoteMeta(word) + `\b)`
}

// DomainRegex builds the regex a Domain(d) leaf desugars to at lowering
// time: a case-insensitive match anchored to the end of the string, so it
// matches the domain itself and any subdomain of it.
func DomainRegex(domain string) string {
	return `(?i:\b` + regexp.QuoteMeta(domain) + `$)`
}
