// Package query turns free-text issue descriptions into filter tokens for
// the record stores.
package query

import "strings"

// stopwords carry no topical signal and are excluded from matching.
var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "a": {}, "an": {}, "to": {}, "for": {},
	"with": {}, "and": {}, "or": {}, "what": {}, "do": {}, "i": {},
	"my": {}, "on": {}, "how": {}, "of": {},
}

// Tokens splits a query on whitespace, lowercases each fragment, and drops
// empty fragments and stopwords. Order is preserved and duplicates are kept;
// downstream the tokens become independent OR-clauses, so a duplicate is
// harmless. The result depends only on the input string.
func Tokens(q string) []string {
	fields := strings.Fields(q)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.ToLower(strings.TrimSpace(f))
		if t == "" {
			continue
		}
		if _, ok := stopwords[t]; ok {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}
