package htmldoc

import "strings"

// MergeTokens appends each token in add to the space separated list
// existing unless it is already present (case-insensitive). Order of
// existing tokens is kept.
func MergeTokens(existing string, add ...string) string {
	tokens := strings.Fields(existing)
	seen := make(map[string]bool, len(tokens)+len(add))
	for _, t := range tokens {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range add {
		if !seen[strings.ToLower(t)] {
			seen[strings.ToLower(t)] = true
			tokens = append(tokens, t)
		}
	}
	return strings.Join(tokens, " ")
}

// HasToken reports whether the space separated list contains token.
func HasToken(list, token string) bool {
	for _, t := range strings.Fields(list) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}
