package oauth2

import "strings"

// Scope is a set of permission tokens. On the wire a scope is a
// space-delimited string; for all comparison and merge logic the order is
// irrelevant and duplicates are dropped. First-seen order is preserved so
// that a scope round-trips legibly.
type Scope []string

// ParseScope splits a space-delimited scope string into a Scope,
// discarding empty tokens and duplicates.
func ParseScope(scope string) Scope {
	parsed := Scope{}
	for _, token := range strings.Fields(scope) {
		if !parsed.Has(token) {
			parsed = append(parsed, token)
		}
	}
	return parsed
}

// Has reports whether the scope contains the given token.
func (s Scope) Has(token string) bool {
	for _, t := range s {
		if t == token {
			return true
		}
	}
	return false
}

// Merge returns the union of s and other. Tokens of s keep their
// position; new tokens from other are appended in order.
func (s Scope) Merge(other Scope) Scope {
	merged := make(Scope, len(s), len(s)+len(other))
	copy(merged, s)
	for _, token := range other {
		if !merged.Has(token) {
			merged = append(merged, token)
		}
	}
	return merged
}

// String renders the scope in its wire format.
func (s Scope) String() string {
	return strings.Join(s, " ")
}
