// Package punct builds and queries the Punctuator Index: a lazily
// constructed lookup over a user-supplied list of literal strings that
// the punctuator_arguments extension promotes to stand-alone arguments.
// It is grouped by starting scalar per §4.3 so a query is linear only
// in the number of punctuators sharing that starter, not in the full
// list.
package punct

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/aledsdavies/confetti/pkgs/classifier"
)

// Index answers "does the longest declared punctuator start here" in
// near-constant time. A nil *Index is valid and always reports no
// match, so callers that never enable the extension can skip the
// allocation entirely.
type Index struct {
	groups map[rune][]string
}

// New validates and builds an Index from a caller-supplied punctuator
// list. Empty strings are silently dropped, as §4.3 specifies; every
// other violation — invalid UTF-8, a non-ARGUMENT character, or `(`/`)`
// when exprArgsEnabled is true — is returned as an error the caller
// should surface as INVALID_OPERATION.
func New(puncts []string, exprArgsEnabled bool) (*Index, error) {
	groups := make(map[rune][]string)
	for _, p := range puncts {
		if p == "" {
			continue
		}
		if !utf8.ValidString(p) {
			return nil, fmt.Errorf("punctuator %q: not valid UTF-8", p)
		}
		for _, r := range p {
			if classifier.Of(r)&classifier.Argument == 0 {
				return nil, fmt.Errorf("punctuator %q: %q is not an argument character", p, r)
			}
			if exprArgsEnabled && (r == '(' || r == ')') {
				return nil, fmt.Errorf("punctuator %q: %q forbidden alongside expression arguments", p, r)
			}
		}
		starter, _ := utf8.DecodeRuneInString(p)
		groups[starter] = append(groups[starter], p)
	}
	if len(groups) == 0 {
		return nil, nil
	}
	for r, list := range groups {
		// Longest-match-first: a query stops at the first entry that
		// is a prefix of the remaining input, so sorting once here
		// keeps Match itself a flat scan.
		sort.Slice(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
		groups[r] = list
	}
	return &Index{groups: groups}, nil
}

// Match returns the byte length of the longest declared punctuator that
// is a prefix of s, or zero if none match. s is the remaining input
// starting at the scalar under consideration.
func (ix *Index) Match(s []byte) int {
	if ix == nil || len(ix.groups) == 0 || len(s) == 0 {
		return 0
	}
	starter, _ := utf8.DecodeRune(s)
	for _, p := range ix.groups[starter] {
		if len(p) <= len(s) && string(s[:len(p)]) == p {
			return len(p)
		}
	}
	return 0
}
