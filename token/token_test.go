package token

import (
	"testing"
)

// Test looking up every keyword succeeds
func TestLookup(t *testing.T) {

	for key, val := range keywords {

		// Obviously this will pass.
		if LookupIdentifier(string(key)) != val {
			t.Errorf("Lookup of %s failed", key)
		}

	}
}

// An identifier that isn't a keyword should resolve as IDENT, not ERROR -
// unlike keywords, which the lexer must promote explicitly.
func TestLookupNonKeyword(t *testing.T) {
	if LookupIdentifier("foo") != IDENT {
		t.Errorf("expected non-keyword identifier to resolve as IDENT")
	}
}
