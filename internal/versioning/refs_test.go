package versioning

import (
	"strings"
	"testing"
)

func TestContentHashGrammar(t *testing.T) {
	valid := strings.Repeat("ab12", 16)
	if !contentHashRe.MatchString(valid) {
		t.Fatalf("%q should classify as a content hash", valid)
	}

	invalid := []string{
		strings.Repeat("AB12", 16),      // uppercase hex
		strings.Repeat("ab12", 16)[:63], // too short
		strings.Repeat("ab12", 16) + "a",
		strings.Repeat("zz12", 16), // non-hex
		"",
	}
	for _, ref := range invalid {
		if contentHashRe.MatchString(ref) {
			t.Fatalf("%q should not classify as a content hash", ref)
		}
	}
}

func TestIndexReferenceGrammar(t *testing.T) {
	valid := []string{"0", "3", "-1", "-42", "007"}
	for _, suffix := range valid {
		if !signedIntRe.MatchString(suffix) {
			t.Fatalf("~%s should classify as an index reference", suffix)
		}
	}

	invalid := []string{"", "+3", "1.5", "x", "-", "1e3", " 1"}
	for _, suffix := range invalid {
		if signedIntRe.MatchString(suffix) {
			t.Fatalf("~%s should be rejected as an index reference", suffix)
		}
	}
}

func TestNormalizeIndex(t *testing.T) {
	cases := []struct {
		index, total int64
		want         int64
		ok           bool
	}{
		{0, 3, 0, true},
		{2, 3, 2, true},
		{3, 3, 0, false},
		{-1, 3, 2, true},
		{-3, 3, 0, true},
		{-4, 3, 0, false},
		{0, 0, 0, false},
	}
	for _, c := range cases {
		got, ok := normalizeIndex(c.index, c.total)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("normalizeIndex(%d, %d) = (%d, %v), want (%d, %v)",
				c.index, c.total, got, ok, c.want, c.ok)
		}
	}
}
