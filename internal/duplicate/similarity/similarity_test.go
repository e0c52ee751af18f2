package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	t.Run("identity is one", func(t *testing.T) {
		for _, s := range []string{"", "a", "John Doe", "john@x.com", "Zürich Ünïcode", "  padded  "} {
			assert.Equal(t, 1.0, Score(s, s), s)
		}
	})

	t.Run("empty strings", func(t *testing.T) {
		assert.Equal(t, 1.0, Score("", ""))
		assert.Equal(t, 0.0, Score("", "a"))
		assert.Equal(t, 0.0, Score("a", ""))
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		assert.Equal(t, 1.0, Score("  John DOE ", "john doe"))
	})

	t.Run("same domain boosts local part similarity", func(t *testing.T) {
		got := Score("john@x.com", "jon@x.com")
		assert.GreaterOrEqual(t, got, 0.8)
		// local parts "john"/"jon": distance 1 over 4
		assert.InDelta(t, 0.8*0.75+0.2, got, 1e-9)
	})

	t.Run("different domain gets no boost", func(t *testing.T) {
		got := Score("john@x.com", "john@y.com")
		assert.Less(t, got, 0.8)
		// full strings differ by one of ten runes
		assert.InDelta(t, 0.8*0.9, got, 1e-9)
	})

	t.Run("one email-shaped side uses plain levenshtein", func(t *testing.T) {
		a, b := "john@x.com", "john at x.com"
		assert.InDelta(t, Levenshtein(a, b), Score(a, b), 1e-9)
	})

	t.Run("multiple at signs are not email shaped", func(t *testing.T) {
		a, b := "a@b@x.com", "a@c@x.com"
		assert.InDelta(t, Levenshtein(a, b), Score(a, b), 1e-9)
	})

	t.Run("stays within unit interval", func(t *testing.T) {
		pairs := [][2]string{
			{"abc", "xyz"},
			{"a@x.com", "completely-different@x.com"},
			{"Certified Kubernetes Administrator", "Certified Kubernetes Developer"},
		}
		for _, p := range pairs {
			got := Score(p[0], p[1])
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, Score("kitten", "sitting"), Score("sitting", "kitten"), 1e-12)
	})
}

func TestLevenshtein(t *testing.T) {
	assert.InDelta(t, 1-3.0/7.0, Levenshtein("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 0.0, Levenshtein("abc", "xyz"), 1e-9)
	// transpositions cost two edits
	assert.InDelta(t, 0.0, Levenshtein("ab", "ba"), 1e-9)
	// rune-based, not byte-based
	assert.InDelta(t, 0.75, Levenshtein("café", "cafe"), 1e-9)
}

func TestExact(t *testing.T) {
	assert.Equal(t, 1.0, Exact("John@Example.com", " john@example.com "))
	assert.Equal(t, 0.0, Exact("john@example.com", "jon@example.com"))
	assert.Equal(t, 1.0, Exact("", ""))

	for _, pair := range [][2]string{{"a", "b"}, {"abc", "abd"}, {"same", "SAME"}} {
		got := Exact(pair[0], pair[1])
		assert.True(t, got == 0.0 || got == 1.0, "exact comparison is binary")
	}
}
