// Package similarity scores how close two certificate field values are.
// All functions are total: any pair of strings yields a score in [0,1].
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// sameDomainWeight scales the local-part similarity when domains match.
	sameDomainWeight = 0.8
	// sameDomainBoost is the floor granted for an identical email domain.
	sameDomainBoost = 0.2
)

// Normalize trims and lowercases a field value before comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Score returns the fuzzy similarity of a and b.
//
// Email-shaped pairs (exactly one '@' each) earn the 0.2 domain prior only when
// domains match: 0.8*local + 0.2. Mismatched domains score 0.8*full, so they stay
// strictly below 0.8. Every other pair is normalized Levenshtein.
func Score(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1.0
	}
	localA, domainA, okA := splitEmail(a)
	localB, domainB, okB := splitEmail(b)
	if okA && okB {
		if domainA == domainB {
			return sameDomainWeight*Levenshtein(localA, localB) + sameDomainBoost
		}
		return sameDomainWeight * Levenshtein(a, b)
	}
	return Levenshtein(a, b)
}

// Exact compares case-insensitively after trimming. No partial credit.
func Exact(a, b string) float64 {
	if Normalize(a) == Normalize(b) {
		return 1.0
	}
	return 0.0
}

// Levenshtein returns 1 - distance/maxLen over runes. Both empty scores 1;
// exactly one empty scores 0.
func Levenshtein(a, b string) float64 {
	lenA, lenB := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if lenA == 0 && lenB == 0 {
		return 1.0
	}
	if lenA == 0 || lenB == 0 {
		return 0.0
	}
	maxLen := max(lenA, lenB)
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func splitEmail(s string) (local, domain string, ok bool) {
	if strings.Count(s, "@") != 1 {
		return "", "", false
	}
	local, domain, _ = strings.Cut(s, "@")
	return local, domain, true
}
