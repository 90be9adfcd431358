package dedup

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// StringSimilarity measures how close two free-text fields are on a [0,1]
// scale: 1 for equal strings (after lower-casing and trimming), 0 when either
// side is empty, otherwise 1 - editDistance/maxLen.
func StringSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1
	}

	if a == "" || b == "" {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)

	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	return 1 - float64(distance)/float64(maxLen)
}
