package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skillancer/ledger/internal/dedup"
)

func TestStringSimilarity(t *testing.T) {
	type testCase struct {
		name  string
		a     string
		b     string
		want  float64
		delta float64
	}

	tests := []testCase{
		{
			name: "Identical",
			a:    "abc",
			b:    "abc",
			want: 1,
		},
		{
			name: "EmptyLeft",
			a:    "",
			b:    "x",
			want: 0,
		},
		{
			name: "EmptyRight",
			a:    "x",
			b:    "",
			want: 0,
		},
		{
			name: "CaseAndWhitespaceNormalized",
			a:    "  Acme Corp  ",
			b:    "acme corp",
			want: 1,
		},
		{
			name: "KittenSitting",
			a:    "kitten",
			b:    "sitting",
			// levenshtein("kitten", "sitting") == 3, max length 7.
			want:  1 - 3.0/7.0,
			delta: 0.0001,
		},
		{
			name:  "SingleSubstitution",
			a:     "invoice 1042",
			b:     "invoice 1043",
			want:  1 - 1.0/12.0,
			delta: 0.0001,
		},
		{
			name: "CompletelyDifferent",
			a:    "aaaa",
			b:    "bbbb",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedup.StringSimilarity(tt.a, tt.b)

			if tt.delta > 0 {
				assert.InDelta(t, tt.want, got, tt.delta)
				return
			}

			assert.Equal(t, tt.want, got)
		})
	}
}
