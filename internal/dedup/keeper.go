package dedup

import (
	"github.com/skillancer/ledger/internal/unified"
)

// selectKeeper picks which of two records survives a merge. Records earn
// points for internal linkage, attachments, first-party provenance and
// recency; ties resolve to the lexicographically smaller id so the choice is
// deterministic regardless of input order.
func selectKeeper(a, b *unified.Transaction) (keeper, loser *unified.Transaction) {
	scoreA := keeperScore(a)
	scoreB := keeperScore(b)

	if a.CreatedAt.After(b.CreatedAt) {
		scoreA++
	} else if b.CreatedAt.After(a.CreatedAt) {
		scoreB++
	}

	switch {
	case scoreA > scoreB:
		return a, b
	case scoreB > scoreA:
		return b, a
	case a.ID.String() < b.ID.String():
		return a, b
	default:
		return b, a
	}
}

func keeperScore(t *unified.Transaction) int {
	score := 0

	if t.ClientID != nil {
		score += 2
	}

	if t.ProjectID != nil {
		score += 2
	}

	score += len(t.Attachments)

	if t.Source.FirstParty() {
		score += 3
	}

	return score
}
