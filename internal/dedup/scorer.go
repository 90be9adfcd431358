package dedup

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillancer/ledger/internal/unified"
)

// SuggestedAction is the scorer's verdict for a candidate pair.
type SuggestedAction string

const (
	ActionMerge    SuggestedAction = "merge"
	ActionReview   SuggestedAction = "review"
	ActionKeepBoth SuggestedAction = "keep_both"
)

// Config carries the matching tolerances and decision thresholds.
type Config struct {
	// AmountTolerance is the relative amount difference at which the amount
	// factor decays to zero, e.g. 0.01 for 1%.
	AmountTolerance float64
	// DateToleranceDays is the day difference at which the date factor decays
	// to zero. It also bounds the reconciler's comparison window.
	DateToleranceDays int
	// AutoMergeThreshold is the minimum score for an automatic merge.
	AutoMergeThreshold int
	// ReviewThreshold is the minimum score for surfacing a pair for review.
	ReviewThreshold int
}

func DefaultConfig() Config {
	return Config{
		AmountTolerance:    0.01,
		DateToleranceDays:  3,
		AutoMergeThreshold: 95,
		ReviewThreshold:    70,
	}
}

// Factor weights. They sum to 100, so the confidence score is implicitly
// capped by construction.
const (
	amountWeight      = 40
	dateWeight        = 30
	currencyWeight    = 10
	descriptionWeight = 10
	clientWeight      = 5
	projectWeight     = 5
)

// comparand is the common shape both scoring variants operate on: an incoming
// source transaction and a stored record project onto the same fields, so a
// single weighted-factor function serves both call shapes.
type comparand struct {
	Amount      decimal.Decimal
	Date        time.Time
	Currency    string
	Description string
	ClientID    *uuid.UUID
	ProjectID   *uuid.UUID
	ClientName  string
	ProjectName string
}

func fromSource(src unified.SourceTransaction) comparand {
	return comparand{
		Amount:      src.Amount,
		Date:        src.TransactionDate,
		Currency:    src.Currency,
		Description: src.Description,
		ClientID:    src.ClientID,
		ProjectID:   src.ProjectID,
		ClientName:  src.ExternalClientName,
		ProjectName: src.ExternalProjectName,
	}
}

func fromStored(tx *unified.Transaction) comparand {
	return comparand{
		Amount:      tx.OriginalAmount,
		Date:        tx.TransactionDate,
		Currency:    tx.OriginalCurrency,
		Description: tx.Description,
		ClientID:    tx.ClientID,
		ProjectID:   tx.ProjectID,
		ClientName:  tx.ExternalClientName,
		ProjectName: tx.ExternalProjectName,
	}
}

// Scorer turns amount/date/currency/description/linkage agreement between two
// transactions into a 0-100 confidence score.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreSourceVsStored compares an incoming source transaction against a
// stored record, using the incoming amount as the reference for the relative
// amount difference.
func (s *Scorer) ScoreSourceVsStored(src unified.SourceTransaction, tx *unified.Transaction) (int, string) {
	return s.score(fromSource(src), fromStored(tx), false)
}

// ScoreStored compares two stored records, using the larger amount as the
// reference. A pair present in the exclusion set is forced to zero regardless
// of the weighted factors; this is what keeps repeated reconciliation runs
// idempotent after a manual "not duplicate" decision.
func (s *Scorer) ScoreStored(a, b *unified.Transaction, exclusions ExclusionSet) (int, string) {
	if exclusions.Contains(a.ID, b.ID) {
		return 0, "pair marked not duplicate"
	}

	return s.score(fromStored(a), fromStored(b), true)
}

// Action maps a confidence score onto the configured threshold policy.
func (s *Scorer) Action(score int) SuggestedAction {
	switch {
	case score >= s.cfg.AutoMergeThreshold:
		return ActionMerge
	case score >= s.cfg.ReviewThreshold:
		return ActionReview
	default:
		return ActionKeepBoth
	}
}

func (s *Scorer) score(a, b comparand, refLarger bool) (int, string) {
	var (
		total   float64
		reasons []string
	)

	if pts := s.amountScore(a.Amount, b.Amount, refLarger); pts > 0 {
		total += pts
		reasons = append(reasons, fmt.Sprintf("amount within tolerance (%.0f/%d)", pts, amountWeight))
	}

	if pts := s.dateScore(a.Date, b.Date); pts > 0 {
		total += pts
		reasons = append(reasons, fmt.Sprintf("date within tolerance (%.0f/%d)", pts, dateWeight))
	}

	if strings.EqualFold(a.Currency, b.Currency) {
		total += currencyWeight
		reasons = append(reasons, "same currency")
	}

	if a.Description != "" && b.Description != "" {
		sim := StringSimilarity(a.Description, b.Description)
		if sim > 0 {
			total += descriptionWeight * sim
			reasons = append(reasons, fmt.Sprintf("description %.0f%% similar", sim*100))
		}
	}

	if pts := entityScore(a.ClientID, b.ClientID, a.ClientName, b.ClientName, clientWeight); pts > 0 {
		total += pts
		reasons = append(reasons, "client match")
	}

	if pts := entityScore(a.ProjectID, b.ProjectID, a.ProjectName, b.ProjectName, projectWeight); pts > 0 {
		total += pts
		reasons = append(reasons, "project match")
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}

	return score, strings.Join(reasons, ", ")
}

func (s *Scorer) amountScore(a, b decimal.Decimal, refLarger bool) float64 {
	ref := a
	if refLarger && b.Abs().GreaterThan(a.Abs()) {
		ref = b
	}

	if ref.IsZero() {
		if a.Equal(b) {
			return amountWeight
		}

		return 0
	}

	diffPct, _ := a.Sub(b).Abs().Div(ref.Abs()).Float64()

	return math.Max(0, amountWeight*(1-diffPct/s.cfg.AmountTolerance))
}

func (s *Scorer) dateScore(a, b time.Time) float64 {
	daysDiff := math.Abs(a.Sub(b).Hours() / 24)

	return math.Max(0, dateWeight*(1-daysDiff/float64(s.cfg.DateToleranceDays)))
}

// entityScore awards the full weight for an exact internal id match, falling
// back to fuzzy name comparison scaled by similarity when no link exists.
func entityScore(idA, idB *uuid.UUID, nameA, nameB string, weight float64) float64 {
	if idA != nil && idB != nil && *idA == *idB {
		return weight
	}

	if nameA != "" && nameB != "" {
		return weight * StringSimilarity(nameA, nameB)
	}

	return 0
}

// pairKey is an unordered id pair in canonical order.
type pairKey struct {
	lo, hi uuid.UUID
}

func newPairKey(a, b uuid.UUID) pairKey {
	if a.String() > b.String() {
		a, b = b, a
	}

	return pairKey{lo: a, hi: b}
}

// ExclusionSet holds the id pairs an operator has confirmed as not duplicates.
type ExclusionSet map[pairKey]struct{}

func (e ExclusionSet) Add(a, b uuid.UUID) {
	e[newPairKey(a, b)] = struct{}{}
}

func (e ExclusionSet) Contains(a, b uuid.UUID) bool {
	_, ok := e[newPairKey(a, b)]
	return ok
}
