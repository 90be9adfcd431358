package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillancer/ledger/internal/currency"
	"github.com/skillancer/ledger/internal/unified"
)

// ErrRunInProgress is returned when a reconciliation run is already holding
// the per-user lock.
var ErrRunInProgress = errors.New("deduplication run already in progress for user")

//go:generate mockgen -source=service.go -destination=service_mock.go -package=dedup
type Repository interface {
	InsertTransaction(ctx context.Context, tx *unified.Transaction) (uuid.UUID, bool, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*unified.Transaction, error)
	GetByDeduplicationKey(ctx context.Context, userID uuid.UUID, key string) (*unified.Transaction, error)
	ListActiveTransactions(ctx context.Context, userID uuid.UUID) ([]*unified.Transaction, error)
	FindCandidates(ctx context.Context, userID uuid.UUID, filter CandidateFilter) ([]*unified.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *unified.Transaction) error
	MarkDuplicate(ctx context.Context, id uuid.UUID, reason string) error

	AddExclusion(ctx context.Context, userID, id1, id2 uuid.UUID) error
	ListExclusions(ctx context.Context, userID uuid.UUID) ([][2]uuid.UUID, error)
	RecordMerge(ctx context.Context, entry MergeAudit) error

	AcquireRunLock(ctx context.Context, userID uuid.UUID) (release func() error, err error)
}

// Converter is the external currency conversion collaborator. It is treated
// as authoritative; conversion failures propagate so a transaction is never
// persisted with a made-up rate.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (*currency.Conversion, error)
}

// CandidateFilter bounds a tolerance-window candidate query: non-duplicate
// records of the user inside both the date and amount windows.
type CandidateFilter struct {
	StartDate time.Time
	EndDate   time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
}

// MergeAudit is one row of the durable merge trail.
type MergeAudit struct {
	UserID      uuid.UUID
	KeeperID    uuid.UUID
	DuplicateID uuid.UUID
	Score       int
	Reason      string
	PerformedBy string
}

const (
	mergeByAuto   = "auto"
	mergeByManual = "manual"
)

// TransactionSummary carries the fields an operator needs to inspect a
// candidate pair. ID is nil-valued for an incoming, not-yet-persisted side.
type TransactionSummary struct {
	ID          uuid.UUID
	Source      unified.Source
	ExternalID  string
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	Description string
}

// DuplicatePair is a candidate match surfaced by scoring. It is transient:
// review is advisory and nothing is persisted for it.
type DuplicatePair struct {
	Record1         TransactionSummary
	Record2         TransactionSummary
	ConfidenceScore int
	MatchReason     string
	SuggestedAction SuggestedAction
}

// DeduplicationResult summarizes one reconciliation run.
type DeduplicationResult struct {
	RecordsChecked  int
	DuplicatesFound int
	AutoMerged      int
	PendingReview   []DuplicatePair
}

type Service struct {
	repo      Repository
	converter Converter
	scorer    *Scorer
	cfg       Config
}

func NewService(repo Repository, converter Converter, cfg Config) *Service {
	return &Service{
		repo:      repo,
		converter: converter,
		scorer:    NewScorer(cfg),
		cfg:       cfg,
	}
}

// Ingest admits a source transaction into the unified ledger. Re-ingesting
// the same source event is idempotent: the exact-key channel returns the
// existing record's id without creating anything. Fuzzy cross-source
// duplicates are deliberately left to RunDeduplication so ingestion latency
// stays independent of the user's history size.
func (s *Service) Ingest(ctx context.Context, userID uuid.UUID, src unified.SourceTransaction, baseCurrency string) (uuid.UUID, error) {
	key := GenerateKey(src)

	existing, err := s.repo.GetByDeduplicationKey(ctx, userID, key)
	if err == nil {
		slog.Info("ingest matched existing record",
			"user_id", userID, "transaction_id", existing.ID, "source", src.Source)

		return existing.ID, nil
	}

	if !errors.Is(err, unified.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("looking up deduplication key: %w", err)
	}

	conv, err := s.converter.Convert(ctx, src.Amount, src.Currency, baseCurrency, src.TransactionDate)
	if err != nil {
		return uuid.Nil, fmt.Errorf("converting currency: %w", err)
	}

	tx := &unified.Transaction{
		ID:                  uuid.New(),
		UserID:              userID,
		DeduplicationKey:    key,
		Source:              src.Source,
		ExternalID:          src.ExternalID,
		OriginalAmount:      src.Amount,
		OriginalCurrency:    src.Currency,
		ConvertedAmount:     conv.ConvertedAmount,
		BaseCurrency:        baseCurrency,
		ExchangeRate:        conv.Rate,
		ExchangeRateDate:    conv.RateDate,
		TransactionDate:     src.TransactionDate,
		Description:         src.Description,
		Category:            src.Category,
		ClientID:            src.ClientID,
		ProjectID:           src.ProjectID,
		ExternalClientName:  src.ExternalClientName,
		ExternalProjectName: src.ExternalProjectName,
		SyncStatus:          unified.StatusSynced,
		Attachments:         src.Attachments,
	}

	// The check above is not atomic with the insert; the store's unique
	// constraint on (user_id, deduplication_key) is what makes concurrent
	// retries safe. On conflict the existing id comes back.
	id, created, err := s.repo.InsertTransaction(ctx, tx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("persisting transaction: %w", err)
	}

	if !created {
		slog.Info("ingest lost insert race, returning existing record",
			"user_id", userID, "transaction_id", id, "source", src.Source)
	}

	return id, nil
}

// IsDuplicate reports whether the exact-key channel already holds this
// source transaction.
func (s *Service) IsDuplicate(ctx context.Context, userID uuid.UUID, src unified.SourceTransaction) (bool, error) {
	tx, err := s.FindExactDuplicate(ctx, userID, src)
	if err != nil {
		return false, err
	}

	return tx != nil, nil
}

// FindExactDuplicate returns the stored record with this source transaction's
// deduplication key, or nil when none exists.
func (s *Service) FindExactDuplicate(ctx context.Context, userID uuid.UUID, src unified.SourceTransaction) (*unified.Transaction, error) {
	tx, err := s.repo.GetByDeduplicationKey(ctx, userID, GenerateKey(src))
	if err != nil {
		if errors.Is(err, unified.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("looking up deduplication key: %w", err)
	}

	return tx, nil
}

// FindPotentialDuplicates scores an incoming source transaction against
// stored records inside the tolerance window and returns the pairs at or
// above the review threshold, highest confidence first.
func (s *Service) FindPotentialDuplicates(ctx context.Context, userID uuid.UUID, src unified.SourceTransaction) ([]DuplicatePair, error) {
	tolerance := decimal.NewFromFloat(s.cfg.AmountTolerance)
	window := src.Amount.Abs().Mul(tolerance)

	candidates, err := s.repo.FindCandidates(ctx, userID, CandidateFilter{
		StartDate: src.TransactionDate.AddDate(0, 0, -s.cfg.DateToleranceDays),
		EndDate:   src.TransactionDate.AddDate(0, 0, s.cfg.DateToleranceDays),
		MinAmount: src.Amount.Sub(window),
		MaxAmount: src.Amount.Add(window),
	})
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}

	var pairs []DuplicatePair

	for _, candidate := range candidates {
		score, reason := s.scorer.ScoreSourceVsStored(src, candidate)
		if score < s.cfg.ReviewThreshold {
			continue
		}

		pairs = append(pairs, DuplicatePair{
			Record1:         summarizeSource(src),
			Record2:         summarize(candidate),
			ConfidenceScore: score,
			MatchReason:     reason,
			SuggestedAction: s.scorer.Action(score),
		})
	}

	sortPairs(pairs)

	return pairs, nil
}

// RunDeduplication sweeps a user's active records for fuzzy cross-source
// duplicates. High-confidence pairs are merged automatically; mid-confidence
// pairs are returned for human review without mutating anything. At most one
// run per user executes at a time, enforced by a per-user lock in the store.
func (s *Service) RunDeduplication(ctx context.Context, userID uuid.UUID) (*DeduplicationResult, error) {
	release, err := s.repo.AcquireRunLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			slog.Error("failed to release deduplication run lock", "user_id", userID, "error", err)
		}
	}()

	records, err := s.repo.ListActiveTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading active transactions: %w", err)
	}

	exclusions, err := s.loadExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &DeduplicationResult{RecordsChecked: len(records)}
	checked := make(map[uuid.UUID]struct{})

	// Records arrive ordered by transaction date descending, so pairwise
	// comparison only needs to scan forward until the date gap exceeds the
	// tolerance. Pairs beyond it cannot reach a meaningful score anyway.
	for i, a := range records {
		if _, done := checked[a.ID]; done {
			continue
		}

		for _, b := range records[i+1:] {
			if daysBetween(a.TransactionDate, b.TransactionDate) > float64(s.cfg.DateToleranceDays) {
				break
			}

			if _, done := checked[b.ID]; done {
				continue
			}

			// A single source should not report the same transaction twice
			// under different external ids.
			if a.Source == b.Source {
				continue
			}

			score, reason := s.scorer.ScoreStored(a, b, exclusions)
			if score < s.cfg.ReviewThreshold {
				continue
			}

			result.DuplicatesFound++

			if score < s.cfg.AutoMergeThreshold {
				result.PendingReview = append(result.PendingReview, DuplicatePair{
					Record1:         summarize(a),
					Record2:         summarize(b),
					ConfidenceScore: score,
					MatchReason:     reason,
					SuggestedAction: ActionReview,
				})

				continue
			}

			keeper, loser := selectKeeper(a, b)
			if err := s.applyAutoMerge(ctx, userID, keeper, loser, score); err != nil {
				// A failed pair must not abort the whole run; the caller
				// decides whether a partial result is acceptable.
				slog.Error("auto-merge failed, skipping pair",
					"user_id", userID, "keeper_id", keeper.ID, "duplicate_id", loser.ID, "error", err)

				result.DuplicatesFound--

				continue
			}

			checked[loser.ID] = struct{}{}
			result.AutoMerged++

			if loser.ID == a.ID {
				break
			}
		}
	}

	slog.Info("deduplication run finished",
		"user_id", userID,
		"records_checked", result.RecordsChecked,
		"duplicates_found", result.DuplicatesFound,
		"auto_merged", result.AutoMerged,
		"pending_review", len(result.PendingReview))

	return result, nil
}

func (s *Service) applyAutoMerge(ctx context.Context, userID uuid.UUID, keeper, loser *unified.Transaction, score int) error {
	reason := fmt.Sprintf("duplicate of %s (score %d)", keeper.ID, score)

	if err := s.repo.MarkDuplicate(ctx, loser.ID, reason); err != nil {
		return fmt.Errorf("marking duplicate: %w", err)
	}

	if err := s.repo.RecordMerge(ctx, MergeAudit{
		UserID:      userID,
		KeeperID:    keeper.ID,
		DuplicateID: loser.ID,
		Score:       score,
		Reason:      reason,
		PerformedBy: mergeByAuto,
	}); err != nil {
		return fmt.Errorf("recording merge audit: %w", err)
	}

	slog.Info("auto-merged duplicate",
		"user_id", userID,
		"keeper_id", keeper.ID,
		"duplicate_id", loser.ID,
		"score", score,
		"status_before", loser.SyncStatus,
		"status_after", unified.StatusDuplicate)

	return nil
}

// MergeTransactions performs an explicit operator merge: attachments and
// metadata are unioned onto the keeper, the duplicate id is appended to the
// keeper's merge trail, and the duplicate is marked DUPLICATE. Ownership of
// both records is validated before any mutation.
func (s *Service) MergeTransactions(ctx context.Context, keeperID, duplicateID, userID uuid.UUID) (*unified.Transaction, error) {
	keeper, duplicate, err := s.loadOwnedPair(ctx, keeperID, duplicateID, userID)
	if err != nil {
		return nil, err
	}

	keeper.Attachments = unionStrings(keeper.Attachments, duplicate.Attachments)
	keeper.Metadata = unionMetadata(keeper.Metadata, duplicate.Metadata)
	keeper.MergedFrom = append(keeper.MergedFrom, duplicate.ID)

	if err := s.repo.UpdateTransaction(ctx, keeper); err != nil {
		return nil, fmt.Errorf("updating keeper: %w", err)
	}

	reason := fmt.Sprintf("merged into %s", keeper.ID)
	if err := s.repo.MarkDuplicate(ctx, duplicate.ID, reason); err != nil {
		return nil, fmt.Errorf("marking duplicate: %w", err)
	}

	if err := s.repo.RecordMerge(ctx, MergeAudit{
		UserID:      userID,
		KeeperID:    keeper.ID,
		DuplicateID: duplicate.ID,
		Reason:      reason,
		PerformedBy: mergeByManual,
	}); err != nil {
		return nil, fmt.Errorf("recording merge audit: %w", err)
	}

	slog.Info("manually merged transactions",
		"user_id", userID,
		"keeper_id", keeper.ID,
		"duplicate_id", duplicate.ID,
		"status_before", duplicate.SyncStatus,
		"status_after", unified.StatusDuplicate)

	return keeper, nil
}

// MarkNotDuplicate durably records that two records are not duplicates of
// each other, so future reconciliation runs never re-flag the pair. Neither
// record changes status.
func (s *Service) MarkNotDuplicate(ctx context.Context, id1, id2, userID uuid.UUID) error {
	if _, _, err := s.loadOwnedPair(ctx, id1, id2, userID); err != nil {
		return err
	}

	if err := s.repo.AddExclusion(ctx, userID, id1, id2); err != nil {
		return fmt.Errorf("recording exclusion: %w", err)
	}

	slog.Info("marked pair as not duplicate", "user_id", userID, "id1", id1, "id2", id2)

	return nil
}

// loadOwnedPair fetches both records and validates ownership before anything
// is mutated, so either-side failure leaves no partial state.
func (s *Service) loadOwnedPair(ctx context.Context, id1, id2, userID uuid.UUID) (*unified.Transaction, *unified.Transaction, error) {
	first, err := s.repo.GetTransaction(ctx, id1)
	if err != nil {
		return nil, nil, fmt.Errorf("loading transaction %s: %w", id1, err)
	}

	second, err := s.repo.GetTransaction(ctx, id2)
	if err != nil {
		return nil, nil, fmt.Errorf("loading transaction %s: %w", id2, err)
	}

	if !first.OwnedBy(userID) || !second.OwnedBy(userID) {
		return nil, nil, unified.ErrUnauthorized
	}

	return first, second, nil
}

func (s *Service) loadExclusions(ctx context.Context, userID uuid.UUID) (ExclusionSet, error) {
	pairs, err := s.repo.ListExclusions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}

	set := make(ExclusionSet, len(pairs))
	for _, p := range pairs {
		set.Add(p[0], p[1])
	}

	return set, nil
}

func daysBetween(a, b time.Time) float64 {
	d := a.Sub(b).Hours() / 24
	if d < 0 {
		d = -d
	}

	return d
}

func summarize(tx *unified.Transaction) TransactionSummary {
	return TransactionSummary{
		ID:          tx.ID,
		Source:      tx.Source,
		ExternalID:  tx.ExternalID,
		Amount:      tx.OriginalAmount,
		Currency:    tx.OriginalCurrency,
		Date:        tx.TransactionDate,
		Description: tx.Description,
	}
}

func summarizeSource(src unified.SourceTransaction) TransactionSummary {
	return TransactionSummary{
		Source:      src.Source,
		ExternalID:  src.ExternalID,
		Amount:      src.Amount,
		Currency:    src.Currency,
		Date:        src.TransactionDate,
		Description: src.Description,
	}
}

func sortPairs(pairs []DuplicatePair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].ConfidenceScore > pairs[j].ConfidenceScore
	})
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	return out
}

// unionMetadata merges the duplicate's metadata under the keeper's: keys the
// keeper already has keep the keeper's value.
func unionMetadata(keeper, duplicate map[string]string) map[string]string {
	if len(duplicate) == 0 {
		return keeper
	}

	out := make(map[string]string, len(keeper)+len(duplicate))
	for k, v := range duplicate {
		out[k] = v
	}

	for k, v := range keeper {
		out[k] = v
	}

	return out
}
