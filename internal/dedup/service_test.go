package dedup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/skillancer/ledger/internal/currency"
	"github.com/skillancer/ledger/internal/unified"
)

func newTestService(t *testing.T) (*Service, *MockRepository, *MockConverter) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	converter := NewMockConverter(ctrl)

	return NewService(repo, converter, DefaultConfig()), repo, converter
}

func activeTx(userID uuid.UUID, source unified.Source, amount, desc string, date time.Time) *unified.Transaction {
	return &unified.Transaction{
		ID:               uuid.New(),
		UserID:           userID,
		Source:           source,
		OriginalAmount:   decimal.RequireFromString(amount),
		OriginalCurrency: "EUR",
		TransactionDate:  date,
		Description:      desc,
		SyncStatus:       unified.StatusSynced,
		CreatedAt:        date,
	}
}

func noopRelease() (func() error, error) {
	return func() error { return nil }, nil
}

func TestService_Ingest(t *testing.T) {
	userID := uuid.New()
	src := unified.SourceTransaction{
		Source:          unified.SourceFreelance,
		ExternalID:      "job-12",
		Amount:          decimal.RequireFromString("250.00"),
		Currency:        "USD",
		TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:     "Milestone payout",
	}

	t.Run("ExactKeyHitReturnsExisting", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		existing := &unified.Transaction{ID: uuid.New(), UserID: userID}
		repo.EXPECT().
			GetByDeduplicationKey(gomock.Any(), userID, GenerateKey(src)).
			Return(existing, nil)

		id, err := svc.Ingest(context.Background(), userID, src, "EUR")

		require.NoError(t, err)
		assert.Equal(t, existing.ID, id)
	})

	t.Run("NewRecordConvertedAndPersisted", func(t *testing.T) {
		svc, repo, converter := newTestService(t)

		repo.EXPECT().
			GetByDeduplicationKey(gomock.Any(), userID, gomock.Any()).
			Return(nil, unified.ErrNotFound)

		rateDate := src.TransactionDate
		converter.EXPECT().
			Convert(gomock.Any(), src.Amount, "USD", "EUR", src.TransactionDate).
			Return(&currency.Conversion{
				ConvertedAmount: decimal.RequireFromString("230.25"),
				Rate:            decimal.RequireFromString("0.921"),
				RateDate:        rateDate,
			}, nil)

		repo.EXPECT().
			InsertTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tx *unified.Transaction) (uuid.UUID, bool, error) {
				assert.Equal(t, userID, tx.UserID)
				assert.Equal(t, GenerateKey(src), tx.DeduplicationKey)
				assert.Equal(t, unified.SourceFreelance, tx.Source)
				assert.True(t, tx.OriginalAmount.Equal(src.Amount))
				assert.Equal(t, "USD", tx.OriginalCurrency)
				assert.True(t, tx.ConvertedAmount.Equal(decimal.RequireFromString("230.25")))
				assert.Equal(t, "EUR", tx.BaseCurrency)
				assert.Equal(t, unified.StatusSynced, tx.SyncStatus)

				return tx.ID, true, nil
			})

		id, err := svc.Ingest(context.Background(), userID, src, "EUR")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
	})

	t.Run("InsertRaceReturnsExistingID", func(t *testing.T) {
		svc, repo, converter := newTestService(t)

		repo.EXPECT().
			GetByDeduplicationKey(gomock.Any(), userID, gomock.Any()).
			Return(nil, unified.ErrNotFound)
		converter.EXPECT().
			Convert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&currency.Conversion{ConvertedAmount: src.Amount, Rate: decimal.NewFromInt(1), RateDate: src.TransactionDate}, nil)

		winnerID := uuid.New()
		repo.EXPECT().
			InsertTransaction(gomock.Any(), gomock.Any()).
			Return(winnerID, false, nil)

		id, err := svc.Ingest(context.Background(), userID, src, "USD")

		require.NoError(t, err)
		assert.Equal(t, winnerID, id)
	})

	t.Run("ConversionFailureBlocksPersist", func(t *testing.T) {
		svc, repo, converter := newTestService(t)

		repo.EXPECT().
			GetByDeduplicationKey(gomock.Any(), userID, gomock.Any()).
			Return(nil, unified.ErrNotFound)
		converter.EXPECT().
			Convert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("rate service unavailable"))

		_, err := svc.Ingest(context.Background(), userID, src, "EUR")

		assert.ErrorContains(t, err, "converting currency")
	})
}

func TestService_IsDuplicate(t *testing.T) {
	userID := uuid.New()
	src := unified.SourceTransaction{
		Source:          unified.SourceBankFeed,
		ExternalID:      "stmt-9",
		Amount:          decimal.RequireFromString("42.00"),
		Currency:        "EUR",
		TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("Hit", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		repo.EXPECT().
			GetByDeduplicationKey(gomock.Any(), userID, GenerateKey(src)).
			Return(&unified.Transaction{ID: uuid.New()}, nil)

		dup, err := svc.IsDuplicate(context.Background(), userID, src)

		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("Miss", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		repo.EXPECT().
			GetByDeduplicationKey(gomock.Any(), userID, gomock.Any()).
			Return(nil, unified.ErrNotFound)

		dup, err := svc.IsDuplicate(context.Background(), userID, src)

		require.NoError(t, err)
		assert.False(t, dup)
	})
}

func TestService_FindPotentialDuplicates(t *testing.T) {
	svc, repo, _ := newTestService(t)

	userID := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	src := unified.SourceTransaction{
		Source:          unified.SourceFreelance,
		Amount:          decimal.RequireFromString("100.00"),
		Currency:        "EUR",
		TransactionDate: date,
		Description:     "Acme Corp payment",
	}

	strong := activeTx(userID, unified.SourceBankFeed, "100.00", "Acme Corp payment", date)
	weak := activeTx(userID, unified.SourceBankFeed, "100.00", "Acme Corp payment", date.AddDate(0, 0, 2))
	noise := activeTx(userID, unified.SourceBankFeed, "100.50", "Office supplies", date.AddDate(0, 0, 3))

	repo.EXPECT().
		FindCandidates(gomock.Any(), userID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, filter CandidateFilter) ([]*unified.Transaction, error) {
			assert.Equal(t, date.AddDate(0, 0, -3), filter.StartDate)
			assert.Equal(t, date.AddDate(0, 0, 3), filter.EndDate)
			assert.True(t, filter.MinAmount.Equal(decimal.RequireFromString("99.00")))
			assert.True(t, filter.MaxAmount.Equal(decimal.RequireFromString("101.00")))

			return []*unified.Transaction{weak, strong, noise}, nil
		})

	pairs, err := svc.FindPotentialDuplicates(context.Background(), userID, src)

	require.NoError(t, err)
	require.Len(t, pairs, 2)

	// Highest confidence first; the noise candidate stays below the review
	// threshold and is dropped.
	assert.Equal(t, strong.ID, pairs[0].Record2.ID)
	assert.Equal(t, 90, pairs[0].ConfidenceScore)
	assert.Equal(t, weak.ID, pairs[1].Record2.ID)
	assert.Equal(t, 70, pairs[1].ConfidenceScore)
	assert.Equal(t, uuid.Nil, pairs[0].Record1.ID)
}

func TestService_RunDeduplication(t *testing.T) {
	userID := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("LockBusy", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		repo.EXPECT().AcquireRunLock(gomock.Any(), userID).Return(nil, ErrRunInProgress)

		_, err := svc.RunDeduplication(context.Background(), userID)

		assert.ErrorIs(t, err, ErrRunInProgress)
	})

	t.Run("MergesReviewsAndSkips", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		clientID := uuid.New()

		// Cross-source pair with a shared client link: scores 95, auto-merged.
		mergeBank := activeTx(userID, unified.SourceBankFeed, "100.00", "Acme Corp payment", date)
		mergeBank.ClientID = &clientID
		mergeMarket := activeTx(userID, unified.SourceMarketplace, "100.00", "Acme Corp payment", date)
		mergeMarket.ClientID = &clientID

		// Cross-source pair without linkage: scores 90, surfaced for review.
		reviewBank := activeTx(userID, unified.SourceBankFeed, "500.00", "Globex retainer", date)
		reviewFreelance := activeTx(userID, unified.SourceFreelance, "500.00", "Globex retainer", date)

		// Identical but same source: never compared.
		sameA := activeTx(userID, unified.SourceBankFeed, "900.00", "Recurring hosting bill", date)
		sameB := activeTx(userID, unified.SourceBankFeed, "900.00", "Recurring hosting bill", date)

		// Would score in the review band but is excluded by an operator.
		exclBank := activeTx(userID, unified.SourceBankFeed, "1300.00", "Initech consulting", date)
		exclMarket := activeTx(userID, unified.SourceMarketplace, "1300.00", "Initech consulting", date)

		records := []*unified.Transaction{
			mergeBank, mergeMarket,
			reviewBank, reviewFreelance,
			sameA, sameB,
			exclBank, exclMarket,
		}

		repo.EXPECT().AcquireRunLock(gomock.Any(), userID).DoAndReturn(
			func(context.Context, uuid.UUID) (func() error, error) { return noopRelease() })
		repo.EXPECT().ListActiveTransactions(gomock.Any(), userID).Return(records, nil)
		repo.EXPECT().ListExclusions(gomock.Any(), userID).
			Return([][2]uuid.UUID{{exclBank.ID, exclMarket.ID}}, nil)

		// The marketplace record is first party, so it wins keeper selection.
		mergeReason := fmt.Sprintf("duplicate of %s (score 95)", mergeMarket.ID)
		repo.EXPECT().MarkDuplicate(gomock.Any(), mergeBank.ID, mergeReason).Return(nil)
		repo.EXPECT().RecordMerge(gomock.Any(), MergeAudit{
			UserID:      userID,
			KeeperID:    mergeMarket.ID,
			DuplicateID: mergeBank.ID,
			Score:       95,
			Reason:      mergeReason,
			PerformedBy: mergeByAuto,
		}).Return(nil)

		result, err := svc.RunDeduplication(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 8, result.RecordsChecked)
		assert.Equal(t, 2, result.DuplicatesFound)
		assert.Equal(t, 1, result.AutoMerged)

		require.Len(t, result.PendingReview, 1)
		pair := result.PendingReview[0]
		assert.Equal(t, reviewBank.ID, pair.Record1.ID)
		assert.Equal(t, reviewFreelance.ID, pair.Record2.ID)
		assert.Equal(t, 90, pair.ConfidenceScore)
		assert.Equal(t, ActionReview, pair.SuggestedAction)
	})

	t.Run("PairsBeyondDateWindowNotCompared", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		clientID := uuid.New()
		projectID := uuid.New()

		recent := activeTx(userID, unified.SourceBankFeed, "100.00", "Acme Corp payment", date)
		recent.ClientID = &clientID
		recent.ProjectID = &projectID

		// Identical linkage ten days earlier. If compared it would reach the
		// review threshold on the non-date factors alone.
		stale := activeTx(userID, unified.SourceMarketplace, "100.00", "Acme Corp payment", date.AddDate(0, 0, -10))
		stale.ClientID = &clientID
		stale.ProjectID = &projectID

		repo.EXPECT().AcquireRunLock(gomock.Any(), userID).DoAndReturn(
			func(context.Context, uuid.UUID) (func() error, error) { return noopRelease() })
		repo.EXPECT().ListActiveTransactions(gomock.Any(), userID).
			Return([]*unified.Transaction{recent, stale}, nil)
		repo.EXPECT().ListExclusions(gomock.Any(), userID).Return(nil, nil)

		result, err := svc.RunDeduplication(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 0, result.DuplicatesFound)
		assert.Empty(t, result.PendingReview)
	})

	t.Run("FailedMergeSkipsPair", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		clientID := uuid.New()
		a := activeTx(userID, unified.SourceBankFeed, "100.00", "Acme Corp payment", date)
		a.ClientID = &clientID
		b := activeTx(userID, unified.SourceMarketplace, "100.00", "Acme Corp payment", date)
		b.ClientID = &clientID

		repo.EXPECT().AcquireRunLock(gomock.Any(), userID).DoAndReturn(
			func(context.Context, uuid.UUID) (func() error, error) { return noopRelease() })
		repo.EXPECT().ListActiveTransactions(gomock.Any(), userID).
			Return([]*unified.Transaction{a, b}, nil)
		repo.EXPECT().ListExclusions(gomock.Any(), userID).Return(nil, nil)
		repo.EXPECT().MarkDuplicate(gomock.Any(), a.ID, gomock.Any()).
			Return(errors.New("connection reset"))

		result, err := svc.RunDeduplication(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 0, result.DuplicatesFound)
		assert.Equal(t, 0, result.AutoMerged)
		assert.Empty(t, result.PendingReview)
	})
}

func TestService_MergeTransactions(t *testing.T) {
	userID := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("UnionsEvidenceOntoKeeper", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		keeper := activeTx(userID, unified.SourceManual, "80.00", "Design sprint", date)
		keeper.Attachments = []string{"invoice.pdf"}
		keeper.Metadata = map[string]string{"category_hint": "design", "reviewed": "yes"}

		duplicate := activeTx(userID, unified.SourceBankFeed, "80.00", "Design sprint", date)
		duplicate.Attachments = []string{"invoice.pdf", "statement.pdf"}
		duplicate.Metadata = map[string]string{"category_hint": "consulting", "bank_ref": "TRX-1"}

		repo.EXPECT().GetTransaction(gomock.Any(), keeper.ID).Return(keeper, nil)
		repo.EXPECT().GetTransaction(gomock.Any(), duplicate.ID).Return(duplicate, nil)

		repo.EXPECT().
			UpdateTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tx *unified.Transaction) error {
				assert.Equal(t, keeper.ID, tx.ID)
				assert.ElementsMatch(t, []string{"invoice.pdf", "statement.pdf"}, tx.Attachments)
				assert.Equal(t, map[string]string{
					"category_hint": "design",
					"reviewed":      "yes",
					"bank_ref":      "TRX-1",
				}, tx.Metadata)
				assert.Equal(t, []uuid.UUID{duplicate.ID}, tx.MergedFrom)

				return nil
			})

		reason := fmt.Sprintf("merged into %s", keeper.ID)
		repo.EXPECT().MarkDuplicate(gomock.Any(), duplicate.ID, reason).Return(nil)
		repo.EXPECT().RecordMerge(gomock.Any(), MergeAudit{
			UserID:      userID,
			KeeperID:    keeper.ID,
			DuplicateID: duplicate.ID,
			Reason:      reason,
			PerformedBy: mergeByManual,
		}).Return(nil)

		merged, err := svc.MergeTransactions(context.Background(), keeper.ID, duplicate.ID, userID)

		require.NoError(t, err)
		assert.Equal(t, keeper.ID, merged.ID)
	})

	t.Run("ForeignRecordRejectedBeforeMutation", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		keeper := activeTx(userID, unified.SourceManual, "80.00", "Design sprint", date)
		foreign := activeTx(uuid.New(), unified.SourceBankFeed, "80.00", "Design sprint", date)

		repo.EXPECT().GetTransaction(gomock.Any(), keeper.ID).Return(keeper, nil)
		repo.EXPECT().GetTransaction(gomock.Any(), foreign.ID).Return(foreign, nil)

		_, err := svc.MergeTransactions(context.Background(), keeper.ID, foreign.ID, userID)

		assert.ErrorIs(t, err, unified.ErrUnauthorized)
	})
}

func TestService_MarkNotDuplicate(t *testing.T) {
	userID := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("RecordsExclusion", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		a := activeTx(userID, unified.SourceBankFeed, "60.00", "Hosting", date)
		b := activeTx(userID, unified.SourceMarketplace, "60.00", "Hosting", date)

		repo.EXPECT().GetTransaction(gomock.Any(), a.ID).Return(a, nil)
		repo.EXPECT().GetTransaction(gomock.Any(), b.ID).Return(b, nil)
		repo.EXPECT().AddExclusion(gomock.Any(), userID, a.ID, b.ID).Return(nil)

		require.NoError(t, svc.MarkNotDuplicate(context.Background(), a.ID, b.ID, userID))
	})

	t.Run("MissingRecordFails", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		missing := uuid.New()
		repo.EXPECT().GetTransaction(gomock.Any(), missing).Return(nil, unified.ErrNotFound)

		err := svc.MarkNotDuplicate(context.Background(), missing, uuid.New(), userID)

		assert.ErrorIs(t, err, unified.ErrNotFound)
	})
}
