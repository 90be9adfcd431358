package dedup_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/skillancer/ledger/internal/dedup"
	"github.com/skillancer/ledger/internal/unified"
)

func baseSource() unified.SourceTransaction {
	return unified.SourceTransaction{
		Source:          unified.SourceBankFeed,
		ExternalID:      "stmt-1042",
		Amount:          decimal.RequireFromString("100.00"),
		Currency:        "EUR",
		TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerateKey_Deterministic(t *testing.T) {
	src := baseSource()

	assert.Equal(t, dedup.GenerateKey(src), dedup.GenerateKey(src))
	assert.Len(t, dedup.GenerateKey(src), 32)
}

func TestGenerateKey_TimeOfDayIgnored(t *testing.T) {
	morning := baseSource()
	evening := baseSource()
	evening.TransactionDate = time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, dedup.GenerateKey(morning), dedup.GenerateKey(evening))
}

func TestGenerateKey_SubCentRoundsToSameKey(t *testing.T) {
	a := baseSource()
	a.Amount = decimal.RequireFromString("100.001")

	b := baseSource()
	b.Amount = decimal.RequireFromString("100.004")

	// Both round to 100.00, so the exact-match channel treats them as the
	// same report.
	assert.Equal(t, dedup.GenerateKey(a), dedup.GenerateKey(b))
}

func TestGenerateKey_ComponentChangesKey(t *testing.T) {
	base := baseSource()
	baseKey := dedup.GenerateKey(base)

	type testCase struct {
		name   string
		mutate func(*unified.SourceTransaction)
	}

	tests := []testCase{
		{
			name:   "Source",
			mutate: func(s *unified.SourceTransaction) { s.Source = unified.SourceMarketplace },
		},
		{
			name:   "ExternalID",
			mutate: func(s *unified.SourceTransaction) { s.ExternalID = "stmt-1043" },
		},
		{
			name:   "Amount",
			mutate: func(s *unified.SourceTransaction) { s.Amount = decimal.RequireFromString("100.01") },
		},
		{
			name:   "Currency",
			mutate: func(s *unified.SourceTransaction) { s.Currency = "USD" },
		},
		{
			name: "Date",
			mutate: func(s *unified.SourceTransaction) {
				s.TransactionDate = s.TransactionDate.AddDate(0, 0, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := baseSource()
			tt.mutate(&src)

			assert.NotEqual(t, baseKey, dedup.GenerateKey(src))
		})
	}
}
