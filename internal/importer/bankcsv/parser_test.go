package bankcsv

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillancer/ledger/internal/unified"
)

func TestParser_Parse_StatementProfile(t *testing.T) {
	feed := strings.Join([]string{
		"Date,Description,Amount,Currency,Reference",
		"2024-03-01,Acme Corp payment,1500.00,EUR,TRX-1001",
		"2024-03-02,Office supplies,-42.50,EUR,TRX-1002",
		"2024-03-03,USD invoice,200.00,USD,TRX-1003",
		"",
		"Total,,1657.50,,",
	}, "\n")

	txs, err := NewParser().Parse(strings.NewReader(feed), "EUR")

	require.NoError(t, err)
	require.Len(t, txs, 3)

	first := txs[0]
	assert.Equal(t, unified.SourceBankFeed, first.Source)
	assert.Equal(t, "TRX-1001", first.ExternalID)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("1500.00")))
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.TransactionDate)
	assert.Equal(t, "Acme Corp payment", first.Description)

	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("-42.50")))
	assert.Equal(t, "USD", txs[2].Currency)
}

func TestParser_Parse_DebitCreditSemicolon(t *testing.T) {
	feed := strings.Join([]string{
		"Date;Description;Debit;Credit;Currency;Reference",
		"01-03-2024;Hosting invoice;19,99;;EUR;INV-7",
		"02-03-2024;Client payment;;1.250,00;EUR;INV-8",
	}, "\n")

	txs, err := NewParser().Parse(strings.NewReader(feed), "EUR")

	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("-19.99")),
		"debit column yields a negative amount, got %s", txs[0].Amount)
	assert.True(t, txs[1].Amount.Equal(decimal.RequireFromString("1250.00")))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), txs[1].TransactionDate)
}

func TestParser_Parse_BookingProfileWithPreamble(t *testing.T) {
	feed := strings.Join([]string{
		"Account statement export",
		"Booking Date,Details,Amount",
		"2024-03-05,Subscription renewal,-9.99",
	}, "\n")

	txs, err := NewParser().Parse(strings.NewReader(feed), "GBP")

	require.NoError(t, err)
	require.Len(t, txs, 1)

	// No currency column, so the fallback applies. No reference column, so
	// the external id stays empty.
	assert.Equal(t, "GBP", txs[0].Currency)
	assert.Empty(t, txs[0].ExternalID)
	assert.Equal(t, "Subscription renewal", txs[0].Description)
}

func TestParser_Parse_UnknownFormat(t *testing.T) {
	feed := "Foo,Bar\n1,2\n"

	_, err := NewParser().Parse(strings.NewReader(feed), "EUR")

	assert.ErrorContains(t, err, "no matching bank CSV format")
}

func TestParser_Parse_MalformedRowsSkipped(t *testing.T) {
	feed := strings.Join([]string{
		"Date,Description,Amount",
		"2024-03-01,Valid row,10.00",
		"not-a-date,Footer note,10.00",
		"2024-03-02,Bad amount,abc",
	}, "\n")

	txs, err := NewParser().Parse(strings.NewReader(feed), "EUR")

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Valid row", txs[0].Description)
}

func TestParseAmount(t *testing.T) {
	type testCase struct {
		name string
		in   string
		want string
	}

	tests := []testCase{
		{name: "Plain", in: "1234.56", want: "1234.56"},
		{name: "PlainThousands", in: "1,234.56", want: "1234.56"},
		{name: "European", in: "1.234,56", want: "1234.56"},
		{name: "EuropeanNoThousands", in: "19,99", want: "19.99"},
		{name: "Negative", in: "-42.50", want: "-42.50"},
		{name: "Whitespace", in: "  7.00 ", want: "7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.in)

			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	_, err := parseAmount("n/a")
	assert.Error(t, err)
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-03-01", "01-03-2024", "01/03/2024", "01.03.2024"} {
		got, ok := parseDate(in)

		assert.True(t, ok, "layout %q", in)
		assert.Equal(t, want, got)
	}

	_, ok := parseDate("")
	assert.False(t, ok)
}
