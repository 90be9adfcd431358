package bankcsv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/skillancer/ledger/internal/encoding"
	"github.com/skillancer/ledger/internal/unified"
)

// Parser reads bank CSV exports and produces source transactions for the
// ingestion gate. The column layout is auto-detected by matching headers
// against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader, currency string) ([]unified.SourceTransaction, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	content, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	// Banks disagree on the delimiter as much as on everything else.
	for _, comma := range []rune{',', ';'} {
		reader := csv.NewReader(bytes.NewReader(content))
		reader.Comma = comma
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		rows, err := reader.ReadAll()
		if err != nil {
			continue
		}

		if profile, cols, headerIdx := detectProfile(rows); profile != nil {
			return parseRows(profile, cols, rows[headerIdx+1:], currency)
		}
	}

	return nil, fmt.Errorf("no matching bank CSV format found")
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string, fallbackCurrency string) ([]unified.SourceTransaction, error) {
	var txs []unified.SourceTransaction

	for _, row := range rows {
		date, ok := parseDate(cellValue(row, cols, p.DateCol))
		if !ok {
			// Probably a footer or blank separator row.
			continue
		}

		amount, err := rowAmount(p, cols, row)
		if err != nil {
			continue
		}

		rowCurrency := fallbackCurrency
		if p.CurrencyCol != "" {
			if c := cellValue(row, cols, p.CurrencyCol); c != "" {
				rowCurrency = strings.ToUpper(c)
			}
		}

		txs = append(txs, unified.SourceTransaction{
			Source:          unified.SourceBankFeed,
			ExternalID:      cellValue(row, cols, p.RefCol),
			Amount:          amount,
			Currency:        rowCurrency,
			TransactionDate: date,
			Description:     cellValue(row, cols, p.DescCol),
		})
	}

	return txs, nil
}

func rowAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, error) {
	switch p.AmountMode {
	case amountSplit:
		if debit := cellValue(row, cols, p.DebitCol); debit != "" {
			amount, err := parseAmount(debit)
			return amount.Neg(), err
		}

		return parseAmount(cellValue(row, cols, p.CreditCol))
	default:
		return parseAmount(cellValue(row, cols, p.AmountCol))
	}
}

// dateLayouts covers the formats seen across bank exports so far.
var dateLayouts = []string{
	time.DateOnly,
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cellValue(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
