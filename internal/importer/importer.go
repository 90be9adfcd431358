package importer

import (
	"io"

	"github.com/skillancer/ledger/internal/unified"
)

// Feed identifies a file-based transaction feed format.
type Feed string

const (
	FeedBankCSV Feed = "bank_csv"
)

// Importer parses a feed file into source transactions ready for ingestion.
// currency is the fallback for rows that carry no currency column.
type Importer interface {
	Parse(r io.Reader, currency string) ([]unified.SourceTransaction, error)
}
