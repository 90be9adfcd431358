package bankcsv

// amountMode determines how amounts are extracted from a row.
type amountMode int

const (
	// amountSingle means one signed column (e.g. "Amount" with value "-10.00").
	amountSingle amountMode = iota
	// amountSplit means separate debit and credit columns.
	amountSplit
)

// Profile describes the column layout of a bank CSV export format.
// Supporting a new bank is just adding a Profile to the profiles slice.
type Profile struct {
	Name        string
	DateCol     string
	DescCol     string
	AmountMode  amountMode
	AmountCol   string // used when AmountMode == amountSingle
	DebitCol    string // used when AmountMode == amountSplit
	CreditCol   string // used when AmountMode == amountSplit
	CurrencyCol string // optional; fallback currency applies when absent
	RefCol      string // optional; becomes the transaction's external id
}

// requiredCols returns the column names that must be present for this profile
// to match. Currency and reference are optional everywhere.
func (p Profile) requiredCols() []string {
	cols := []string{p.DateCol, p.DescCol}

	switch p.AmountMode {
	case amountSingle:
		cols = append(cols, p.AmountCol)
	case amountSplit:
		cols = append(cols, p.DebitCol, p.CreditCol)
	}

	return cols
}

// profiles is the ordered list of export formats to try during
// auto-detection. More specific profiles come first to avoid false matches.
var profiles = []Profile{
	{
		Name:        "debit-credit",
		DateCol:     "Date",
		DescCol:     "Description",
		AmountMode:  amountSplit,
		DebitCol:    "Debit",
		CreditCol:   "Credit",
		CurrencyCol: "Currency",
		RefCol:      "Reference",
	},
	{
		Name:        "statement",
		DateCol:     "Date",
		DescCol:     "Description",
		AmountMode:  amountSingle,
		AmountCol:   "Amount",
		CurrencyCol: "Currency",
		RefCol:      "Reference",
	},
	{
		Name:       "booking",
		DateCol:    "Booking Date",
		DescCol:    "Details",
		AmountMode: amountSingle,
		AmountCol:  "Amount",
	},
}
