package bankcsv

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount handles both plain ("1,234.56") and European ("1.234,56")
// number formats. The last separator in the string is taken as the decimal
// point.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")

	if lastComma > lastDot {
		// European format: dots are thousands separators.
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
