package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/skillancer/ledger/internal/unified"
)

// keyLength is the number of hex characters kept from the digest. 128 bits is
// plenty for per-user collision resistance while keeping the column compact.
const keyLength = 32

// GenerateKey derives the stable deduplication key for a source transaction.
// The same source/externalID/amount/currency/day always produce the same key;
// changing any component changes it, including sub-cent amount differences,
// since the amount is rounded to two decimals before hashing.
func GenerateKey(src unified.SourceTransaction) string {
	composite := strings.Join([]string{
		string(src.Source),
		src.ExternalID,
		src.Amount.StringFixed(2),
		src.Currency,
		src.TransactionDate.Format(time.DateOnly),
	}, "|")

	sum := sha256.Sum256([]byte(composite))

	return hex.EncodeToString(sum[:])[:keyLength]
}
