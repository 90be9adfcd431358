package unified

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("transaction not found")
	ErrUnauthorized = errors.New("transaction does not belong to user")
)

// Source identifies the origin system that reported a transaction.
type Source string

const (
	SourceManual      Source = "manual"
	SourceMarketplace Source = "marketplace"
	SourceFreelance   Source = "freelance_platform"
	SourceAccounting  Source = "accounting_export"
	SourceBankFeed    Source = "bank_feed"
)

// FirstParty reports whether the source is one of the platform's own systems,
// as opposed to an external feed.
func (s Source) FirstParty() bool {
	return s == SourceManual || s == SourceMarketplace
}

// SyncStatus represents the lifecycle state of a unified transaction.
type SyncStatus string

const (
	StatusSynced    SyncStatus = "SYNCED"
	StatusPending   SyncStatus = "PENDING"
	StatusDuplicate SyncStatus = "DUPLICATE"
	StatusSyncError SyncStatus = "SYNC_ERROR"
)

// SourceTransaction is a transaction as reported by an origin system,
// before it has been admitted into the unified ledger.
type SourceTransaction struct {
	Source              Source
	ExternalID          string
	Amount              decimal.Decimal
	Currency            string
	TransactionDate     time.Time
	Description         string
	Category            string
	ClientID            *uuid.UUID
	ProjectID           *uuid.UUID
	ExternalClientName  string
	ExternalProjectName string
	Attachments         []string
}

// Transaction is the canonical unified ledger record. Duplicates are marked
// via SyncStatus, never deleted by the engine.
type Transaction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	DeduplicationKey string

	Source     Source
	ExternalID string

	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	ConvertedAmount  decimal.Decimal
	BaseCurrency     string
	ExchangeRate     decimal.Decimal
	ExchangeRateDate time.Time

	TransactionDate time.Time
	Description     string
	Category        string

	ClientID            *uuid.UUID
	ProjectID           *uuid.UUID
	ExternalClientName  string
	ExternalProjectName string

	SyncStatus  SyncStatus
	Attachments []string
	MergedFrom  []uuid.UUID
	Metadata    map[string]string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// OwnedBy reports whether the record belongs to the given user.
func (t *Transaction) OwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}
