package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillancer/ledger/internal/unified"
)

type transactionResponse struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	DeduplicationKey string             `json:"deduplication_key"`
	Source           unified.Source     `json:"source"`
	ExternalID       string             `json:"external_id,omitempty"`
	OriginalAmount   decimal.Decimal    `json:"original_amount"`
	OriginalCurrency string             `json:"original_currency"`
	ConvertedAmount  decimal.Decimal    `json:"converted_amount"`
	BaseCurrency     string             `json:"base_currency"`
	ExchangeRate     decimal.Decimal    `json:"exchange_rate"`
	ExchangeRateDate time.Time          `json:"exchange_rate_date"`
	TransactionDate  time.Time          `json:"transaction_date"`
	Description      string             `json:"description,omitempty"`
	Category         string             `json:"category,omitempty"`
	ClientID         *uuid.UUID         `json:"client_id,omitempty"`
	ProjectID        *uuid.UUID         `json:"project_id,omitempty"`
	SyncStatus       unified.SyncStatus `json:"sync_status"`
	Attachments      []string           `json:"attachments,omitempty"`
	MergedFrom       []uuid.UUID        `json:"merged_from,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        *time.Time         `json:"updated_at,omitempty"`
}

func toResponse(tx *unified.Transaction) transactionResponse {
	return transactionResponse{
		ID:               tx.ID,
		UserID:           tx.UserID,
		DeduplicationKey: tx.DeduplicationKey,
		Source:           tx.Source,
		ExternalID:       tx.ExternalID,
		OriginalAmount:   tx.OriginalAmount,
		OriginalCurrency: tx.OriginalCurrency,
		ConvertedAmount:  tx.ConvertedAmount,
		BaseCurrency:     tx.BaseCurrency,
		ExchangeRate:     tx.ExchangeRate,
		ExchangeRateDate: tx.ExchangeRateDate,
		TransactionDate:  tx.TransactionDate,
		Description:      tx.Description,
		Category:         tx.Category,
		ClientID:         tx.ClientID,
		ProjectID:        tx.ProjectID,
		SyncStatus:       tx.SyncStatus,
		Attachments:      tx.Attachments,
		MergedFrom:       tx.MergedFrom,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

func toResponseList(txs []*unified.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
