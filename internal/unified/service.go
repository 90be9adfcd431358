package unified

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=unified
type Repository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status SyncStatus, reason string) error
}

// ListFilter narrows transaction listings. All fields are optional; the store
// supports filtering by status, date window, currency and amount window.
type ListFilter struct {
	Status    *SyncStatus
	StartDate *time.Time
	EndDate   *time.Time
	Currency  *string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if !tx.OwnedBy(userID) {
		return nil, ErrUnauthorized
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, filter)
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, tx *Transaction) error {
	existing, err := s.repo.GetTransaction(ctx, tx.ID)
	if err != nil {
		return err
	}

	if !existing.OwnedBy(userID) {
		return ErrUnauthorized
	}

	return s.repo.UpdateTransaction(ctx, tx)
}

// UpdateStatus transitions a record's lifecycle status. Used by operators to
// reverse an incorrect auto-merge (un-marking DUPLICATE); the engine itself
// transitions status through the dedup service.
func (s *Service) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status SyncStatus, reason string) error {
	existing, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if !existing.OwnedBy(userID) {
		return ErrUnauthorized
	}

	return s.repo.UpdateStatus(ctx, id, status, reason)
}
