package dedup

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skillancer/ledger/internal/dedup"
	"github.com/skillancer/ledger/internal/unified"
)

type Handler struct {
	svc *dedup.Service
}

func NewHandler(svc *dedup.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/run", h.run)
	r.Post("/candidates", h.candidates)
	r.Post("/merge", h.merge)
	r.Post("/exclusions", h.exclude)
}

type runRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type summaryDTO struct {
	ID          *uuid.UUID      `json:"id,omitempty"`
	Source      unified.Source  `json:"source"`
	ExternalID  string          `json:"external_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}

type pairDTO struct {
	Record1         summaryDTO            `json:"record1"`
	Record2         summaryDTO            `json:"record2"`
	ConfidenceScore int                   `json:"confidence_score"`
	MatchReason     string                `json:"match_reason"`
	SuggestedAction dedup.SuggestedAction `json:"suggested_action"`
}

type runResponse struct {
	RecordsChecked  int       `json:"records_checked"`
	DuplicatesFound int       `json:"duplicates_found"`
	AutoMerged      int       `json:"auto_merged"`
	PendingReview   []pairDTO `json:"pending_review"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RunDeduplication(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, dedup.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		writeError(w, err)

		return
	}

	resp := runResponse{
		RecordsChecked:  result.RecordsChecked,
		DuplicatesFound: result.DuplicatesFound,
		AutoMerged:      result.AutoMerged,
		PendingReview:   toPairDTOs(result.PendingReview),
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type candidatesRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	Transaction struct {
		Source              unified.Source  `json:"source"`
		ExternalID          string          `json:"external_id"`
		Amount              decimal.Decimal `json:"amount"`
		Currency            string          `json:"currency"`
		TransactionDate     time.Time       `json:"transaction_date"`
		Description         string          `json:"description"`
		ExternalClientName  string          `json:"external_client_name"`
		ExternalProjectName string          `json:"external_project_name"`
	} `json:"transaction"`
}

func (h *Handler) candidates(w http.ResponseWriter, r *http.Request) {
	var req candidatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == uuid.Nil {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	src := unified.SourceTransaction{
		Source:              req.Transaction.Source,
		ExternalID:          req.Transaction.ExternalID,
		Amount:              req.Transaction.Amount,
		Currency:            req.Transaction.Currency,
		TransactionDate:     req.Transaction.TransactionDate,
		Description:         req.Transaction.Description,
		ExternalClientName:  req.Transaction.ExternalClientName,
		ExternalProjectName: req.Transaction.ExternalProjectName,
	}

	pairs, err := h.svc.FindPotentialDuplicates(r.Context(), req.UserID, src)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toPairDTOs(pairs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type mergeRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	KeeperID    uuid.UUID `json:"keeper_id"`
	DuplicateID uuid.UUID `json:"duplicate_id"`
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	keeper, err := h.svc.MergeTransactions(r.Context(), req.KeeperID, req.DuplicateID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(map[string]any{"keeper_id": keeper.ID}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type excludeRequest struct {
	UserID uuid.UUID `json:"user_id"`
	ID1    uuid.UUID `json:"id1"`
	ID2    uuid.UUID `json:"id2"`
}

func (h *Handler) exclude(w http.ResponseWriter, r *http.Request) {
	var req excludeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.MarkNotDuplicate(r.Context(), req.ID1, req.ID2, req.UserID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toPairDTOs(pairs []dedup.DuplicatePair) []pairDTO {
	out := make([]pairDTO, len(pairs))
	for i, p := range pairs {
		out[i] = pairDTO{
			Record1:         toSummaryDTO(p.Record1),
			Record2:         toSummaryDTO(p.Record2),
			ConfidenceScore: p.ConfidenceScore,
			MatchReason:     p.MatchReason,
			SuggestedAction: p.SuggestedAction,
		}
	}

	return out
}

func toSummaryDTO(s dedup.TransactionSummary) summaryDTO {
	dto := summaryDTO{
		Source:      s.Source,
		ExternalID:  s.ExternalID,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Date:        s.Date,
		Description: s.Description,
	}

	if s.ID != uuid.Nil {
		id := s.ID
		dto.ID = &id
	}

	return dto
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, unified.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, unified.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
