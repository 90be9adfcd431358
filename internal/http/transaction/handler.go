package transaction

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
	svc      *unified.Service
	dedupSvc *dedup.Service
}

func NewHandler(svc *unified.Service, dedupSvc *dedup.Service) *Handler {
	return &Handler{svc: svc, dedupSvc: dedupSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.ingest)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.updateStatus)
}

type sourceTransactionDTO struct {
	Source              unified.Source  `json:"source"`
	ExternalID          string          `json:"external_id"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	TransactionDate     time.Time       `json:"transaction_date"`
	Description         string          `json:"description"`
	Category            string          `json:"category"`
	ClientID            *uuid.UUID      `json:"client_id"`
	ProjectID           *uuid.UUID      `json:"project_id"`
	ExternalClientName  string          `json:"external_client_name"`
	ExternalProjectName string          `json:"external_project_name"`
	Attachments         []string        `json:"attachments"`
}

func (d sourceTransactionDTO) toSource() unified.SourceTransaction {
	return unified.SourceTransaction{
		Source:              d.Source,
		ExternalID:          d.ExternalID,
		Amount:              d.Amount,
		Currency:            d.Currency,
		TransactionDate:     d.TransactionDate,
		Description:         d.Description,
		Category:            d.Category,
		ClientID:            d.ClientID,
		ProjectID:           d.ProjectID,
		ExternalClientName:  d.ExternalClientName,
		ExternalProjectName: d.ExternalProjectName,
		Attachments:         d.Attachments,
	}
}

type ingestRequest struct {
	UserID       uuid.UUID            `json:"user_id"`
	BaseCurrency string               `json:"base_currency"`
	Transaction  sourceTransactionDTO `json:"transaction"`
}

type ingestResponse struct {
	ID uuid.UUID `json:"id"`
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == uuid.Nil || req.BaseCurrency == "" {
		http.Error(w, "user_id and base_currency are required", http.StatusBadRequest)
		return
	}

	id, err := h.dedupSvc.Ingest(r.Context(), req.UserID, req.Transaction.toSource(), req.BaseCurrency)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ingestResponse{ID: id}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, "valid user_id query parameter is required", http.StatusBadRequest)
		return
	}

	filter := unified.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := unified.SyncStatus(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = &t
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = &t
		}
	}

	if s := r.URL.Query().Get("currency"); s != "" {
		filter.Currency = &s
	}

	txs, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, "valid user_id query parameter is required", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateStatusRequest struct {
	UserID uuid.UUID          `json:"user_id"`
	Status unified.SyncStatus `json:"status"`
	Reason string             `json:"reason"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), req.UserID, id, req.Status, req.Reason); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
