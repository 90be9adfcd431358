package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skillancer/ledger/internal/dedup"
	"github.com/skillancer/ledger/internal/importer"
)

type Handler struct {
	importSvc *importer.Service
	dedupSvc  *dedup.Service
}

func NewHandler(importSvc *importer.Service, dedupSvc *dedup.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		dedupSvc:  dedupSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importFeed)
}

type importResponse struct {
	Parsed   int         `json:"parsed"`
	Ingested int         `json:"ingested"`
	Failed   int         `json:"failed"`
	IDs      []uuid.UUID `json:"ids"`
}

// importFeed parses an uploaded feed file and pushes every row through the
// ingestion gate. Rows already known via the exact-key channel come back with
// their existing id, so re-uploading the same file is harmless.
func (h *Handler) importFeed(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID, err := uuid.Parse(r.FormValue("user_id"))
	if err != nil {
		http.Error(w, "valid user_id field is required", http.StatusBadRequest)
		return
	}

	baseCurrency := r.FormValue("base_currency")
	if baseCurrency == "" {
		http.Error(w, "base_currency field is required", http.StatusBadRequest)
		return
	}

	feed := importer.Feed(r.FormValue("feed"))
	if feed == "" {
		feed = importer.FeedBankCSV
	}

	currency := r.FormValue("currency")
	if currency == "" {
		currency = baseCurrency
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	txs, err := h.importSvc.Import(feed, file, currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := importResponse{Parsed: len(txs), IDs: make([]uuid.UUID, 0, len(txs))}

	for _, src := range txs {
		id, err := h.dedupSvc.Ingest(r.Context(), userID, src, baseCurrency)
		if err != nil {
			slog.Error("failed to ingest imported transaction",
				"user_id", userID, "external_id", src.ExternalID, "error", err)

			resp.Failed++

			continue
		}

		resp.Ingested++
		resp.IDs = append(resp.IDs, id)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
