package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skillancer/ledger/internal/http/dedup"
	"github.com/skillancer/ledger/internal/http/importcsv"
	"github.com/skillancer/ledger/internal/http/transaction"
)

func New(
	transactionsV1 *transaction.Handler,
	dedupV1 *dedup.Handler,
	importV1 *importcsv.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/dedup", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			dedupV1.Routes(r)
		})

		r.Route("/import", importV1.Routes)
	})

	return router
}
