package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/skillancer/ledger/internal/config"
	"github.com/skillancer/ledger/internal/currency"
	"github.com/skillancer/ledger/internal/database"
	"github.com/skillancer/ledger/internal/dedup"
	ledgerHttp "github.com/skillancer/ledger/internal/http"
	dedupHandler "github.com/skillancer/ledger/internal/http/dedup"
	importHandler "github.com/skillancer/ledger/internal/http/importcsv"
	txHandler "github.com/skillancer/ledger/internal/http/transaction"
	"github.com/skillancer/ledger/internal/importer"
	"github.com/skillancer/ledger/internal/unified"
	"github.com/skillancer/ledger/internal/unified/store"
)

func main() {
	// Optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ledgerStore := store.New(db)

	var (
		unifiedService = unified.NewService(ledgerStore)
		rateService    = currency.NewService(cfg.Rates.BaseURL)
		dedupService   = dedup.NewService(ledgerStore, rateService, dedup.Config{
			AmountTolerance:    cfg.Dedup.AmountTolerance,
			DateToleranceDays:  cfg.Dedup.DateToleranceDays,
			AutoMergeThreshold: cfg.Dedup.AutoMergeThreshold,
			ReviewThreshold:    cfg.Dedup.ReviewThreshold,
		})
		importService = importer.NewService()
	)

	var (
		transactionH = txHandler.NewHandler(unifiedService, dedupService)
		dedupH       = dedupHandler.NewHandler(dedupService)
		importH      = importHandler.NewHandler(importService, dedupService)
	)

	router := ledgerHttp.New(transactionH, dedupH, importH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
