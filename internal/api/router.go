// Package api exposes the deduplication engine and ingestion pipeline over
// HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mhagen/fintrack/internal/ingest"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/recon"
	"mhagen/fintrack/internal/store"
)

// NewRouter creates the chi router with all API routes mounted.
func NewRouter(
	txnRepo *store.TransactionRepo,
	stmtRepo *store.StatementRepo,
	ingestSvc *ingest.Service,
	engine *recon.Engine,
	log logging.Logger,
) http.Handler {
	h := &Handlers{
		txnRepo:   txnRepo,
		stmtRepo:  stmtRepo,
		ingestSvc: ingestSvc,
		engine:    engine,
		log:       log,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api", func(r chi.Router) {
		// Ingestion.
		r.Post("/statements", h.IngestStatement)
		r.Get("/statements", h.ListStatements)

		// Transactions.
		r.Get("/transactions", h.ListTransactions)

		// Deduplication. One route per request variant.
		r.Post("/dedup/analyze", h.Analyze)
		r.Post("/dedup/consolidate", h.Consolidate)
		r.Post("/dedup/fix", h.Fix)
		r.Post("/dedup/predict", h.Predict)

		// Administration.
		r.Post("/admin/migrate-ids", h.MigrateIdentities)
	})

	return r
}
