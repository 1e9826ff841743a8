package api

import (
	"encoding/json"
	"net/http"

	"mhagen/fintrack/internal/ingest"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/models"
	"mhagen/fintrack/internal/recon"
	"mhagen/fintrack/internal/similarity"
	"mhagen/fintrack/internal/store"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	txnRepo   *store.TransactionRepo
	stmtRepo  *store.StatementRepo
	ingestSvc *ingest.Service
	engine    *recon.Engine
	log       logging.Logger
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// IngestStatement accepts a parsed statement and persists its transactions.
func (h *Handlers) IngestStatement(w http.ResponseWriter, r *http.Request) {
	var parsed models.ParsedStatement
	if err := decode(r, &parsed); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid statement payload: "+err.Error())
		return
	}

	result, err := h.ingestSvc.Ingest(parsed)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ListStatements returns every stored statement, newest first.
func (h *Handlers) ListStatements(w http.ResponseWriter, r *http.Request) {
	stmts, err := h.stmtRepo.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stmts == nil {
		stmts = []models.Statement{}
	}
	h.writeJSON(w, http.StatusOK, stmts)
}

// ListTransactions returns stored transactions, optionally filtered by
// category or merchant.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var txns []models.Transaction
	var err error
	switch {
	case q.Get("merchant") != "":
		txns, err = h.txnRepo.ListByMerchant(q.Get("merchant"))
	case q.Get("category") != "":
		txns, err = h.txnRepo.ListByCategory(q.Get("category"))
	default:
		txns, err = h.txnRepo.ListAll()
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txns)
}

// Analyze runs a read-only duplicate analysis.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req recon.AnalyzeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid analyze request: "+err.Error())
		return
	}
	if req.Threshold == 0 {
		req.Threshold = similarity.DefaultThreshold
	}

	analysis, err := h.engine.Analyze(req.Threshold)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, analysis)
}

// Consolidate merges high-confidence duplicate groups automatically. The
// request must carry an explicit confirmation, as with every mutating action.
func (h *Handlers) Consolidate(w http.ResponseWriter, r *http.Request) {
	var req recon.ConsolidateRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid consolidate request: "+err.Error())
		return
	}
	if !req.Confirm {
		h.writeError(w, http.StatusBadRequest, "consolidation requires confirm: true")
		return
	}
	if req.Threshold == 0 {
		req.Threshold = similarity.DefaultThreshold
	}

	summary, err := h.engine.Consolidate(req.Threshold)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// Fix applies explicit operator-approved merges. The request must carry an
// explicit confirmation.
func (h *Handlers) Fix(w http.ResponseWriter, r *http.Request) {
	var req recon.FixRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid fix request: "+err.Error())
		return
	}
	if !req.Confirm {
		h.writeError(w, http.StatusBadRequest, "fix requires confirm: true")
		return
	}

	summary, err := h.engine.Fix(req.Fixes)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

type predictRequest struct {
	Merchant1 string  `json:"merchant1"`
	Merchant2 string  `json:"merchant2"`
	Threshold float64 `json:"threshold"`
}

// Predict scores a single merchant pair.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid predict request: "+err.Error())
		return
	}
	if req.Merchant1 == "" || req.Merchant2 == "" {
		h.writeError(w, http.StatusBadRequest, "merchant1 and merchant2 are required")
		return
	}
	if req.Threshold == 0 {
		req.Threshold = similarity.DefaultThreshold
	}

	prediction, err := similarity.Predict(req.Merchant1, req.Merchant2, req.Threshold)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, prediction)
}

type migrateRequest struct {
	Confirm bool `json:"confirm"`
}

// MigrateIdentities rewrites legacy transaction keys to the canonical scheme.
// The request must carry an explicit confirmation.
func (h *Handlers) MigrateIdentities(w http.ResponseWriter, r *http.Request) {
	var req migrateRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid migrate request: "+err.Error())
		return
	}
	if !req.Confirm {
		h.writeError(w, http.StatusBadRequest, "migration requires confirm: true")
		return
	}

	report, err := h.engine.MigrateIdentities()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}
