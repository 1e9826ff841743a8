package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhagen/fintrack/internal/cluster"
	"mhagen/fintrack/internal/ingest"
	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/recon"
	"mhagen/fintrack/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := &logging.MockLogger{}
	router := NewRouter(
		store.NewTransactionRepo(db),
		store.NewStatementRepo(db),
		ingest.NewService(db, log),
		recon.NewEngine(db, cluster.CanonicalShortest, log),
		log,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func statementPayload() map[string]any {
	return map[string]any{
		"institution": "chase",
		"month":       "2024-01",
		"transactions": []map[string]any{
			{
				"date":        "01/15/2024",
				"description": "NETFLIX.COM",
				"amount":      "15.49",
				"category":    "Entertainment",
			},
			{
				"date":        "01/16/2024",
				"description": "NETFLIX",
				"amount":      "15.49",
				"category":    "Entertainment",
			},
		},
	}
}

func TestIngestStatement(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/statements", statementPayload())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Inserted int `json:"inserted"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 2, result.Inserted)
}

func TestIngestStatement_MissingInstitution(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/statements", map[string]any{"month": "2024-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestListTransactionsAndStatements(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv.URL+"/api/statements", statementPayload())

	resp, err := http.Get(srv.URL + "/api/transactions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var txns []map[string]any
	decodeBody(t, resp, &txns)
	assert.Len(t, txns, 2)

	resp, err = http.Get(srv.URL + "/api/statements")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stmts []map[string]any
	decodeBody(t, resp, &stmts)
	assert.Len(t, stmts, 1)
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv.URL+"/api/statements", statementPayload())

	resp := postJSON(t, srv.URL+"/api/dedup/analyze", map[string]any{"threshold": 0.65})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var analysis struct {
		MerchantsScanned int `json:"merchantsScanned"`
		Groups           []struct {
			Canonical string   `json:"canonical"`
			Variants  []string `json:"variants"`
		} `json:"groups"`
	}
	decodeBody(t, resp, &analysis)
	assert.Equal(t, 2, analysis.MerchantsScanned)
	require.Len(t, analysis.Groups, 1)
	assert.Equal(t, "NETFLIX", analysis.Groups[0].Canonical)
}

func TestAnalyze_BadThreshold(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/dedup/analyze", map[string]any{"threshold": 0.3})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConsolidate_DefaultsThreshold(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/dedup/consolidate", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		GroupsProcessed int `json:"groupsProcessed"`
	}
	decodeBody(t, resp, &summary)
	assert.Equal(t, 0, summary.GroupsProcessed)
}

// Mutating endpoints accept the documented {.., confirm} body and refuse to
// run without confirm: true.
func TestConsolidate_RequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv.URL+"/api/statements", statementPayload())

	resp := postJSON(t, srv.URL+"/api/dedup/consolidate", map[string]any{"threshold": 0.86})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nothing was merged by the refused request.
	resp, err := http.Get(srv.URL + "/api/transactions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var txns []map[string]any
	decodeBody(t, resp, &txns)
	assert.Len(t, txns, 2)

	resp = postJSON(t, srv.URL+"/api/dedup/consolidate", map[string]any{"threshold": 0.86, "confirm": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFix_RequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)

	fixes := []map[string]any{{
		"groupId":           "1",
		"canonicalMerchant": "NETFLIX",
		"transactionIds":    []string{"SOMEKEY"},
	}}

	resp := postJSON(t, srv.URL+"/api/dedup/fix", map[string]any{"fixes": fixes})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/dedup/fix", map[string]any{"fixes": fixes, "confirm": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFix_EmptyListRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/dedup/fix", map[string]any{"fixes": []any{}, "confirm": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPredict(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/dedup/predict", map[string]any{
		"merchant1": "NETFLIX",
		"merchant2": "NETFLIX.COM",
		"threshold": 0.6,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var prediction struct {
		IsDuplicate bool    `json:"isDuplicate"`
		Score       float64 `json:"score"`
		Confidence  string  `json:"confidence"`
	}
	decodeBody(t, resp, &prediction)
	assert.True(t, prediction.IsDuplicate)
	assert.Equal(t, "MEDIUM", prediction.Confidence)
	assert.InDelta(t, 0.657, prediction.Score, 0.001)
}

func TestPredict_RequiresBothMerchants(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/dedup/predict", map[string]any{"merchant1": "NETFLIX"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMigrate_RequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/admin/migrate-ids", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/admin/migrate-ids", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Scanned int `json:"scanned"`
	}
	decodeBody(t, resp, &report)
	assert.Equal(t, 0, report.Scanned)
}

func TestUnknownFieldsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/dedup/analyze", map[string]any{"thresold": 0.75})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
