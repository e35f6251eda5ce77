package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/runlog"
)

// stubModel returns fixed probabilities for every row.
type stubModel struct {
	h1n1     float64
	seasonal float64
	err      error
}

func (m *stubModel) PredictProba(ctx context.Context, features *frame.Frame) ([]float64, []float64, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	n := features.Rows()
	h1n1 := make([]float64, n)
	seasonal := make([]float64, n)
	for i := 0; i < n; i++ {
		h1n1[i] = m.h1n1
		seasonal[i] = m.seasonal
	}
	return h1n1, seasonal, nil
}

func (m *stubModel) Describe() string { return "stub" }

// batchCSV covers the required schema plus every source column the derived
// features need, so a happy-path post flows through the whole pipeline.
const batchCSV = `respondent_id,h1n1_concern,behavioral_antiviral_meds,behavioral_avoidance,behavioral_face_mask,behavioral_wash_hands,behavioral_large_gatherings,behavioral_outside_home,behavioral_touch_face,household_adults,household_children,doctor_recc_h1n1,doctor_recc_seasonal,opinion_h1n1_risk,health_insurance
1,2,0,1,0,1,0,0,1,2,1,1,0,4,1
2,1,0,0,0,1,1,0,0,1,0,0,0,2,0
`

func newTestServer(t *testing.T, model *stubModel, store *runlog.Store) *httptest.Server {
	t.Helper()
	srv := New(model, Options{History: store})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postCSV(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/predictions", "text/csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/predictions error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &stubModel{}, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestSchema(t *testing.T) {
	ts := newTestServer(t, &stubModel{}, nil)
	resp, err := http.Get(ts.URL + "/v1/schema")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var decoded struct {
		Required []string `json:"required_columns"`
		Features []string `json:"expected_features"`
		Model    string   `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Required) == 0 {
		t.Error("schema reports no required columns")
	}
	if len(decoded.Features) != 27 {
		t.Errorf("schema reports %d features, want 27", len(decoded.Features))
	}
	if decoded.Model != "stub" {
		t.Errorf("schema model = %q, want %q", decoded.Model, "stub")
	}
}

func TestPredictions(t *testing.T) {
	ts := newTestServer(t, &stubModel{h1n1: 0.75, seasonal: 0.25}, nil)
	resp, decoded := postCSV(t, ts, batchCSV)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, decoded)
	}

	summary, ok := decoded["summary"].(map[string]any)
	if !ok {
		t.Fatalf("response has no summary: %v", decoded)
	}
	if got := summary["rows"].(float64); got != 2 {
		t.Errorf("summary.rows = %v, want 2", got)
	}
	seasonal := summary["seasonal"].(map[string]any)
	if got := seasonal["predicted_non_takers"].(float64); got != 2 {
		t.Errorf("seasonal non-takers = %v, want 2", got)
	}

	rows, ok := decoded["rows"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("rows = %v, want 2 annotated rows", decoded["rows"])
	}
	first := rows[0].(map[string]any)
	if got := first["h1n1_prob"].(float64); got != 0.75 {
		t.Errorf("rows[0].h1n1_prob = %v, want 0.75", got)
	}
	if got := first["seasonal_label"].(float64); got != 0 {
		t.Errorf("rows[0].seasonal_label = %v, want 0", got)
	}
}

func errorMessage(t *testing.T, decoded map[string]any) string {
	t.Helper()
	env, ok := decoded["error"].(map[string]any)
	if !ok {
		t.Fatalf("response has no error envelope: %v", decoded)
	}
	msg, _ := env["message"].(string)
	return msg
}

func TestPredictionsMissingColumns(t *testing.T) {
	ts := newTestServer(t, &stubModel{}, nil)
	resp, decoded := postCSV(t, ts, "respondent_id\n1\n")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if msg := errorMessage(t, decoded); !strings.Contains(msg, "missing") {
		t.Errorf("error message %q does not mention missing columns", msg)
	}
}

func TestPredictionsEmptyBody(t *testing.T) {
	ts := newTestServer(t, &stubModel{}, nil)
	resp, _ := postCSV(t, ts, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPredictionsMissingSourceColumn(t *testing.T) {
	// Drop health_insurance: the schema check passes but the encoder has
	// nothing to build the insurance feature from.
	lines := strings.Split(strings.TrimSpace(batchCSV), "\n")
	var trimmed []string
	for _, line := range lines {
		idx := strings.LastIndex(line, ",")
		trimmed = append(trimmed, line[:idx])
	}
	body := strings.Join(trimmed, "\n") + "\n"

	ts := newTestServer(t, &stubModel{}, nil)
	resp, decoded := postCSV(t, ts, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if msg := errorMessage(t, decoded); !strings.Contains(msg, "health_insurance") {
		t.Errorf("error message %q does not name the missing source column", msg)
	}
}

func TestPredictionsScorerFailure(t *testing.T) {
	ts := newTestServer(t, &stubModel{err: fmt.Errorf("model not loaded")}, nil)
	resp, decoded := postCSV(t, ts, batchCSV)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if msg := errorMessage(t, decoded); !strings.Contains(msg, "model not loaded") {
		t.Errorf("error message %q does not surface the scorer failure", msg)
	}
}

func TestRunsWithoutHistory(t *testing.T) {
	ts := newTestServer(t, &stubModel{}, nil)
	resp, err := http.Get(ts.URL + "/v1/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var decoded struct {
		Runs []runlog.Record `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Runs) != 0 {
		t.Errorf("runs = %v, want empty", decoded.Runs)
	}
}

func TestPredictionsRecordRuns(t *testing.T) {
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ts := newTestServer(t, &stubModel{h1n1: 0.75, seasonal: 0.25}, store)
	if resp, decoded := postCSV(t, ts, batchCSV); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, decoded)
	}

	resp, err := http.Get(ts.URL + "/v1/runs?limit=5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var decoded struct {
		Runs []runlog.Record `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(decoded.Runs))
	}
	rec := decoded.Runs[0]
	if rec.Rows != 2 {
		t.Errorf("recorded rows = %d, want 2", rec.Rows)
	}
	if rec.SeasonalNonTakers != 2 {
		t.Errorf("recorded seasonal non-takers = %d, want 2", rec.SeasonalNonTakers)
	}
	if rec.Model != "stub" {
		t.Errorf("recorded model = %q, want %q", rec.Model, "stub")
	}
	if !strings.HasPrefix(rec.InputHash, "sha256:") {
		t.Errorf("recorded hash = %q, want sha256 prefix", rec.InputHash)
	}
}

func TestRunsRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t, &stubModel{}, nil)
	resp, err := http.Get(ts.URL + "/v1/runs?limit=lots")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
