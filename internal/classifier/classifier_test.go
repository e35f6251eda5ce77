package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// featureFrame builds a reconciled matrix of zeros with selected columns
// overridden.
func featureFrame(t *testing.T, rows int, override map[string][]float64) *frame.Frame {
	t.Helper()
	f := frame.New(rows)
	for _, name := range survey.ExpectedFeatures {
		vals := make([]frame.Value, rows)
		src, ok := override[name]
		for i := range vals {
			if ok {
				vals[i] = frame.Num(src[i])
			} else {
				vals[i] = frame.Num(0)
			}
		}
		var err error
		f, err = f.WithColumn(name, vals)
		if err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func leaf(p float64) tree {
	return tree{Nodes: []node{{Left: -1, Right: -1, Value: p}}}
}

func split(feature int, threshold, low, high float64) tree {
	return tree{Nodes: []node{
		{Feature: feature, Threshold: threshold, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: low},
		{Left: -1, Right: -1, Value: high},
	}}
}

func writeForest(t *testing.T, names []string, h1n1, seasonal []tree) string {
	t.Helper()
	data, err := json.Marshal(forestFile{
		Version:      forestVersion,
		FeatureNames: names,
		Ensembles: map[string]ensemble{
			"h1n1":     {Trees: h1n1},
			"seasonal": {Trees: seasonal},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLabels(t *testing.T) {
	got := Labels([]float64{0.5, 0.49, 1, 0}, DefaultThreshold)
	if diff := cmp.Diff([]int{1, 0, 1, 0}, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestPredictCutsAtThreshold(t *testing.T) {
	path := writeForest(t, survey.ExpectedFeatures,
		[]tree{split(0, 1.5, 0.25, 0.75)},
		[]tree{leaf(0.5)},
	)
	f, err := LoadForest(path)
	if err != nil {
		t.Fatal(err)
	}
	features := featureFrame(t, 2, map[string][]float64{"h1n1_concern": {1, 3}})
	h1n1, seasonal, err := Predict(context.Background(), f, features, DefaultThreshold)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, h1n1); diff != "" {
		t.Errorf("h1n1 labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1}, seasonal); diff != "" {
		t.Errorf("seasonal labels mismatch (-want +got):\n%s", diff)
	}
}

func TestOpen(t *testing.T) {
	c, err := Open("http://scorer.local/v1/score")
	if err != nil {
		t.Fatalf("Open(url) error: %v", err)
	}
	if got := c.Describe(); got != "http://scorer.local/v1/score" {
		t.Errorf("Describe() = %q", got)
	}

	for _, bad := range []string{"", "forest:", "randomforest", "ftp://x"} {
		if _, err := Open(bad); err == nil {
			t.Errorf("Open(%q) error = nil, want error", bad)
		}
	}
}

func TestForestSingleLeafProbabilities(t *testing.T) {
	path := writeForest(t, survey.ExpectedFeatures,
		[]tree{leaf(0.75), leaf(0.5)},
		[]tree{leaf(0.25)},
	)
	f, err := LoadForest(path)
	if err != nil {
		t.Fatalf("LoadForest() error: %v", err)
	}
	h1n1, seasonal, err := f.PredictProba(context.Background(), featureFrame(t, 2, nil))
	if err != nil {
		t.Fatalf("PredictProba() error: %v", err)
	}
	if diff := cmp.Diff([]float64{0.625, 0.625}, h1n1); diff != "" {
		t.Errorf("h1n1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.25, 0.25}, seasonal); diff != "" {
		t.Errorf("seasonal mismatch (-want +got):\n%s", diff)
	}
}

func TestForestSplitRouting(t *testing.T) {
	// Split on h1n1_concern (feature 0) at 1.5.
	path := writeForest(t, survey.ExpectedFeatures,
		[]tree{split(0, 1.5, 0.25, 0.75)},
		[]tree{leaf(0.5)},
	)
	f, err := LoadForest(path)
	if err != nil {
		t.Fatalf("LoadForest() error: %v", err)
	}
	features := featureFrame(t, 2, map[string][]float64{"h1n1_concern": {1, 3}})
	h1n1, _, err := f.PredictProba(context.Background(), features)
	if err != nil {
		t.Fatalf("PredictProba() error: %v", err)
	}
	if diff := cmp.Diff([]float64{0.25, 0.75}, h1n1); diff != "" {
		t.Errorf("h1n1 mismatch (-want +got):\n%s", diff)
	}
}

func TestForestDeterminism(t *testing.T) {
	path := writeForest(t, survey.ExpectedFeatures,
		[]tree{split(0, 1.5, 0.25, 0.75), leaf(0.5)},
		[]tree{leaf(0.5)},
	)
	f, err := LoadForest(path)
	if err != nil {
		t.Fatal(err)
	}
	features := featureFrame(t, 3, map[string][]float64{"h1n1_concern": {0, 2, 1}})
	first, _, err := f.PredictProba(context.Background(), features)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := f.PredictProba(context.Background(), features)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two runs over the same batch disagree (-first +second):\n%s", diff)
	}
}

func TestLoadForestRejectsWrongFeatureList(t *testing.T) {
	names := make([]string, len(survey.ExpectedFeatures))
	copy(names, survey.ExpectedFeatures)
	names[3] = "surprise_feature"
	path := writeForest(t, names, []tree{leaf(0.5)}, []tree{leaf(0.5)})
	if _, err := LoadForest(path); err == nil {
		t.Fatal("LoadForest() error = nil, want feature mismatch error")
	}

	path = writeForest(t, names[:10], []tree{leaf(0.5)}, []tree{leaf(0.5)})
	if _, err := LoadForest(path); err == nil {
		t.Fatal("LoadForest() error = nil, want feature count error")
	}
}

func TestLoadForestRejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name string
		bad  tree
	}{
		{"empty", tree{}},
		{"half leaf", tree{Nodes: []node{{Left: -1, Right: 2, Value: 0.5}}}},
		{"leaf value out of range", tree{Nodes: []node{{Left: -1, Right: -1, Value: 1.5}}}},
		{"child before parent", tree{Nodes: []node{
			{Feature: 0, Threshold: 1, Left: 1, Right: 0},
			{Left: -1, Right: -1, Value: 0.5},
		}}},
		{"child out of range", tree{Nodes: []node{{Feature: 0, Threshold: 1, Left: 1, Right: 9}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeForest(t, survey.ExpectedFeatures, []tree{tt.bad}, []tree{leaf(0.5)})
			if _, err := LoadForest(path); err == nil {
				t.Error("LoadForest() error = nil, want validation error")
			}
		})
	}
}

func TestLoadForestRejectsMissingEnsemble(t *testing.T) {
	data, err := json.Marshal(forestFile{
		Version:      forestVersion,
		FeatureNames: survey.ExpectedFeatures,
		Ensembles:    map[string]ensemble{"h1n1": {Trees: []tree{leaf(0.5)}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadForest(path); err == nil || !strings.Contains(err.Error(), "seasonal") {
		t.Fatalf("LoadForest() error = %v, want missing seasonal ensemble", err)
	}
}

func TestHTTPPredictProba(t *testing.T) {
	var gotReq scoreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(scoreResponse{
			H1N1:     []float64{0.9, 0.1},
			Seasonal: []float64{0.375, 0.625},
		})
	}))
	defer srv.Close()

	c := NewHTTP(srv.URL)
	features := featureFrame(t, 2, map[string][]float64{"health_insurance": {1, -1}})
	h1n1, seasonal, err := c.PredictProba(context.Background(), features)
	if err != nil {
		t.Fatalf("PredictProba() error: %v", err)
	}
	if diff := cmp.Diff([]float64{0.9, 0.1}, h1n1); diff != "" {
		t.Errorf("h1n1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.375, 0.625}, seasonal); diff != "" {
		t.Errorf("seasonal mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(survey.ExpectedFeatures, gotReq.Features); diff != "" {
		t.Errorf("request features mismatch (-want +got):\n%s", diff)
	}
	if len(gotReq.Rows) != 2 || len(gotReq.Rows[0]) != len(survey.ExpectedFeatures) {
		t.Errorf("request rows shape = %dx%d", len(gotReq.Rows), len(gotReq.Rows[0]))
	}
}

func TestHTTPSurfacesScorerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "model not loaded"}})
	}))
	defer srv.Close()

	_, _, err := NewHTTP(srv.URL).PredictProba(context.Background(), featureFrame(t, 1, nil))
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("PredictProba() error = %v, want scorer message", err)
	}
}

func TestHTTPRejectsShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{H1N1: []float64{0.5}, Seasonal: []float64{0.5}})
	}))
	defer srv.Close()

	_, _, err := NewHTTP(srv.URL).PredictProba(context.Background(), featureFrame(t, 2, nil))
	if err == nil {
		t.Fatal("PredictProba() error = nil, want length mismatch error")
	}
}

func TestHTTPHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{H1N1: []float64{0.5}, Seasonal: []float64{0.5}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewHTTP(srv.URL).PredictProba(ctx, featureFrame(t, 1, nil)); err == nil {
		t.Fatal("PredictProba(cancelled ctx) error = nil, want error")
	}
}

func TestPredictProbaRejectsWrongSchema(t *testing.T) {
	path := writeForest(t, survey.ExpectedFeatures, []tree{leaf(0.5)}, []tree{leaf(0.5)})
	f, err := LoadForest(path)
	if err != nil {
		t.Fatal(err)
	}
	bad := frame.New(1)
	bad, err = bad.WithColumn("h1n1_concern", []frame.Value{frame.Num(1)})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.PredictProba(context.Background(), bad); err == nil {
		t.Fatal("PredictProba(wrong schema) error = nil, want error")
	}
}
