package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// sharedHTTPClient is used by all HTTP classifiers; the timeout is a
// backstop, callers pass tighter deadlines through ctx.
var sharedHTTPClient = &http.Client{
	Timeout: 2 * time.Minute,
}

// HTTP scores batches against a remote scorer that accepts the feature
// matrix as JSON and returns one probability per row per vaccine.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP returns a classifier that POSTs batches to url.
func NewHTTP(url string) *HTTP {
	return &HTTP{url: url, client: sharedHTTPClient}
}

type scoreRequest struct {
	Features []string    `json:"features"`
	Rows     [][]float64 `json:"rows"`
}

type scoreResponse struct {
	H1N1     []float64 `json:"h1n1"`
	Seasonal []float64 `json:"seasonal"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// PredictProba sends the batch and decodes the scorer's probabilities.
func (h *HTTP) PredictProba(ctx context.Context, features *frame.Frame) (h1n1, seasonal []float64, err error) {
	if err := checkSchema(features, survey.ExpectedFeatures); err != nil {
		return nil, nil, err
	}
	matrix, err := features.Matrix()
	if err != nil {
		return nil, nil, fmt.Errorf("building numeric matrix: %w", err)
	}

	body, err := json.Marshal(scoreRequest{Features: features.Columns(), Rows: matrix})
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling score request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("creating score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("scorer request failed: %w", err)
	}
	defer resp.Body.Close()

	const maxBodyBytes = 32 * 1024 * 1024
	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("reading scorer response: %w", err)
	}

	var sr scoreResponse
	if err := json.Unmarshal(respBytes, &sr); err != nil {
		return nil, nil, fmt.Errorf("parsing scorer response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if sr.Error != nil {
			return nil, nil, fmt.Errorf("scorer: %s", sr.Error.Message)
		}
		return nil, nil, fmt.Errorf("scorer: HTTP %d", resp.StatusCode)
	}
	if len(sr.H1N1) != len(matrix) || len(sr.Seasonal) != len(matrix) {
		return nil, nil, fmt.Errorf("scorer returned %d+%d probabilities for %d rows",
			len(sr.H1N1), len(sr.Seasonal), len(matrix))
	}
	for _, probs := range [][]float64{sr.H1N1, sr.Seasonal} {
		for i, p := range probs {
			if p < 0 || p > 1 {
				return nil, nil, fmt.Errorf("scorer probability %v at row %d outside [0,1]", p, i)
			}
		}
	}
	return sr.H1N1, sr.Seasonal, nil
}

// Describe names the backend.
func (h *HTTP) Describe() string { return h.url }
