// Package classifier is the boundary to the trained two-target model.
//
// The pipeline treats the model as opaque: a batch of feature vectors in,
// one uptake probability per vaccine per row out. Two backends exist: a
// decision-forest artifact evaluated in process, and a remote scorer
// reached over HTTP. Both are deterministic for a given input batch.
// Callers receive a Classifier explicitly; nothing in this package keeps
// global model state.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
)

// DefaultThreshold is the canonical probability cutoff for turning uptake
// probabilities into binary labels. Historical call sites disagreed on the
// cutoff; this constant is the single source of truth, overridable through
// configuration.
const DefaultThreshold = 0.5

// Classifier scores reconciled feature matrices.
type Classifier interface {
	// PredictProba returns one uptake probability in [0,1] per input row
	// for each vaccine. Row order matches the input.
	PredictProba(ctx context.Context, features *frame.Frame) (h1n1, seasonal []float64, err error)
	// Describe names the backend for logs and reports.
	Describe() string
}

// Open builds a Classifier from a model spec: either "forest:<path>"
// naming a forest artifact on disk, or an http(s) URL of a remote scorer.
func Open(spec string) (Classifier, error) {
	switch {
	case strings.HasPrefix(spec, "forest:"):
		path := strings.TrimPrefix(spec, "forest:")
		if path == "" {
			return nil, fmt.Errorf("invalid model %q: forest: needs a path", spec)
		}
		return LoadForest(path)
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return NewHTTP(spec), nil
	default:
		return nil, fmt.Errorf("invalid model %q: expected forest:<path> or an http(s) scorer URL", spec)
	}
}

// Labels converts probabilities to binary labels: 1 at or above threshold,
// 0 below. A respondent labeled 0 is a predicted non-taker.
func Labels(probs []float64, threshold float64) []int {
	out := make([]int, len(probs))
	for i, p := range probs {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

// Predict is the label-mode convenience over PredictProba: one binary label
// per row per vaccine, cut at threshold.
func Predict(ctx context.Context, c Classifier, features *frame.Frame, threshold float64) (h1n1, seasonal []int, err error) {
	ph, ps, err := c.PredictProba(ctx, features)
	if err != nil {
		return nil, nil, err
	}
	return Labels(ph, threshold), Labels(ps, threshold), nil
}

// checkSchema verifies the matrix carries exactly the columns the model
// was fitted on, in order.
func checkSchema(features *frame.Frame, want []string) error {
	got := features.Columns()
	if len(got) != len(want) {
		return fmt.Errorf("feature matrix has %d columns, model expects %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("feature column %d is %q, model expects %q", i, got[i], want[i])
		}
	}
	return nil
}
