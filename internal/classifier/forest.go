package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// forestVersion is the artifact format this build reads.
const forestVersion = 1

// Forest evaluates a JSON artifact of per-vaccine decision-tree ensembles
// exported from the training side. Each tree is a flat node array; a row's
// probability is the mean of the leaf values it reaches across the
// ensemble.
type Forest struct {
	path     string
	features []string
	h1n1     []tree
	seasonal []tree
}

type forestFile struct {
	Version      int                 `json:"version"`
	FeatureNames []string            `json:"feature_names"`
	Ensembles    map[string]ensemble `json:"ensembles"`
}

type ensemble struct {
	Trees []tree `json:"trees"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// node is one split or leaf. Leaves have Left == -1; internal nodes send a
// row left when its feature value is <= Threshold.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// LoadForest reads and validates a forest artifact. The artifact's feature
// list must match the pipeline's output schema exactly, or the model and
// the matrix would silently disagree on column meaning.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	var ff forestFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing model artifact %s: %w", path, err)
	}
	if ff.Version != forestVersion {
		return nil, fmt.Errorf("model artifact %s: version %d, want %d", path, ff.Version, forestVersion)
	}
	if err := checkFeatureNames(ff.FeatureNames); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}

	f := &Forest{path: path, features: ff.FeatureNames}
	for _, target := range []survey.Vaccine{survey.VaccineH1N1, survey.VaccineSeasonal} {
		ens, ok := ff.Ensembles[string(target)]
		if !ok || len(ens.Trees) == 0 {
			return nil, fmt.Errorf("model artifact %s: no trees for target %q", path, target)
		}
		for ti, tr := range ens.Trees {
			if err := checkTree(tr, len(ff.FeatureNames)); err != nil {
				return nil, fmt.Errorf("model artifact %s: target %s tree %d: %w", path, target, ti, err)
			}
		}
		switch target {
		case survey.VaccineH1N1:
			f.h1n1 = ens.Trees
		case survey.VaccineSeasonal:
			f.seasonal = ens.Trees
		}
	}
	return f, nil
}

func checkFeatureNames(names []string) error {
	if len(names) != len(survey.ExpectedFeatures) {
		return fmt.Errorf("artifact lists %d features, pipeline produces %d",
			len(names), len(survey.ExpectedFeatures))
	}
	for i, want := range survey.ExpectedFeatures {
		if names[i] != want {
			return fmt.Errorf("artifact feature %d is %q, pipeline produces %q", i, names[i], want)
		}
	}
	return nil
}

func checkTree(tr tree, featureCount int) error {
	if len(tr.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range tr.Nodes {
		if n.Left == -1 {
			if n.Right != -1 {
				return fmt.Errorf("node %d: half-leaf (left=-1, right=%d)", i, n.Right)
			}
			if n.Value < 0 || n.Value > 1 {
				return fmt.Errorf("node %d: leaf value %v outside [0,1]", i, n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		if n.Left >= len(tr.Nodes) || n.Right >= len(tr.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		// Children must follow their parent in the node array. This is how
		// the exporter lays trees out, and it rules out cycles.
		if n.Left <= i || n.Right <= i {
			return fmt.Errorf("node %d: child index does not follow parent", i)
		}
	}
	return nil
}

// PredictProba evaluates both ensembles over the batch.
func (f *Forest) PredictProba(ctx context.Context, features *frame.Frame) (h1n1, seasonal []float64, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := checkSchema(features, f.features); err != nil {
		return nil, nil, err
	}
	matrix, err := features.Matrix()
	if err != nil {
		return nil, nil, fmt.Errorf("building numeric matrix: %w", err)
	}
	h1n1 = make([]float64, len(matrix))
	seasonal = make([]float64, len(matrix))
	for i, row := range matrix {
		h1n1[i] = scoreRow(f.h1n1, row)
		seasonal[i] = scoreRow(f.seasonal, row)
	}
	return h1n1, seasonal, nil
}

// scoreRow walks every tree to a leaf and averages the leaf values.
func scoreRow(trees []tree, row []float64) float64 {
	var sum float64
	for _, tr := range trees {
		i := 0
		for tr.Nodes[i].Left != -1 {
			n := tr.Nodes[i]
			if row[n.Feature] <= n.Threshold {
				i = n.Left
			} else {
				i = n.Right
			}
		}
		sum += tr.Nodes[i].Value
	}
	return sum / float64(len(trees))
}

// Describe names the backend.
func (f *Forest) Describe() string {
	return fmt.Sprintf("forest:%s (%d+%d trees)", f.path, len(f.h1n1), len(f.seasonal))
}
