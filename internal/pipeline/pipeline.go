// Package pipeline turns raw survey batches into the fixed 27-column
// numeric feature matrix the trained classifier expects.
//
// The transformation is a sequence of pure stage functions over immutable
// frames: prune, insurance ternary encode, ordinal encode, feature
// synthesis, categorical expansion, batch-median imputation, and schema
// reconciliation. Each stage is exported and unit-testable on its own;
// Engineer chains them. Imputation statistics are computed fresh from the
// batch on every call, so the same row can encode differently depending on
// what travels with it. That is a property of the method, not a defect.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
)

// Warning counts one categorical label that fell outside its ordinal
// dictionary and was substituted with a missing value before imputation.
type Warning struct {
	Column string `json:"column"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// Result is a successful transformation. Features always has exactly the
// expected columns, in order, every cell numeric.
type Result struct {
	Features *frame.Frame
	Warnings []Warning
	// Added lists expected columns the batch never produced (synthesized
	// as zeros); Dropped lists batch columns the model does not expect.
	Added   []string
	Dropped []string
}

// Engineer runs the full transformation. The zero value is not usable;
// construct with New.
type Engineer struct {
	log *zap.Logger
}

// New returns an Engineer logging through log. A nil log disables logging.
func New(log *zap.Logger) *Engineer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engineer{log: log}
}

// Transform runs the seven stages in order over one whole batch. On any
// error no partial output is returned. The input frame is never modified.
func (e *Engineer) Transform(f *frame.Frame) (*Result, error) {
	cur := Prune(f)
	e.log.Debug("pruned columns",
		zap.Int("before", len(f.Columns())),
		zap.Int("after", len(cur.Columns())))

	cur, err := EncodeInsurance(cur)
	if err != nil {
		return nil, err
	}

	cur, warns, err := EncodeOrdinals(cur)
	if err != nil {
		return nil, err
	}
	for _, w := range warns {
		e.log.Warn("unmapped category",
			zap.String("column", w.Column),
			zap.String("label", w.Label),
			zap.Int("count", w.Count))
	}

	cur, err = Synthesize(cur)
	if err != nil {
		return nil, err
	}

	cur, err = ExpandNominals(cur)
	if err != nil {
		return nil, err
	}

	cur, err = Impute(cur)
	if err != nil {
		return nil, err
	}

	features, added, dropped, err := Reconcile(cur)
	if err != nil {
		return nil, err
	}
	e.log.Debug("reconciled schema",
		zap.Int("rows", features.Rows()),
		zap.Strings("added", added),
		zap.Strings("dropped", dropped))

	return &Result{Features: features, Warnings: warns, Added: added, Dropped: dropped}, nil
}
