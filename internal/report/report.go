// Package report assembles prediction runs into the tables and summaries
// the outreach side consumes: the input rows annotated with probabilities
// and labels, headline counts per vaccine, and barrier profiles for the
// predicted non-takers.
package report

import (
	"fmt"
	"time"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/pipeline"
	"github.com/JemmyKuria/Vaccine-Project/internal/stats"
)

// Columns appended to the input table by Assemble.
const (
	ColH1N1Prob      = "h1n1_prob"
	ColSeasonalProb  = "seasonal_prob"
	ColH1N1Label     = "h1n1_label"
	ColSeasonalLabel = "seasonal_label"
)

// Report is one complete prediction run.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Model       string             `json:"model"`
	Threshold   float64            `json:"threshold"`
	Input       Input              `json:"input"`
	Summary     Summary            `json:"summary"`
	Warnings    []pipeline.Warning `json:"unmapped_categories,omitempty"`
	// Table is the annotated input; renderers decide how to serialize it.
	Table *frame.Frame `json:"-"`
}

// Input identifies the scored file.
type Input struct {
	Path string `json:"path,omitempty"`
	Hash string `json:"hash,omitempty"`
	Rows int    `json:"rows"`
}

// Summary carries the headline numbers shown before any table.
type Summary struct {
	Rows     int            `json:"rows"`
	H1N1     VaccineSummary `json:"h1n1"`
	Seasonal VaccineSummary `json:"seasonal"`
}

// VaccineSummary counts predicted non-takers for one vaccine.
type VaccineSummary struct {
	NonTakers     int     `json:"predicted_non_takers"`
	NonTakerShare float64 `json:"non_taker_share"`
	MeanProb      float64 `json:"mean_probability"`
}

// Build assembles the full report for one scored dataset.
func Build(ds *dataset.Dataset, res *pipeline.Result, h1n1, seasonal []float64, model string, threshold float64) (*Report, error) {
	table, err := Assemble(ds.Table, h1n1, seasonal, threshold)
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Model:       model,
		Threshold:   threshold,
		Input:       Input{Path: ds.Path, Hash: ds.Hash, Rows: ds.Table.Rows()},
		Summary:     Summarize(h1n1, seasonal, threshold),
		Warnings:    res.Warnings,
		Table:       table,
	}, nil
}

// Assemble appends probability and label columns to the original table,
// keeping every input column for context.
func Assemble(raw *frame.Frame, h1n1, seasonal []float64, threshold float64) (*frame.Frame, error) {
	if len(h1n1) != raw.Rows() || len(seasonal) != raw.Rows() {
		return nil, fmt.Errorf("got %d+%d probabilities for %d rows", len(h1n1), len(seasonal), raw.Rows())
	}
	out := raw
	var err error
	appendCol := func(name string, vals []frame.Value) {
		if err != nil {
			return
		}
		out, err = out.WithColumn(name, vals)
	}
	appendCol(ColH1N1Prob, numColumn(h1n1))
	appendCol(ColSeasonalProb, numColumn(seasonal))
	appendCol(ColH1N1Label, labelColumn(h1n1, threshold))
	appendCol(ColSeasonalLabel, labelColumn(seasonal, threshold))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func numColumn(vals []float64) []frame.Value {
	out := make([]frame.Value, len(vals))
	for i, v := range vals {
		out[i] = frame.Num(v)
	}
	return out
}

func labelColumn(probs []float64, threshold float64) []frame.Value {
	labels := classifier.Labels(probs, threshold)
	out := make([]frame.Value, len(labels))
	for i, l := range labels {
		out[i] = frame.Num(float64(l))
	}
	return out
}

// Summarize computes the per-vaccine headline counts.
func Summarize(h1n1, seasonal []float64, threshold float64) Summary {
	return Summary{
		Rows:     len(h1n1),
		H1N1:     vaccineSummary(h1n1, threshold),
		Seasonal: vaccineSummary(seasonal, threshold),
	}
}

func vaccineSummary(probs []float64, threshold float64) VaccineSummary {
	non := 0
	for _, l := range classifier.Labels(probs, threshold) {
		if l == 0 {
			non++
		}
	}
	vs := VaccineSummary{NonTakers: non}
	if len(probs) > 0 {
		vs.NonTakerShare = float64(non) / float64(len(probs))
		vs.MeanProb = stats.Mean(probs)
	}
	return vs
}
