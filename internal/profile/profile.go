// Package profile summarizes dataset quality: what each column holds, how
// much is missing, and what the numbers look like. Run before a batch is
// scored, it shows what imputation will have to invent; run across the
// pipeline, it shows the missing values disappearing.
package profile

import (
	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/stats"
)

// Column types reported by Describe.
const (
	TypeNumeric = "numeric"
	TypeText    = "text"
	TypeEmpty   = "empty"
)

// Profile describes one table.
type Profile struct {
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// Column is the quality summary of one column.
type Column struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Missing      int      `json:"missing"`
	MissingShare float64  `json:"missing_share"`
	Distinct     int      `json:"distinct"`
	Numeric      *Numeric `json:"numeric,omitempty"`
}

// Numeric carries the five-number view of a numeric column, computed over
// its non-missing cells.
type Numeric struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Max    float64 `json:"max"`
}

// Report pairs the raw table's profile with the feature matrix it became.
type Report struct {
	Input         *Profile `json:"input"`
	Features      *Profile `json:"features,omitempty"`
	MissingBefore int      `json:"missing_before"`
	MissingAfter  int      `json:"missing_after"`
}

// Describe profiles every column of a table.
func Describe(f *frame.Frame) *Profile {
	p := &Profile{Rows: f.Rows()}
	for _, name := range f.Columns() {
		p.Columns = append(p.Columns, describeColumn(f, name))
	}
	return p
}

func describeColumn(f *frame.Frame, name string) Column {
	col := f.Col(name)
	c := Column{Name: name}

	distinct := make(map[string]bool)
	for _, v := range col {
		if v.IsMissing() {
			c.Missing++
			continue
		}
		distinct[v.String()] = true
	}
	c.Distinct = len(distinct)
	if len(col) > 0 {
		c.MissingShare = float64(c.Missing) / float64(len(col))
	}

	switch {
	case c.Missing == len(col):
		c.Type = TypeEmpty
	case f.IsNumeric(name):
		c.Type = TypeNumeric
		xs := f.NumericValues(name)
		min, max := stats.MinMax(xs)
		c.Numeric = &Numeric{
			Min:    min,
			Mean:   stats.Mean(xs),
			Median: stats.Median(xs),
			Std:    stats.Std(xs),
			Max:    max,
		}
	default:
		c.Type = TypeText
	}
	return c
}

// Compare profiles a table before and after transformation. features may
// be nil when the pipeline rejected the batch.
func Compare(input, features *frame.Frame) *Report {
	r := &Report{Input: Describe(input)}
	r.MissingBefore = totalMissing(r.Input)
	if features != nil {
		r.Features = Describe(features)
		r.MissingAfter = totalMissing(r.Features)
	}
	return r
}

func totalMissing(p *Profile) int {
	total := 0
	for _, c := range p.Columns {
		total += c.Missing
	}
	return total
}
