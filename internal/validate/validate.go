// Package validate checks uploaded survey extracts against the raw schema
// the pipeline requires, before any transformation runs.
package validate

import (
	"fmt"
	"strings"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// SchemaError reports every required column an upload is missing, not just
// the first, so one round trip is enough to fix the file.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("input is missing %d required column(s): %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Summary describes how an upload relates to the schema.
type Summary struct {
	Rows    int      `json:"rows"`
	Columns int      `json:"columns"`
	Missing []string `json:"missing_required,omitempty"`
	Unknown []string `json:"unknown_columns,omitempty"`
}

// OK reports whether the upload satisfies the required schema.
func (s *Summary) OK() bool { return len(s.Missing) == 0 }

// Missing lists the columns from required that f lacks, in required order.
func Missing(f *frame.Frame, required []string) []string {
	var out []string
	for _, col := range required {
		if !f.Has(col) {
			out = append(out, col)
		}
	}
	return out
}

// Check inspects a loaded table against the survey schema. It never fails;
// use Required when a missing column should abort.
func Check(f *frame.Frame) *Summary {
	s := &Summary{
		Rows:    f.Rows(),
		Columns: len(f.Columns()),
		Missing: Missing(f, survey.RequiredColumns),
	}
	known := survey.KnownColumns()
	for _, col := range f.Columns() {
		if !known[col] {
			s.Unknown = append(s.Unknown, col)
		}
	}
	return s
}

// Required returns a *SchemaError listing every absent required column, or
// nil when the table can enter the pipeline.
func Required(f *frame.Frame) error {
	if missing := Missing(f, survey.RequiredColumns); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
