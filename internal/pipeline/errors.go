package pipeline

import "fmt"

// MissingSourceColumnError means a column needed to synthesize a derived
// feature is absent from an otherwise schema-valid batch. The batch is
// rejected wholesale; callers fix the input and resubmit.
type MissingSourceColumnError struct {
	Column  string
	Feature string
}

func (e *MissingSourceColumnError) Error() string {
	return fmt.Sprintf("column %q required for feature %q is missing from input", e.Column, e.Feature)
}

// NonNumericColumnError means an expected feature column still holds text
// after encoding, so no numeric matrix can be produced from it.
type NonNumericColumnError struct {
	Column string
}

func (e *NonNumericColumnError) Error() string {
	return fmt.Sprintf("expected feature column %q contains non-numeric values", e.Column)
}
