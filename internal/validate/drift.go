package validate

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// HeaderDrift renders the difference between the required header and the
// received one as patch text, one column per line. Useful when a partner
// renames columns upstream and the missing-column list alone does not make
// the change obvious. Returns "" when the headers agree on the required
// set.
func HeaderDrift(got []string) string {
	want := strings.Join(survey.RequiredColumns, "\n") + "\n"

	have := make([]string, 0, len(survey.RequiredColumns))
	present := make(map[string]bool, len(got))
	for _, col := range got {
		present[col] = true
	}
	for _, col := range survey.RequiredColumns {
		if present[col] {
			have = append(have, col)
		}
	}
	// Unknown columns are candidates for a rename, so they belong in the
	// drift view even though they are not required.
	for _, col := range got {
		if !survey.KnownColumns()[col] {
			have = append(have, col)
		}
	}
	text := strings.Join(have, "\n") + "\n"
	if text == want {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(text, want, false)
	patches := dmp.PatchMake(text, diffs)
	return dmp.PatchToText(patches)
}
