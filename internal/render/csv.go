package render

import (
	"bytes"

	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
)

// csvRenderer emits only the annotated table; the summary numbers are
// derivable from it.
type csvRenderer struct{}

func (r *csvRenderer) Render(rep *report.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, rep.Table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
