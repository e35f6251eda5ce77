package render

import (
	"encoding/json"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
)

type jsonRenderer struct{}

// jsonReport widens the report envelope with the annotated rows, which the
// report type itself keeps out of its JSON form.
type jsonReport struct {
	*report.Report
	Rows []map[string]any `json:"rows"`
}

func (r *jsonRenderer) Render(rep *report.Report) ([]byte, error) {
	return json.MarshalIndent(jsonReport{Report: rep, Rows: tableRows(rep.Table)}, "", "  ")
}

// tableRows converts a frame into JSON-ready row objects, missing cells as
// null.
func tableRows(f *frame.Frame) []map[string]any {
	if f == nil {
		return nil
	}
	cols := f.Columns()
	rows := make([]map[string]any, f.Rows())
	for i := range rows {
		row := make(map[string]any, len(cols))
		for _, name := range cols {
			v := f.At(name, i)
			switch v.Kind {
			case frame.Number:
				row[name] = v.Num
			case frame.Text:
				row[name] = v.Str
			default:
				row[name] = nil
			}
		}
		rows[i] = row
	}
	return rows
}
