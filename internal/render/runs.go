package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JemmyKuria/Vaccine-Project/internal/runlog"
)

// Runs renders scoring history as json or md, newest first as given.
func Runs(format string, recs []runlog.Record) ([]byte, error) {
	switch format {
	case "json":
		if recs == nil {
			recs = []runlog.Record{}
		}
		return json.MarshalIndent(recs, "", "  ")
	case "md":
		var buf bytes.Buffer
		buf.WriteString("| Started | Rows | Model | H1N1 non-takers | Seasonal non-takers | Warnings |\n|---|---:|---|---:|---:|---:|\n")
		for _, r := range recs {
			fmt.Fprintf(&buf, "| %s | %d | %s | %d | %d | %d |\n",
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Rows, r.Model, r.H1N1NonTakers, r.SeasonalNonTakers, r.Warnings)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are json, md", format)
	}
}
