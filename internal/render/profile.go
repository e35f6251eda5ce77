package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/JemmyKuria/Vaccine-Project/internal/profile"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
)

var profileTemplate = template.Must(template.New("profile").Funcs(mdFuncs).Parse(`# Dataset Profile

**Rows:** {{ .Input.Rows }}
{{ if .Features }}**Missing cells:** {{ .MissingBefore }} before transformation, {{ .MissingAfter }} after
{{ else }}**Missing cells:** {{ .MissingBefore }}
{{ end }}
| Column | Type | Missing | Share | Distinct | Min | Mean | Median | Std | Max |
|---|---|---:|---:|---:|---:|---:|---:|---:|---:|
{{ range .Input.Columns }}| {{ .Name }} | {{ .Type }} | {{ .Missing }} | {{ pct .MissingShare }} | {{ .Distinct }} | {{ with .Numeric }}{{ printf "%g" .Min }}{{ end }} | {{ with .Numeric }}{{ printf "%.2f" .Mean }}{{ end }} | {{ with .Numeric }}{{ printf "%g" .Median }}{{ end }} | {{ with .Numeric }}{{ printf "%.2f" .Std }}{{ end }} | {{ with .Numeric }}{{ printf "%g" .Max }}{{ end }} |
{{ end }}`))

// Profile renders a dataset quality report as json or md.
func Profile(format string, rep *profile.Report) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(rep, "", "  ")
	case "md":
		var buf bytes.Buffer
		if err := profileTemplate.Execute(&buf, rep); err != nil {
			return nil, fmt.Errorf("rendering profile markdown: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are json, md", format)
	}
}

// Barriers renders barrier profiles as json or md.
func Barriers(format string, profiles []report.BarrierProfile) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(profiles, "", "  ")
	case "md":
		var buf bytes.Buffer
		buf.WriteString("| Barrier profile | People affected |\n|---|---:|\n")
		for _, p := range profiles {
			fmt.Fprintf(&buf, "| %s | %d |\n", p.Profile, p.Affected)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are json, md", format)
	}
}
