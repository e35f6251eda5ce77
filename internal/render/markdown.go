package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/JemmyKuria/Vaccine-Project/internal/report"
)

type markdownRenderer struct{}

var mdFuncs = template.FuncMap{
	"pct": func(x float64) string { return fmt.Sprintf("%.1f%%", x*100) },
}

var mdTemplate = template.Must(template.New("report").Funcs(mdFuncs).Parse(`# Vaccination Uptake Report

**Model:** {{ .Model }}
**Threshold:** {{ .Threshold }}
**Input:** {{ .Input.Path }} ({{ .Input.Rows }} rows, {{ .Input.Hash }})
**Generated:** {{ .GeneratedAt.Format "2006-01-02 15:04:05 UTC" }}

## Summary

| Vaccine | Predicted non-takers | Share | Mean probability |
|---|---:|---:|---:|
| H1N1 | {{ .Summary.H1N1.NonTakers }} | {{ pct .Summary.H1N1.NonTakerShare }} | {{ printf "%.3f" .Summary.H1N1.MeanProb }} |
| Seasonal | {{ .Summary.Seasonal.NonTakers }} | {{ pct .Summary.Seasonal.NonTakerShare }} | {{ printf "%.3f" .Summary.Seasonal.MeanProb }} |
{{ if .Warnings }}
## Unmapped Categories

Labels below were not in the survey codebook; their cells were treated as
missing and imputed.

| Column | Label | Count |
|---|---|---:|
{{ range .Warnings }}| {{ .Column }} | {{ .Label }} | {{ .Count }} |
{{ end }}{{ end }}
*Use the csv format for the full annotated table.*
`))

func (r *markdownRenderer) Render(rep *report.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, rep); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
