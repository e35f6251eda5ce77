package render

import (
	"fmt"

	"github.com/JemmyKuria/Vaccine-Project/internal/report"
)

// Renderer formats a prediction report into bytes for output.
type Renderer interface {
	Render(rep *report.Report) ([]byte, error)
}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "json" (default), "md", "csv".
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "json":
		return &jsonRenderer{}, nil
	case "md":
		return &markdownRenderer{}, nil
	case "csv":
		return &csvRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are json, md, csv", format)
	}
}
