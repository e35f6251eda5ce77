package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/pipeline"
	"github.com/JemmyKuria/Vaccine-Project/internal/profile"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
)

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	table := frame.New(2)
	var err error
	table, err = table.WithColumn("respondent_id", []frame.Value{frame.Num(1), frame.Num(2)})
	if err != nil {
		t.Fatal(err)
	}
	table, err = table.WithColumn("h1n1_prob", []frame.Value{frame.Num(0.75), frame.Num(0.25)})
	if err != nil {
		t.Fatal(err)
	}
	table, err = table.WithColumn("note", []frame.Value{frame.Str("ok"), frame.NA()})
	if err != nil {
		t.Fatal(err)
	}
	return &report.Report{
		GeneratedAt: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
		Model:       "forest:testdata/model.json",
		Threshold:   0.5,
		Input:       report.Input{Path: "uploads/survey.csv", Hash: "sha256:abc", Rows: 2},
		Summary: report.Summary{
			Rows:     2,
			H1N1:     report.VaccineSummary{NonTakers: 1, NonTakerShare: 0.5, MeanProb: 0.5},
			Seasonal: report.VaccineSummary{NonTakers: 2, NonTakerShare: 1, MeanProb: 0.2},
		},
		Warnings: []pipeline.Warning{{Column: "education", Label: "phd", Count: 3}},
		Table:    table,
	}
}

func TestNewRenderer_JSON(t *testing.T) {
	r, err := NewRenderer("json")
	if err != nil {
		t.Fatalf("NewRenderer json: %v", err)
	}
	out, err := r.Render(sampleReport(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded struct {
		Model   string `json:"model"`
		Summary struct {
			H1N1 struct {
				NonTakers int `json:"predicted_non_takers"`
			} `json:"h1n1"`
		} `json:"summary"`
		Rows []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, out)
	}
	if decoded.Model != "forest:testdata/model.json" {
		t.Errorf("model = %q", decoded.Model)
	}
	if decoded.Summary.H1N1.NonTakers != 1 {
		t.Errorf("h1n1 non-takers = %d, want 1", decoded.Summary.H1N1.NonTakers)
	}
	if len(decoded.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(decoded.Rows))
	}
	if decoded.Rows[0]["h1n1_prob"] != 0.75 {
		t.Errorf("rows[0].h1n1_prob = %v", decoded.Rows[0]["h1n1_prob"])
	}
	if v, ok := decoded.Rows[1]["note"]; !ok || v != nil {
		t.Errorf("rows[1].note = %v, want null", v)
	}
}

func TestNewRenderer_Markdown(t *testing.T) {
	r, err := NewRenderer("md")
	if err != nil {
		t.Fatalf("NewRenderer md: %v", err)
	}
	out, err := r.Render(sampleReport(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		"# Vaccination Uptake Report",
		"forest:testdata/model.json",
		"| H1N1 | 1 | 50.0% | 0.500 |",
		"| Seasonal | 2 | 100.0% | 0.200 |",
		"| education | phd | 3 |",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("markdown missing %q:\n%s", want, s)
		}
	}
}

func TestNewRenderer_CSV(t *testing.T) {
	r, err := NewRenderer("csv")
	if err != nil {
		t.Fatalf("NewRenderer csv: %v", err)
	}
	out, err := r.Render(sampleReport(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "respondent_id,h1n1_prob,note\n1,0.75,ok\n2,0.25,\n"
	if got := string(out); got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}
}

func TestNewRenderer_UnknownFormat(t *testing.T) {
	if _, err := NewRenderer("xml"); err == nil {
		t.Error("expected error for unknown format, got nil")
	}
}

func TestProfileRendering(t *testing.T) {
	rep := &profile.Report{
		Input: &profile.Profile{
			Rows: 2,
			Columns: []profile.Column{
				{Name: "score", Type: profile.TypeNumeric, Missing: 1, MissingShare: 0.5, Distinct: 1,
					Numeric: &profile.Numeric{Min: 3, Mean: 3, Median: 3, Std: 0, Max: 3}},
				{Name: "note", Type: profile.TypeText, Distinct: 2},
			},
		},
		MissingBefore: 1,
	}

	out, err := Profile("json", rep)
	if err != nil {
		t.Fatalf("Profile(json): %v", err)
	}
	if !json.Valid(out) {
		t.Errorf("profile json invalid: %s", out)
	}

	out, err = Profile("md", rep)
	if err != nil {
		t.Fatalf("Profile(md): %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "| score | numeric | 1 | 50.0% | 1 |") {
		t.Errorf("profile markdown missing score row:\n%s", s)
	}

	if _, err := Profile("xml", rep); err == nil {
		t.Error("Profile(xml) error = nil, want error")
	}
}

func TestBarriersRendering(t *testing.T) {
	profiles := []report.BarrierProfile{
		{Profile: "No Doctor Rec", Affected: 4},
		{Profile: "No Major Barriers", Affected: 1},
	}
	out, err := Barriers("md", profiles)
	if err != nil {
		t.Fatalf("Barriers(md): %v", err)
	}
	if !strings.Contains(string(out), "| No Doctor Rec | 4 |") {
		t.Errorf("barriers markdown:\n%s", out)
	}

	out, err = Barriers("json", profiles)
	if err != nil {
		t.Fatalf("Barriers(json): %v", err)
	}
	if !json.Valid(out) {
		t.Errorf("barriers json invalid: %s", out)
	}
}
