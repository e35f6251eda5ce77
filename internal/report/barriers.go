package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// barrier is one reason a respondent may skip vaccination, evaluated
// against the engineered feature matrix. The flag set follows the outreach
// team's playbook and is shared by both vaccines.
type barrier struct {
	column string
	name   string
	hit    func(v float64) bool
}

var barriers = []barrier{
	{"doctor_recc_both", "No Doctor Rec", func(v float64) bool { return v == 0 }},
	{"opinion_h1n1_vacc_effective", "Low Vaccine Belief", func(v float64) bool { return v <= 2 }},
	{"opinion_h1n1_risk", "Low Risk Perception", func(v float64) bool { return v <= 2 }},
	{"h1n1_knowledge", "Low Knowledge", func(v float64) bool { return v <= 1 }},
	{"health_insurance", "No Insurance", func(v float64) bool { return v == 0 }},
	{"safe_behavior_score", "Low Safe Behavior", func(v float64) bool { return v <= 2 }},
}

// noBarriers is the profile of a non-taker no flag fires for.
const noBarriers = "No Major Barriers"

// BarrierProfile is one distinct combination of barriers and the number of
// predicted non-takers showing it.
type BarrierProfile struct {
	Profile  string `json:"profile"`
	Affected int    `json:"affected"`
}

// NonTakers filters an assembled prediction table down to the rows labeled
// 0 for the given vaccine.
func NonTakers(table *frame.Frame, vaccine survey.Vaccine) (*frame.Frame, error) {
	col := string(vaccine) + "_label"
	if !table.Has(col) {
		return nil, fmt.Errorf("table has no %s column; score the batch first", col)
	}
	keep := make([]bool, table.Rows())
	for i := range keep {
		v := table.At(col, i)
		keep[i] = v.Kind == frame.Number && v.Num == 0
	}
	return table.FilterRows(keep)
}

// BarrierProfiles aggregates the non-takers of one vaccine into barrier
// profiles, largest group first. features must be the reconciled matrix
// for the same rows as labels; the engineered columns the flags read
// (doctor_recc_both, safe_behavior_score, the ternary health_insurance)
// only exist there, not in the raw input.
func BarrierProfiles(features *frame.Frame, labels []int) ([]BarrierProfile, error) {
	if len(labels) != features.Rows() {
		return nil, fmt.Errorf("got %d labels for %d feature rows", len(labels), features.Rows())
	}
	for _, b := range barriers {
		if !features.Has(b.column) {
			return nil, fmt.Errorf("feature matrix has no %s column", b.column)
		}
	}

	counts := make(map[string]int)
	for row, label := range labels {
		if label != 0 {
			continue
		}
		var parts []string
		for _, b := range barriers {
			v := features.At(b.column, row)
			if v.Kind == frame.Number && b.hit(v.Num) {
				parts = append(parts, b.name)
			}
		}
		profile := noBarriers
		if len(parts) > 0 {
			profile = strings.Join(parts, " + ")
		}
		counts[profile]++
	}

	out := make([]BarrierProfile, 0, len(counts))
	for profile, affected := range counts {
		out = append(out, BarrierProfile{Profile: profile, Affected: affected})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Affected != out[j].Affected {
			return out[i].Affected > out[j].Affected
		}
		return out[i].Profile < out[j].Profile
	})
	return out, nil
}
