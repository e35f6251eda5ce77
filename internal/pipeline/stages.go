package pipeline

import (
	"sort"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/stats"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// Prune drops the respondent identifier, any training labels, and the
// high-missingness columns. Absent columns are ignored, so pruning an
// already-clean batch is a no-op.
func Prune(f *frame.Frame) *frame.Frame {
	drop := make([]string, 0, 1+len(survey.TargetColumns)+len(survey.HighMissingColumns))
	drop = append(drop, survey.IDColumn)
	drop = append(drop, survey.TargetColumns...)
	drop = append(drop, survey.HighMissingColumns...)
	return f.Drop(drop...)
}

// EncodeInsurance rewrites health_insurance as Yes/No/Unknown: 1 stays 1,
// 0 stays 0, and anything else (missing, text, stray numerics) becomes -1.
// It runs before imputation so "unknown" survives instead of being median
// filled.
func EncodeInsurance(f *frame.Frame) (*frame.Frame, error) {
	if !f.Has(survey.FeatureHealthInsurance) {
		return nil, &MissingSourceColumnError{
			Column:  survey.FeatureHealthInsurance,
			Feature: survey.FeatureHealthInsurance,
		}
	}
	src := f.Col(survey.FeatureHealthInsurance)
	enc := make([]frame.Value, len(src))
	for i, v := range src {
		switch {
		case v.Kind == frame.Number && v.Num == 1:
			enc[i] = frame.Num(1)
		case v.Kind == frame.Number && v.Num == 0:
			enc[i] = frame.Num(0)
		default:
			enc[i] = frame.Num(-1)
		}
	}
	return f.WithColumn(survey.FeatureHealthInsurance, enc)
}

// EncodeOrdinals maps education, income_poverty, and age_group from their
// codebook labels to integer codes. Labels outside a dictionary become
// missing (imputed later) and are counted into warnings; the substitution
// itself matches the historical behavior, the count makes it visible.
// Absent ordinal columns are skipped; reconciliation fills them with zeros.
func EncodeOrdinals(f *frame.Frame) (*frame.Frame, []Warning, error) {
	cols := make([]string, 0, len(survey.OrdinalColumns))
	for col := range survey.OrdinalColumns {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	out := f
	var warns []Warning
	for _, col := range cols {
		if !out.Has(col) {
			continue
		}
		dict := survey.OrdinalColumns[col]
		src := out.Col(col)
		enc := make([]frame.Value, len(src))
		unmapped := make(map[string]int)
		for i, v := range src {
			if v.IsMissing() {
				enc[i] = frame.NA()
				continue
			}
			if v.Kind == frame.Text {
				if code, ok := dict[v.Str]; ok {
					enc[i] = frame.Num(code)
					continue
				}
			}
			// Text outside the codebook, or a numeric cell where a label
			// belongs. Either way it is not a known category.
			unmapped[v.String()]++
			enc[i] = frame.NA()
		}
		var err error
		out, err = out.WithColumn(col, enc)
		if err != nil {
			return nil, nil, err
		}
		labels := make([]string, 0, len(unmapped))
		for label := range unmapped {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			warns = append(warns, Warning{Column: col, Label: label, Count: unmapped[label]})
		}
	}
	return out, warns, nil
}

// Synthesize builds the three derived features. household_size and
// safe_behavior_score keep their source columns (reconciliation discards
// the ones the model does not expect); doctor_recc_both drops its two
// sources immediately, matching the historical pipeline.
func Synthesize(f *frame.Frame) (*frame.Frame, error) {
	out, err := sumColumns(f, survey.FeatureHouseholdSize,
		[]string{"household_adults", "household_children"})
	if err != nil {
		return nil, err
	}
	out, err = sumColumns(out, survey.FeatureBehaviorScore, survey.BehavioralColumns)
	if err != nil {
		return nil, err
	}
	out, err = sumColumns(out, survey.FeatureDoctorReccBoth,
		[]string{"doctor_recc_h1n1", "doctor_recc_seasonal"})
	if err != nil {
		return nil, err
	}
	return out.Drop("doctor_recc_h1n1", "doctor_recc_seasonal"), nil
}

// sumColumns appends feature as the row-wise sum of sources. Cells that are
// missing or non-numeric count as 0. Every source column must exist.
func sumColumns(f *frame.Frame, feature string, sources []string) (*frame.Frame, error) {
	for _, col := range sources {
		if !f.Has(col) {
			return nil, &MissingSourceColumnError{Column: col, Feature: feature}
		}
	}
	sums := make([]float64, f.Rows())
	for _, col := range sources {
		for i, v := range f.Col(col) {
			if v.Kind == frame.Number {
				sums[i] += v.Num
			}
		}
	}
	vals := make([]frame.Value, len(sums))
	for i, s := range sums {
		vals[i] = frame.Num(s)
	}
	return f.WithColumn(feature, vals)
}

// ExpandNominals one-hot expands each nominal column into {name}_{value}
// indicators, skipping the fixed reference category, then drops the source
// column. Missing and numeric cells set every indicator to 0. Absent
// nominal columns are skipped; reconciliation heals the schema.
func ExpandNominals(f *frame.Frame) (*frame.Frame, error) {
	out := f
	for _, nc := range survey.NominalColumns {
		if !out.Has(nc.Name) {
			continue
		}
		src := out.Col(nc.Name)
		seen := make(map[string]bool)
		for _, v := range src {
			if v.Kind == frame.Text && v.Str != nc.Reference {
				seen[v.Str] = true
			}
		}
		cats := make([]string, 0, len(seen))
		for cat := range seen {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			ind := make([]frame.Value, len(src))
			for i, v := range src {
				if v.Kind == frame.Text && v.Str == cat {
					ind[i] = frame.Num(1)
				} else {
					ind[i] = frame.Num(0)
				}
			}
			var err error
			out, err = out.WithColumn(nc.Name+"_"+cat, ind)
			if err != nil {
				return nil, err
			}
		}
		out = out.Drop(nc.Name)
	}
	return out, nil
}

// Impute replaces missing cells in every numeric column with that column's
// median, computed over this batch only. A column with no numeric values at
// all fills with 0. Text columns are left alone.
func Impute(f *frame.Frame) (*frame.Frame, error) {
	out := f
	for _, name := range f.Columns() {
		if !out.IsNumeric(name) {
			continue
		}
		col := out.Col(name)
		missing := false
		for _, v := range col {
			if v.IsMissing() {
				missing = true
				break
			}
		}
		if !missing {
			continue
		}
		med := stats.Median(out.NumericValues(name))
		filled := make([]frame.Value, len(col))
		for i, v := range col {
			if v.IsMissing() {
				filled[i] = frame.Num(med)
			} else {
				filled[i] = v
			}
		}
		var err error
		out, err = out.WithColumn(name, filled)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reconcile forces the batch into the exact expected feature schema: every
// expected column present in its fixed position, absentees added as
// constant 0, extras discarded. An expected column that is still textual
// cannot be reconciled and fails the batch.
func Reconcile(f *frame.Frame) (out *frame.Frame, added, dropped []string, err error) {
	out = frame.New(f.Rows())
	for _, name := range survey.ExpectedFeatures {
		if !f.Has(name) {
			zeros := make([]frame.Value, f.Rows())
			for i := range zeros {
				zeros[i] = frame.Num(0)
			}
			if out, err = out.WithColumn(name, zeros); err != nil {
				return nil, nil, nil, err
			}
			added = append(added, name)
			continue
		}
		if !f.IsNumeric(name) {
			return nil, nil, nil, &NonNumericColumnError{Column: name}
		}
		if out, err = out.WithColumn(name, f.Col(name)); err != nil {
			return nil, nil, nil, err
		}
	}
	expected := make(map[string]bool, len(survey.ExpectedFeatures))
	for _, name := range survey.ExpectedFeatures {
		expected[name] = true
	}
	for _, name := range f.Columns() {
		if !expected[name] {
			dropped = append(dropped, name)
		}
	}
	return out, added, dropped, nil
}
