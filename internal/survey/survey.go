// Package survey holds the fixed vocabulary of the National Flu Survey
// extract: required raw columns, the feature schema the trained model
// expects, and the encoding tables. These are configuration constants, not
// tunables; the classifier was trained against exactly this layout.
package survey

// IDColumn identifies the respondent and never reaches the model.
const IDColumn = "respondent_id"

// TargetColumns are training labels that may appear in uploaded files and
// must be stripped before inference.
var TargetColumns = []string{"h1n1_vaccine", "seasonal_vaccine"}

// HighMissingColumns carry too many blanks or too little signal to keep.
var HighMissingColumns = []string{
	"employment_industry",
	"employment_occupation",
	"hhs_geo_region",
	"census_msa",
}

// RequiredColumns is the minimum raw schema an upload must satisfy.
var RequiredColumns = []string{
	IDColumn,
	"h1n1_concern",
	"behavioral_antiviral_meds",
	"household_adults",
	"household_children",
	"doctor_recc_h1n1",
	"doctor_recc_seasonal",
	"opinion_h1n1_risk",
}

// BehavioralColumns are the six protective-behavior flags summed into
// safe_behavior_score. behavioral_antiviral_meds is a model feature in its
// own right and deliberately not part of the score.
var BehavioralColumns = []string{
	"behavioral_avoidance",
	"behavioral_face_mask",
	"behavioral_wash_hands",
	"behavioral_large_gatherings",
	"behavioral_outside_home",
	"behavioral_touch_face",
}

// Ordinal dictionaries. Labels must match the survey codebook exactly;
// anything else is treated as missing and imputed (see pipeline).
var (
	EducationLevels = map[string]float64{
		"< 12 Years":       0,
		"12 Years":         1,
		"Some College":     2,
		"College Graduate": 3,
	}
	IncomeLevels = map[string]float64{
		"Below Poverty":             0,
		"<= $75,000, Above Poverty": 1,
		"> $75,000":                 2,
	}
	AgeGroups = map[string]float64{
		"18 - 34 Years": 0,
		"35 - 44 Years": 1,
		"45 - 54 Years": 2,
		"55 - 64 Years": 3,
		"65+ Years":     4,
	}
)

// OrdinalColumns maps each ordinal column to its dictionary.
var OrdinalColumns = map[string]map[string]float64{
	"education":      EducationLevels,
	"income_poverty": IncomeLevels,
	"age_group":      AgeGroups,
}

// NominalColumn describes a one-hot expanded column and its reference
// category. The reference is the alphabetically first codebook value and is
// dropped from the expansion to avoid redundancy.
type NominalColumn struct {
	Name      string
	Reference string
}

// NominalColumns are expanded into {name}_{value} indicators.
var NominalColumns = []NominalColumn{
	{Name: "race", Reference: "Black"},
	{Name: "sex", Reference: "Female"},
	{Name: "marital_status", Reference: "Married"},
	{Name: "rent_or_own", Reference: "Own"},
	{Name: "employment_status", Reference: "Employed"},
}

// Derived feature names.
const (
	FeatureHouseholdSize   = "household_size"
	FeatureBehaviorScore   = "safe_behavior_score"
	FeatureDoctorReccBoth  = "doctor_recc_both"
	FeatureHealthInsurance = "health_insurance"
)

// ExpectedFeatures is the exact column set and order the trained
// two-target classifier was fitted on. Reconciliation forces every feature
// matrix into this shape.
var ExpectedFeatures = []string{
	"h1n1_concern",
	"h1n1_knowledge",
	"behavioral_antiviral_meds",
	"chronic_med_condition",
	"child_under_6_months",
	"health_worker",
	"health_insurance",
	"opinion_h1n1_vacc_effective",
	"opinion_h1n1_risk",
	"opinion_h1n1_sick_from_vacc",
	"opinion_seas_vacc_effective",
	"opinion_seas_risk",
	"opinion_seas_sick_from_vacc",
	"age_group",
	"education",
	"income_poverty",
	"household_size",
	"doctor_recc_both",
	"safe_behavior_score",
	"race_Hispanic",
	"race_Other or Multiple",
	"race_White",
	"sex_Male",
	"marital_status_Not Married",
	"rent_or_own_Rent",
	"employment_status_Not in Labor Force",
	"employment_status_Unemployed",
}

// KnownColumns returns every raw column name the pipeline recognizes,
// either as model input or as a column it deliberately drops. Anything
// outside this set is survey noise.
func KnownColumns() map[string]bool {
	known := map[string]bool{
		IDColumn:               true,
		"household_adults":     true,
		"household_children":   true,
		"doctor_recc_h1n1":     true,
		"doctor_recc_seasonal": true,
	}
	for _, c := range TargetColumns {
		known[c] = true
	}
	for _, c := range HighMissingColumns {
		known[c] = true
	}
	for _, c := range BehavioralColumns {
		known[c] = true
	}
	for _, nc := range NominalColumns {
		known[nc.Name] = true
	}
	for _, name := range ExpectedFeatures {
		if derived(name) || indicator(name) {
			continue
		}
		known[name] = true
	}
	return known
}

func derived(name string) bool {
	switch name {
	case FeatureHouseholdSize, FeatureBehaviorScore, FeatureDoctorReccBoth:
		return true
	}
	return false
}

func indicator(name string) bool {
	for _, nc := range NominalColumns {
		if len(name) > len(nc.Name) && name[:len(nc.Name)+1] == nc.Name+"_" {
			return true
		}
	}
	return false
}

// Vaccine names the two prediction targets.
type Vaccine string

const (
	VaccineH1N1     Vaccine = "h1n1"
	VaccineSeasonal Vaccine = "seasonal"
)

// ParseVaccine validates a target name from flags or requests.
func ParseVaccine(s string) (Vaccine, bool) {
	switch Vaccine(s) {
	case VaccineH1N1, VaccineSeasonal:
		return Vaccine(s), true
	}
	return "", false
}
