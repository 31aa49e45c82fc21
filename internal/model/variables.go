package model

// Variable identifies a tracked clinical quantity.
type Variable string

const (
	EGFR             Variable = "egfr"
	Creatinine       Variable = "creatinine"
	UACR             Variable = "uacr"
	TotalCholesterol Variable = "total_cholesterol"
	HDLCholesterol   Variable = "hdl_cholesterol"
	SystolicBP       Variable = "systolic_bp"
	BMI              Variable = "bmi"
)

// VariableSource maps a variable to the names it appears under in each source.
type VariableSource struct {
	Variable           Variable
	Label              string   // human-readable name used in reports
	InvestigationNames []string // investigation test names, matched case/space-insensitively
	VisitFields        []string // keys inside a visit's clinicalData bag
	Unit               string   // canonical unit after conversion
}

// AllVariables lists the tracked variables in canonical order.
var AllVariables = []VariableSource{
	{Variable: EGFR, Label: "eGFR", InvestigationNames: []string{"eGFR"}, Unit: "mL/min/1.73m2"},
	{Variable: Creatinine, Label: "Serum Creatinine", InvestigationNames: []string{"Serum Creatinine"}, VisitFields: []string{"serumCreatinine"}, Unit: "mg/dL"},
	{Variable: UACR, Label: "UACR", InvestigationNames: []string{"Urine for AC Ratio (mg/gm)", "UACR"}, VisitFields: []string{"uacr"}, Unit: "mg/g"},
	{Variable: TotalCholesterol, Label: "Total Cholesterol", InvestigationNames: []string{"Total Cholesterol"}, VisitFields: []string{"totalCholesterol"}, Unit: "mg/dL"},
	{Variable: HDLCholesterol, Label: "HDL Cholesterol", InvestigationNames: []string{"HDL Cholesterol"}, VisitFields: []string{"hdlCholesterol"}, Unit: "mg/dL"},
	{Variable: SystolicBP, Label: "Systolic BP", InvestigationNames: []string{"Systolic BP"}, VisitFields: []string{"systolicBP"}, Unit: "mmHg"},
	{Variable: BMI, Label: "BMI", InvestigationNames: []string{"BMI"}, VisitFields: []string{"bmi"}, Unit: "kg/m2"},
}

// VariableByName returns the default source mapping for v, or ok=false.
func VariableByName(name string) (VariableSource, bool) {
	for _, vs := range AllVariables {
		if string(vs.Variable) == name {
			return vs, true
		}
	}
	return VariableSource{}, false
}
