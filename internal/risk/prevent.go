package risk

import (
	"fmt"
	"math"

	"github.com/gyeh/nephtrends/internal/model"
)

// mgdlToMmol converts cholesterol from mg/dL to mmol/L as PREVENT does.
const mgdlToMmol = 0.02586

// preventCoef is one sex- and outcome-specific PREVENT base equation.
// Coefficients absent from an equation are zero.
type preventCoef struct {
	intercept float64

	age, nonHDL, hdl          float64
	sbpLow, sbpHigh           float64
	diabetes, smoker          float64
	bmiLow, bmiHigh           float64
	egfrLow, egfrHigh         float64
	bpMeds, statin            float64
	bpMedsXSBP, statinXNonHDL float64

	ageXNonHDL, ageXHDL, ageXSBP float64
	ageXDiabetes, ageXSmoker     float64
	ageXBMI, ageXEGFR            float64
}

var (
	preventCVDFemale = preventCoef{
		intercept: -3.307728,
		age: 0.7939329, nonHDL: 0.0305239, hdl: -0.1606857,
		sbpLow: -0.2394003, sbpHigh: 0.360078,
		diabetes: 0.8667604, smoker: 0.5360739,
		egfrLow: 0.6045917, egfrHigh: 0.0433769,
		bpMeds: 0.3151672, statin: -0.1477655,
		bpMedsXSBP: -0.0663612, statinXNonHDL: 0.1197879,
		ageXNonHDL: -0.0819715, ageXHDL: 0.0306769, ageXSBP: -0.0946348,
		ageXDiabetes: -0.27057, ageXSmoker: -0.078715, ageXEGFR: -0.1637806,
	}
	preventCVDMale = preventCoef{
		intercept: -3.031168,
		age: 0.7688528, nonHDL: 0.0736174, hdl: -0.0954431,
		sbpLow: -0.4347345, sbpHigh: 0.3362658,
		diabetes: 0.7692857, smoker: 0.4386871,
		egfrLow: 0.5378979, egfrHigh: 0.0164827,
		bpMeds: 0.288879, statin: -0.1337349,
		bpMedsXSBP: -0.0475924, statinXNonHDL: 0.150273,
		ageXNonHDL: -0.0517874, ageXHDL: 0.0191169, ageXSBP: -0.1049477,
		ageXDiabetes: -0.2251948, ageXSmoker: -0.0895067, ageXEGFR: -0.1543702,
	}
	preventHFFemale = preventCoef{
		intercept: -4.310409,
		age: 0.8998235,
		sbpLow: -0.4559771, sbpHigh: 0.3576505,
		diabetes: 1.038346, smoker: 0.583916,
		bmiLow: -0.0072294, bmiHigh: 0.2997706,
		egfrLow: 0.7451638, egfrHigh: 0.0557087,
		bpMeds: 0.3534442,
		bpMedsXSBP: -0.0981511,
		ageXSBP: -0.0946663, ageXDiabetes: -0.3581041, ageXSmoker: -0.1159453,
		ageXBMI: -0.003878, ageXEGFR: -0.1884289,
	}
	preventHFMale = preventCoef{
		intercept: -3.946391,
		age: 0.8972642,
		sbpLow: -0.6811466, sbpHigh: 0.3634461,
		diabetes: 0.923776, smoker: 0.5023736,
		bmiLow: -0.0485841, bmiHigh: 0.3726929,
		egfrLow: 0.6926917, egfrHigh: 0.0251827,
		bpMeds: 0.2980922,
		bpMedsXSBP: -0.0497731,
		ageXSBP: -0.1289201, ageXDiabetes: -0.3040924, ageXSmoker: -0.1401688,
		ageXBMI: 0.0068126, ageXEGFR: -0.1797778,
	}
)

// Prevent2023 is the AHA PREVENT base model (10-year total CVD and heart
// failure), without the optional UACR, HbA1c and SDI terms.
type Prevent2023 struct{}

func (Prevent2023) Version() string { return "prevent-2023-base" }

func (Prevent2023) TotalCVD(in CardiovascularInput) (float64, error) {
	c, err := pick(in.Sex, preventCVDFemale, preventCVDMale)
	if err != nil {
		return 0, err
	}
	return c.risk(in), nil
}

func (Prevent2023) HeartFailure(in CardiovascularInput) (float64, error) {
	c, err := pick(in.Sex, preventHFFemale, preventHFMale)
	if err != nil {
		return 0, err
	}
	return c.risk(in), nil
}

func pick(sex model.Sex, female, male preventCoef) (preventCoef, error) {
	switch sex {
	case model.SexFemale:
		return female, nil
	case model.SexMale:
		return male, nil
	}
	return preventCoef{}, fmt.Errorf("sex %q not supported", sex)
}

// risk evaluates the logistic equation and returns a percentage.
func (c preventCoef) risk(in CardiovascularInput) float64 {
	tc := in.TotalCholesterol * mgdlToMmol
	hdlMmol := in.HDLCholesterol * mgdlToMmol

	age := (float64(in.Age) - 55) / 10
	nonHDL := tc - hdlMmol - 3.5
	hdl := (hdlMmol - 1.3) / 0.3
	sbpLow := (math.Min(in.SystolicBP, 110) - 110) / 20
	sbpHigh := (math.Max(in.SystolicBP, 110) - 130) / 20
	egfrLow := (math.Min(in.EGFR, 60) - 60) / -15
	egfrHigh := (math.Max(in.EGFR, 60) - 90) / -15
	bmiLow := (math.Min(in.BMI, 30) - 25) / 5
	bmiHigh := (math.Max(in.BMI, 30) - 30) / 5
	dm, smk, bp, st := flag(in.Diabetic), flag(in.Smoker), flag(in.OnBPMeds), flag(in.OnStatin)

	x := c.intercept +
		c.age*age + c.nonHDL*nonHDL + c.hdl*hdl +
		c.sbpLow*sbpLow + c.sbpHigh*sbpHigh +
		c.diabetes*dm + c.smoker*smk +
		c.bmiLow*bmiLow + c.bmiHigh*bmiHigh +
		c.egfrLow*egfrLow + c.egfrHigh*egfrHigh +
		c.bpMeds*bp + c.statin*st +
		c.bpMedsXSBP*bp*sbpHigh + c.statinXNonHDL*st*nonHDL +
		c.ageXNonHDL*age*nonHDL + c.ageXHDL*age*hdl + c.ageXSBP*age*sbpHigh +
		c.ageXDiabetes*age*dm + c.ageXSmoker*age*smk +
		c.ageXBMI*age*bmiHigh + c.ageXEGFR*age*egfrLow

	return 100 * math.Exp(x) / (1 + math.Exp(x))
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
