package risk

import (
	"errors"
	"math"

	"github.com/gyeh/nephtrends/internal/model"
)

// KidneyFailureInputs carries possibly-absent KFRE inputs.
type KidneyFailureInputs struct {
	Age  *int
	Sex  model.Sex
	EGFR *float64
	UACR *float64
}

// KidneyFailureRisk is the KFRE outcome. Both horizons are nil when any input
// is absent, when the model is not applicable, or when evaluation failed.
type KidneyFailureRisk struct {
	TwoYear       *float64
	FiveYear      *float64
	NotApplicable bool
}

// CardiovascularInputs carries possibly-absent PREVENT inputs.
type CardiovascularInputs struct {
	Age              *int
	Sex              model.Sex
	TotalCholesterol *float64
	HDLCholesterol   *float64
	SystolicBP       *float64
	EGFR             *float64
	BMI              *float64
	Diabetic         bool
	Smoker           bool
	OnBPMeds         bool
	OnStatin         bool
}

// CardiovascularRisk is the PREVENT outcome. TenYear is nil unless every
// required input is present and evaluation succeeded.
type CardiovascularRisk struct {
	TenYear      *float64
	HeartFailure *float64
}

// Calculator runs scoring models over optional inputs. It never returns an
// error: absence, inapplicability and arithmetic failures all yield nil
// scores.
type Calculator struct {
	kidney KidneyFailureModel
	cardio CardiovascularModel
}

// NewCalculator returns a Calculator; nil models select the defaults
// (North American KFRE4, Prevent2023).
func NewCalculator(kidney KidneyFailureModel, cardio CardiovascularModel) *Calculator {
	if kidney == nil {
		kidney, _ = NewKFRE4(RegionNorthAmerica)
	}
	if cardio == nil {
		cardio = Prevent2023{}
	}
	return &Calculator{kidney: kidney, cardio: cardio}
}

var defaultCalculator = NewCalculator(nil, nil)

// CalculateKidneyFailureRisk scores in with the default models.
func CalculateKidneyFailureRisk(in KidneyFailureInputs) KidneyFailureRisk {
	return defaultCalculator.KidneyFailure(in)
}

// CalculateCardiovascularRisk scores in with the default models.
func CalculateCardiovascularRisk(in CardiovascularInputs) CardiovascularRisk {
	return defaultCalculator.Cardiovascular(in)
}

func (c *Calculator) KidneyFailureVersion() string  { return c.kidney.Version() }
func (c *Calculator) CardiovascularVersion() string { return c.cardio.Version() }

// KidneyFailure applies the eGFR guard before checking the other inputs.
func (c *Calculator) KidneyFailure(in KidneyFailureInputs) KidneyFailureRisk {
	if in.EGFR != nil && *in.EGFR >= KFREMaxEGFR {
		return KidneyFailureRisk{NotApplicable: true}
	}
	if in.Age == nil || in.Sex == model.SexUnknown || in.EGFR == nil || in.UACR == nil {
		return KidneyFailureRisk{}
	}
	input := KidneyFailureInput{Age: *in.Age, Sex: in.Sex, EGFR: *in.EGFR, UACR: *in.UACR}

	var two, five float64
	err := guard(func() (err error) {
		two, five, err = c.kidney.Predict(input)
		return err
	})
	var na NotApplicableError
	if errors.As(err, &na) {
		return KidneyFailureRisk{NotApplicable: true}
	}
	if err != nil || !finite(two) || !finite(five) {
		return KidneyFailureRisk{}
	}
	return KidneyFailureRisk{TwoYear: &two, FiveYear: &five}
}

// Cardiovascular returns a zero CardiovascularRisk unless every numeric input
// is present.
func (c *Calculator) Cardiovascular(in CardiovascularInputs) CardiovascularRisk {
	if in.Age == nil || in.Sex == model.SexUnknown || in.TotalCholesterol == nil || in.HDLCholesterol == nil ||
		in.SystolicBP == nil || in.EGFR == nil || in.BMI == nil {
		return CardiovascularRisk{}
	}
	input := CardiovascularInput{
		Age:              *in.Age,
		Sex:              in.Sex,
		TotalCholesterol: *in.TotalCholesterol,
		HDLCholesterol:   *in.HDLCholesterol,
		SystolicBP:       *in.SystolicBP,
		EGFR:             *in.EGFR,
		BMI:              *in.BMI,
		Diabetic:         in.Diabetic,
		Smoker:           in.Smoker,
		OnBPMeds:         in.OnBPMeds,
		OnStatin:         in.OnStatin,
	}
	var out CardiovascularRisk
	out.TenYear = evaluate(func() (float64, error) { return c.cardio.TotalCVD(input) })
	if out.TenYear != nil {
		out.HeartFailure = evaluate(func() (float64, error) { return c.cardio.HeartFailure(input) })
	}
	return out
}

// KidneyFailureBand labels a KFRE percentage.
func KidneyFailureBand(p *float64) model.RiskBand {
	switch {
	case p == nil:
		return model.BandNotApplicable
	case *p > 20:
		return model.BandHigh
	case *p > 5:
		return model.BandMedium
	default:
		return model.BandLow
	}
}

// CardiovascularBand labels a PREVENT percentage.
func CardiovascularBand(p *float64) model.RiskBand {
	switch {
	case p == nil:
		return model.BandNotApplicable
	case *p > 7.5:
		return model.BandHigh
	case *p > 5:
		return model.BandMedium
	default:
		return model.BandLow
	}
}

var errPanic = errors.New("risk model panicked")

// guard runs f, converting a panic into an error.
func guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errPanic
		}
	}()
	return f()
}

func evaluate(f func() (float64, error)) *float64 {
	var v float64
	err := guard(func() (err error) {
		v, err = f()
		return err
	})
	if err != nil || !finite(v) {
		return nil
	}
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
