// Package risk implements the kidney-failure and cardiovascular risk
// calculators. The scoring equations sit behind small interfaces so a
// recalibrated or newer published model can be swapped in and reported by
// version.
package risk

import "github.com/gyeh/nephtrends/internal/model"

// KidneyFailureModel predicts the probability of kidney failure, in percent,
// at the 2-year and 5-year horizons.
type KidneyFailureModel interface {
	Version() string
	Predict(in KidneyFailureInput) (twoYear, fiveYear float64, err error)
}

// CardiovascularModel predicts 10-year cardiovascular outcomes in percent.
type CardiovascularModel interface {
	Version() string
	TotalCVD(in CardiovascularInput) (float64, error)
	HeartFailure(in CardiovascularInput) (float64, error)
}

// KidneyFailureInput is a complete set of KFRE inputs. eGFR is in
// mL/min/1.73m² and UACR in mg/g.
type KidneyFailureInput struct {
	Age  int
	Sex  model.Sex
	EGFR float64
	UACR float64
}

// CardiovascularInput is a complete set of PREVENT inputs. Cholesterol is in
// mg/dL, SBP in mmHg, BMI in kg/m².
type CardiovascularInput struct {
	Age              int
	Sex              model.Sex
	TotalCholesterol float64
	HDLCholesterol   float64
	SystolicBP       float64
	EGFR             float64
	BMI              float64
	Diabetic         bool
	Smoker           bool
	OnBPMeds         bool
	OnStatin         bool
}

// NotApplicableError indicates that the model is not valid for the given
// inputs even though they are all present.
type NotApplicableError struct {
	msg string
}

// NewNotApplicableError returns a NotApplicableError with the given message.
func NewNotApplicableError(msg string) NotApplicableError {
	return NotApplicableError{msg: msg}
}

func (e NotApplicableError) Error() string { return e.msg }
