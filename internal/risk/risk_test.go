package risk

import (
	"math"
	"testing"

	"github.com/gyeh/nephtrends/internal/model"
)

func ptr[T any](v T) *T { return &v }

func near(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %.4f", name, want)
		return
	}
	if math.Abs(*got-want) > 0.001 {
		t.Errorf("%s = %.4f, want %.4f", name, *got, want)
	}
}

func TestKFRE4_ReferenceValues(t *testing.T) {
	tests := []struct {
		region     string
		age        int
		sex        model.Sex
		egfr, uacr float64
		two, five  float64
	}{
		{RegionNorthAmerica, 60, model.SexMale, 30, 300, 8.6327, 24.5626},
		{RegionNorthAmerica, 70, model.SexFemale, 45, 30, 0.3765, 1.1707},
		{RegionNorthAmerica, 55, model.SexMale, 15, 1000, 60.2111, 94.3709},
		{RegionNonNorthAmerica, 60, model.SexMale, 30, 300, 5.8629, 20.8598},
	}
	for _, tt := range tests {
		m, err := NewKFRE4(tt.region)
		if err != nil {
			t.Fatalf("NewKFRE4(%q): %v", tt.region, err)
		}
		calc := NewCalculator(m, nil)
		got := calc.KidneyFailure(KidneyFailureInputs{Age: ptr(tt.age), Sex: tt.sex, EGFR: ptr(tt.egfr), UACR: ptr(tt.uacr)})
		near(t, tt.region+" 2y", got.TwoYear, tt.two)
		near(t, tt.region+" 5y", got.FiveYear, tt.five)
	}
}

func TestNewKFRE4_Region(t *testing.T) {
	if m, err := NewKFRE4(""); err != nil || m.Version() != "kfre-4var/north_america" {
		t.Errorf("default region: %v, %v", m, err)
	}
	if _, err := NewKFRE4("europe"); err == nil {
		t.Error("expected error for unknown region")
	}
}

func TestKidneyFailure_ApplicabilityGuard(t *testing.T) {
	for _, egfr := range []float64{60, 65, 120} {
		got := CalculateKidneyFailureRisk(KidneyFailureInputs{Age: ptr(60), Sex: model.SexMale, EGFR: ptr(egfr), UACR: ptr(300.0)})
		if !got.NotApplicable || got.TwoYear != nil || got.FiveYear != nil {
			t.Errorf("eGFR %v: %+v, want not applicable with nil scores", egfr, got)
		}
	}
	// guard wins even when UACR is missing
	if got := CalculateKidneyFailureRisk(KidneyFailureInputs{EGFR: ptr(65.0)}); !got.NotApplicable {
		t.Error("guard should apply without other inputs")
	}
}

func TestKidneyFailure_MissingOrInvalidInputs(t *testing.T) {
	tests := map[string]KidneyFailureInputs{
		"no egfr":   {Age: ptr(60), Sex: model.SexMale, UACR: ptr(300.0)},
		"no uacr":   {Age: ptr(60), Sex: model.SexMale, EGFR: ptr(30.0)},
		"no age":    {Sex: model.SexMale, EGFR: ptr(30.0), UACR: ptr(300.0)},
		"no sex":    {Age: ptr(60), EGFR: ptr(30.0), UACR: ptr(300.0)},
		"zero uacr": {Age: ptr(60), Sex: model.SexMale, EGFR: ptr(30.0), UACR: ptr(0.0)},
	}
	for name, in := range tests {
		got := CalculateKidneyFailureRisk(in)
		if got.TwoYear != nil || got.FiveYear != nil || got.NotApplicable {
			t.Errorf("%s: %+v, want nil scores", name, got)
		}
	}
}

func TestPrevent2023_ReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		in   CardiovascularInputs
		cvd  float64
		hf   float64
	}{
		{
			name: "female 50 diabetic hypertensive",
			in: CardiovascularInputs{Age: ptr(50), Sex: model.SexFemale, TotalCholesterol: ptr(200.0), HDLCholesterol: ptr(45.0),
				SystolicBP: ptr(160.0), EGFR: ptr(90.0), BMI: ptr(35.0), Diabetic: true, OnBPMeds: true},
			cvd: 14.6839, hf: 8.0561,
		},
		{
			name: "male 60 smoker on statin with reduced eGFR",
			in: CardiovascularInputs{Age: ptr(60), Sex: model.SexMale, TotalCholesterol: ptr(220.0), HDLCholesterol: ptr(40.0),
				SystolicBP: ptr(140.0), EGFR: ptr(55.0), BMI: ptr(28.0), Smoker: true, OnStatin: true},
			cvd: 14.7615, hf: 6.3339,
		},
		{
			name: "male 45 low risk",
			in: CardiovascularInputs{Age: ptr(45), Sex: model.SexMale, TotalCholesterol: ptr(180.0), HDLCholesterol: ptr(50.0),
				SystolicBP: ptr(120.0), EGFR: ptr(100.0), BMI: ptr(24.0)},
			cvd: 1.7187, hf: 0.6078,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateCardiovascularRisk(tt.in)
			near(t, "cvd", got.TenYear, tt.cvd)
			near(t, "hf", got.HeartFailure, tt.hf)
		})
	}
}

func TestCardiovascular_AnyMissingInputIsNull(t *testing.T) {
	full := CardiovascularInputs{Age: ptr(50), Sex: model.SexFemale, TotalCholesterol: ptr(200.0), HDLCholesterol: ptr(45.0),
		SystolicBP: ptr(160.0), EGFR: ptr(90.0), BMI: ptr(35.0)}
	drops := map[string]func(*CardiovascularInputs){
		"egfr": func(in *CardiovascularInputs) { in.EGFR = nil },
		"tc":   func(in *CardiovascularInputs) { in.TotalCholesterol = nil },
		"hdl":  func(in *CardiovascularInputs) { in.HDLCholesterol = nil },
		"sbp":  func(in *CardiovascularInputs) { in.SystolicBP = nil },
		"bmi":  func(in *CardiovascularInputs) { in.BMI = nil },
		"age":  func(in *CardiovascularInputs) { in.Age = nil },
		"sex":  func(in *CardiovascularInputs) { in.Sex = model.SexUnknown },
	}
	for name, drop := range drops {
		in := full
		drop(&in)
		if got := CalculateCardiovascularRisk(in); got.TenYear != nil || got.HeartFailure != nil {
			t.Errorf("without %s: %+v, want nil", name, got)
		}
	}
}

type panickyModel struct{ Prevent2023 }

func (panickyModel) TotalCVD(CardiovascularInput) (float64, error) { panic("boom") }

type nanModel struct{}

func (nanModel) Version() string { return "nan" }
func (nanModel) Predict(KidneyFailureInput) (float64, float64, error) {
	return math.NaN(), math.Inf(1), nil
}

func TestCalculator_FailuresBecomeNull(t *testing.T) {
	calc := NewCalculator(nanModel{}, panickyModel{})
	kf := calc.KidneyFailure(KidneyFailureInputs{Age: ptr(60), Sex: model.SexMale, EGFR: ptr(30.0), UACR: ptr(300.0)})
	if kf.TwoYear != nil || kf.FiveYear != nil {
		t.Errorf("non-finite KFRE should be nil, got %+v", kf)
	}
	cv := calc.Cardiovascular(CardiovascularInputs{Age: ptr(50), Sex: model.SexFemale, TotalCholesterol: ptr(200.0),
		HDLCholesterol: ptr(45.0), SystolicBP: ptr(160.0), EGFR: ptr(90.0), BMI: ptr(35.0)})
	if cv.TenYear != nil {
		t.Errorf("panicking model should yield nil, got %+v", cv)
	}
}

func TestKidneyFailureBand(t *testing.T) {
	tests := []struct {
		p    *float64
		want model.RiskBand
	}{
		{nil, model.BandNotApplicable},
		{ptr(0.0), model.BandLow},
		{ptr(5.0), model.BandLow},
		{ptr(5.01), model.BandMedium},
		{ptr(20.0), model.BandMedium},
		{ptr(20.1), model.BandHigh},
		{ptr(94.0), model.BandHigh},
	}
	for _, tt := range tests {
		if got := KidneyFailureBand(tt.p); got != tt.want {
			t.Errorf("KidneyFailureBand(%v) = %q, want %q", fmtPtr(tt.p), got, tt.want)
		}
	}
}

func TestCardiovascularBand(t *testing.T) {
	tests := []struct {
		p    *float64
		want model.RiskBand
	}{
		{nil, model.BandNotApplicable},
		{ptr(5.0), model.BandLow},
		{ptr(5.5), model.BandMedium},
		{ptr(7.5), model.BandMedium},
		{ptr(7.6), model.BandHigh},
	}
	for _, tt := range tests {
		if got := CardiovascularBand(tt.p); got != tt.want {
			t.Errorf("CardiovascularBand(%v) = %q, want %q", fmtPtr(tt.p), got, tt.want)
		}
	}
}

func fmtPtr(p *float64) any {
	if p == nil {
		return "nil"
	}
	return *p
}
