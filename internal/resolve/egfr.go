package resolve

import (
	"math"

	"github.com/gyeh/nephtrends/internal/model"
)

// CKDEPI2021 estimates GFR (mL/min/1.73m²) from serum creatinine in mg/dL
// using the race-free 2021 CKD-EPI creatinine equation:
//
//	142 × min(Scr/κ,1)^α × max(Scr/κ,1)^-1.200 × 0.9938^age × 1.012 [female]
//
// κ is 0.7 (female) / 0.9 (male); α is -0.241 (female) / -0.302 (male).
// ok is false when sex is unknown or the inputs cannot produce a finite value.
func CKDEPI2021(scr float64, age int, sex model.Sex) (egfr float64, ok bool) {
	if scr <= 0 || age < 0 {
		return 0, false
	}
	var kappa, alpha, factor float64
	switch sex {
	case model.SexFemale:
		kappa, alpha, factor = 0.7, -0.241, 1.012
	case model.SexMale:
		kappa, alpha, factor = 0.9, -0.302, 1.0
	default:
		return 0, false
	}
	ratio := scr / kappa
	egfr = 142 *
		math.Pow(math.Min(ratio, 1), alpha) *
		math.Pow(math.Max(ratio, 1), -1.200) *
		math.Pow(0.9938, float64(age)) *
		factor
	if math.IsNaN(egfr) || math.IsInf(egfr, 0) {
		return 0, false
	}
	return egfr, true
}
