package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gyeh/nephtrends/internal/model"
)

// KFREMaxEGFR is the eGFR at and above which KFRE is not applied.
const KFREMaxEGFR = 60.0

// Regions with published KFRE baseline survival.
const (
	RegionNorthAmerica    = "north_america"
	RegionNonNorthAmerica = "non_north_america"
)

var errUACRNotPositive = errors.New("uacr must be positive")

// baseline holds S0(t) for the 2-year and 5-year horizons.
type baseline struct {
	twoYear, fiveYear float64
}

var kfreBaselines = map[string]baseline{
	RegionNorthAmerica:    {twoYear: 0.9750, fiveYear: 0.9240},
	RegionNonNorthAmerica: {twoYear: 0.9832, fiveYear: 0.9365},
}

// KFRE4 is the Tangri 4-variable kidney failure risk equation (age, sex,
// eGFR, urine ACR) with recalibrated regional baselines.
type KFRE4 struct {
	region string
	s0     baseline
}

// NewKFRE4 returns the 4-variable KFRE for region. An empty region selects
// North America.
func NewKFRE4(region string) (*KFRE4, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = RegionNorthAmerica
	}
	s0, ok := kfreBaselines[region]
	if !ok {
		return nil, fmt.Errorf("unknown KFRE region %q (want %s or %s)", region, RegionNorthAmerica, RegionNonNorthAmerica)
	}
	return &KFRE4{region: region, s0: s0}, nil
}

func (k *KFRE4) Version() string { return "kfre-4var/" + k.region }

// Predict returns 2-year and 5-year risk in percent.
func (k *KFRE4) Predict(in KidneyFailureInput) (float64, float64, error) {
	if in.EGFR >= KFREMaxEGFR {
		return 0, 0, NewNotApplicableError(fmt.Sprintf("eGFR %.1f is outside the KFRE range (<%g)", in.EGFR, KFREMaxEGFR))
	}
	if in.UACR <= 0 {
		return 0, 0, errUACRNotPositive
	}
	male := 0.0
	switch in.Sex {
	case model.SexMale:
		male = 1
	case model.SexFemale:
	default:
		return 0, 0, fmt.Errorf("sex %q not supported", in.Sex)
	}

	lp := -0.2201*(float64(in.Age)/10-7.036) +
		0.2467*(male-0.5642) -
		0.5567*(in.EGFR/5-7.222) +
		0.4510*(math.Log(in.UACR)-5.137)

	hr := math.Exp(lp)
	return 100 * (1 - math.Pow(k.s0.twoYear, hr)),
		100 * (1 - math.Pow(k.s0.fiveYear, hr)),
		nil
}
