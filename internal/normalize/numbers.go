package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gyeh/nephtrends/internal/model"
)

var (
	ErrEmpty     = errors.New("empty value")
	ErrNotNumber = errors.New("not a number")
	ErrNotFinite = errors.New("not finite")
)

const (
	creatinineUmolPerMg  = 88.4
	cholesterolMgPerMmol = 38.67
)

// ParseNumber parses a string-encoded measurement. Only finite decimal
// numbers qualify; "NaN", "Inf" and trailing units are rejected.
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmpty
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotNumber
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// ToCanonicalUnit converts an investigation value into the unit the
// calculators expect. Unknown or blank units pass through unchanged.
func ToCanonicalUnit(v model.Variable, value float64, unit string) float64 {
	u := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(unit), " ", ""))
	switch v {
	case model.Creatinine:
		if u == "µmol/l" || u == "umol/l" || u == "μmol/l" {
			return value / creatinineUmolPerMg
		}
	case model.TotalCholesterol, model.HDLCholesterol:
		if u == "mmol/l" {
			return value * cholesterolMgPerMmol
		}
	}
	return value
}
