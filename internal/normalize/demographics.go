package normalize

import (
	"strings"

	"github.com/gyeh/nephtrends/internal/model"
)

// ParseSex maps the document's gender string onto the biological sex
// category used by the risk formulas.
func ParseSex(gender string) model.Sex {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m", "man":
		return model.SexMale
	case "female", "f", "woman":
		return model.SexFemale
	}
	return model.SexUnknown
}

// IsCurrentSmoker reports whether a smokingStatus value counts as smoking.
// Former smokers do not.
func IsCurrentSmoker(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "current", "current smoker", "smoker", "yes", "true":
		return true
	}
	return false
}
