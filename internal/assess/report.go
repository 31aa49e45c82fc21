package assess

import (
	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/risk"
)

// Checklist entries shown when a calculator cannot produce a score.
const (
	MissingEGFR             = "eGFR"
	MissingUACR             = "UACR"
	MissingTotalCholesterol = "Total Cholesterol"
	MissingHDLCholesterol   = "HDL Cholesterol"
	MissingSBP              = "Latest SBP"
	MissingBMI              = "Latest BMI"
	MissingAge              = "Age"
	MissingSex              = "Sex"

	// EGFRTooHigh replaces the whole KFRE checklist when eGFR is at or
	// above the model's range.
	EGFRTooHigh = "eGFR ≥60 (KFRE only for eGFR <60)"
)

// KidneyFailureMissing lists every unmet KFRE precondition.
func KidneyFailureMissing(m *model.ResolvedMetricSet, s *model.PatientSnapshot) []string {
	if m.EGFR != nil && m.EGFR.Value >= risk.KFREMaxEGFR {
		return []string{EGFRTooHigh}
	}
	var missing []string
	if m.EGFR == nil {
		missing = append(missing, MissingEGFR)
	}
	if m.UACR == nil {
		missing = append(missing, MissingUACR)
	}
	return appendDemographics(missing, s)
}

// CardiovascularMissing lists every unmet PREVENT precondition. Each input
// is checked independently.
func CardiovascularMissing(m *model.ResolvedMetricSet, s *model.PatientSnapshot) []string {
	var missing []string
	if m.EGFR == nil {
		missing = append(missing, MissingEGFR)
	}
	if m.TotalCholesterol == nil {
		missing = append(missing, MissingTotalCholesterol)
	}
	if m.HDLCholesterol == nil {
		missing = append(missing, MissingHDLCholesterol)
	}
	if m.SystolicBP == nil {
		missing = append(missing, MissingSBP)
	}
	if m.BMI == nil {
		missing = append(missing, MissingBMI)
	}
	return appendDemographics(missing, s)
}

func appendDemographics(missing []string, s *model.PatientSnapshot) []string {
	if _, ok := s.BirthYear(); !ok {
		missing = append(missing, MissingAge)
	}
	if s.Sex == model.SexUnknown {
		missing = append(missing, MissingSex)
	}
	return missing
}
