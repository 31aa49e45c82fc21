package model

import "time"

// RiskBand is the qualitative label shown next to a risk percentage.
type RiskBand string

const (
	BandHigh          RiskBand = "High"
	BandMedium        RiskBand = "Medium"
	BandLow           RiskBand = "Low"
	BandNotApplicable RiskBand = "Not applicable"
)

// KidneyFailureResult is the KFRE output for one patient.
type KidneyFailureResult struct {
	TwoYear       *float64 `json:"twoYear"`
	FiveYear      *float64 `json:"fiveYear"`
	TwoYearBand   RiskBand `json:"twoYearBand"`
	FiveYearBand  RiskBand `json:"fiveYearBand"`
	NotApplicable bool     `json:"notApplicable"`
	Missing       []string `json:"missing"`
	ModelVersion  string   `json:"modelVersion"`
}

// CardiovascularResult is the PREVENT output for one patient. HeartFailure
// shares the inputs and missing-data policy of TenYear.
type CardiovascularResult struct {
	TenYear          *float64 `json:"tenYearRisk"`
	Band             RiskBand `json:"band"`
	HeartFailure     *float64 `json:"heartFailureTenYearRisk"`
	HeartFailureBand RiskBand `json:"heartFailureBand"`
	Missing          []string `json:"missing"`
	ModelVersion     string   `json:"modelVersion"`
}

// Assessment bundles everything the trends view renders for one patient.
type Assessment struct {
	PatientID      string               `json:"patientId"`
	AsOf           time.Time            `json:"asOf"`
	Age            *int                 `json:"age,omitempty"`
	Sex            Sex                  `json:"sex,omitempty"`
	Metrics        ResolvedMetricSet    `json:"metrics"`
	KidneyFailure  KidneyFailureResult  `json:"kidneyFailure"`
	Cardiovascular CardiovascularResult `json:"cardiovascular"`
	Rejects        []Reject             `json:"rejects,omitempty"`
}
