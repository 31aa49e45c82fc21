package model

import "time"

// Source says which half of the patient document an observation came from.
type Source string

const (
	SourceInvestigation Source = "investigation"
	SourceVisit         Source = "visit"
	SourceDerived       Source = "derived"
)

type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// Observation is one dated, finite numeric value in canonical units.
type Observation struct {
	Value    float64   `json:"value"`
	Date     time.Time `json:"date"`
	Source   Source    `json:"source"`
	RecordID string    `json:"recordId,omitempty"`
}

// Reject records a value that failed the parse boundary.
type Reject struct {
	Variable Variable `json:"variable,omitempty"`
	RecordID string   `json:"recordId,omitempty"`
	Field    string   `json:"field"`
	Raw      string   `json:"raw"`
	Reason   string   `json:"reason"`
}

// PatientSnapshot is the typed view of a PatientRecord produced by the
// normalizer. Candidates are kept in scan order: investigations first, then
// visits, each in document order.
type PatientSnapshot struct {
	PatientID    string
	BirthDate    *time.Time
	Sex          Sex
	Diabetic     bool
	Smoker       bool
	OnBPMeds     bool
	OnStatin     bool
	Candidates   map[Variable][]Observation
	Visits       []DatedVisit
	Rejects      []Reject
	SkippedDates int
}

// DatedVisit is a visit that passed date parsing. BMI is nil when the
// visit's clinical data has no usable BMI field.
type DatedVisit struct {
	ID   string
	Date time.Time
	BMI  *float64
}

// BirthYear returns the year of birth as written on the record, or ok=false
// when unknown.
func (s *PatientSnapshot) BirthYear() (int, bool) {
	if s.BirthDate == nil {
		return 0, false
	}
	return s.BirthDate.Year(), true
}

// ResolvedMetricSet holds one best-available value per tracked variable.
// It is rebuilt on every call and never persisted.
type ResolvedMetricSet struct {
	EGFR             *Observation `json:"egfr,omitempty"`
	UACR             *Observation `json:"uacr,omitempty"`
	TotalCholesterol *Observation `json:"totalCholesterol,omitempty"`
	HDLCholesterol   *Observation `json:"hdlCholesterol,omitempty"`
	SystolicBP       *Observation `json:"systolicBP,omitempty"`
	BMI              *Observation `json:"bmi,omitempty"`

	// Creatinine is the observation eGFR was derived from, when it was.
	Creatinine  *Observation `json:"creatinine,omitempty"`
	EGFRDerived bool         `json:"egfrDerived"`
}

// Get returns the resolved observation for v, or nil.
func (m *ResolvedMetricSet) Get(v Variable) *Observation {
	switch v {
	case EGFR:
		return m.EGFR
	case UACR:
		return m.UACR
	case TotalCholesterol:
		return m.TotalCholesterol
	case HDLCholesterol:
		return m.HDLCholesterol
	case SystolicBP:
		return m.SystolicBP
	case BMI:
		return m.BMI
	case Creatinine:
		return m.Creatinine
	}
	return nil
}
