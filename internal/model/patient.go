package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PatientRecord mirrors one patient document as the registry stores it.
// Visits and investigations arrive unordered and may disagree with each other.
type PatientRecord struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name,omitempty"`
	DOB                  string               `json:"dob,omitempty"`
	Gender               string               `json:"gender,omitempty"`
	ClinicalProfile      ClinicalProfile      `json:"clinicalProfile"`
	Visits               []VisitRecord        `json:"visits,omitempty"`
	InvestigationRecords []InvestigationBatch `json:"investigationRecords,omitempty"`
}

// ClinicalProfile holds the static flags fed to the risk calculators.
// They are not reconciled over time.
type ClinicalProfile struct {
	HasDiabetes                  bool   `json:"hasDiabetes"`
	OnAntiHypertensiveMedication bool   `json:"onAntiHypertensiveMedication"`
	OnLipidLoweringMedication    bool   `json:"onLipidLoweringMedication"`
	SmokingStatus                string `json:"smokingStatus,omitempty"`
}

// VisitRecord is a single clinic visit.
type VisitRecord struct {
	ID           string        `json:"id,omitempty"`
	Date         string        `json:"date,omitempty"`
	ClinicalData *ClinicalData `json:"clinicalData,omitempty"`
}

// InvestigationBatch is a dated set of lab results.
type InvestigationBatch struct {
	ID    string       `json:"id,omitempty"`
	Date  string       `json:"date,omitempty"`
	Tests []TestResult `json:"tests,omitempty"`
}

// TestResult is one lab line. Result is string-encoded in the source documents.
type TestResult struct {
	Name           string `json:"name"`
	Result         string `json:"result"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"referenceRange,omitempty"`
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

type Diagnosis struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ClinicalData is the free-form vitals/labs bag attached to a visit.
// Scalar fields are kept as their raw text under Fields; JSON numbers and
// strings both land there so the normalizer sees one representation.
type ClinicalData struct {
	Fields      map[string]string
	Medications []Medication
	Diagnoses   []Diagnosis
}

// Field returns the raw text of a scalar field and whether it was present.
func (cd *ClinicalData) Field(name string) (string, bool) {
	if cd == nil || cd.Fields == nil {
		return "", false
	}
	v, ok := cd.Fields[name]
	return v, ok
}

func (cd *ClinicalData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("clinicalData: %w", err)
	}
	cd.Fields = make(map[string]string, len(raw))
	for key, msg := range raw {
		switch key {
		case "medications":
			if err := json.Unmarshal(msg, &cd.Medications); err != nil {
				return fmt.Errorf("clinicalData.medications: %w", err)
			}
			continue
		case "diagnoses":
			if err := json.Unmarshal(msg, &cd.Diagnoses); err != nil {
				return fmt.Errorf("clinicalData.diagnoses: %w", err)
			}
			continue
		}
		msg = bytes.TrimSpace(msg)
		if len(msg) == 0 {
			continue
		}
		switch msg[0] {
		case '"':
			var s string
			if err := json.Unmarshal(msg, &s); err != nil {
				return fmt.Errorf("clinicalData.%s: %w", key, err)
			}
			cd.Fields[key] = s
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			cd.Fields[key] = string(msg)
		}
		// null, booleans and nested objects carry no numeric measurement.
	}
	return nil
}

func (cd ClinicalData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(cd.Fields)+2)
	for k, v := range cd.Fields {
		out[k] = v
	}
	if len(cd.Medications) > 0 {
		out["medications"] = cd.Medications
	}
	if len(cd.Diagnoses) > 0 {
		out["diagnoses"] = cd.Diagnoses
	}
	return json.Marshal(out)
}
