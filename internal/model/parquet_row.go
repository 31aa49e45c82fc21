package model

import (
	"strings"
	"time"
)

// AssessmentRow mirrors the Parquet schema of an exported assessment.
// Optional risk values stay nil when the calculator did not apply.
type AssessmentRow struct {
	PatientID string `parquet:"patient_id"`
	AsOf      string `parquet:"as_of"`
	Age       *int32 `parquet:"age,optional"`
	Sex       string `parquet:"sex"`

	EGFR             *float64 `parquet:"egfr,optional"`
	EGFRDate         *string  `parquet:"egfr_date,optional"`
	EGFRDerived      bool     `parquet:"egfr_derived"`
	UACR             *float64 `parquet:"uacr,optional"`
	UACRDate         *string  `parquet:"uacr_date,optional"`
	TotalCholesterol *float64 `parquet:"total_cholesterol,optional"`
	HDLCholesterol   *float64 `parquet:"hdl_cholesterol,optional"`
	SystolicBP       *float64 `parquet:"systolic_bp,optional"`
	BMI              *float64 `parquet:"bmi,optional"`

	KFRETwoYear  *float64 `parquet:"kfre_2y,optional"`
	KFREFiveYear *float64 `parquet:"kfre_5y,optional"`
	KFREBand     string   `parquet:"kfre_band"`
	KFREMissing  string   `parquet:"kfre_missing"`

	CVDTenYear  *float64 `parquet:"cvd_10y,optional"`
	CVDBand     string   `parquet:"cvd_band"`
	HFTenYear   *float64 `parquet:"hf_10y,optional"`
	CVDMissing  string   `parquet:"cvd_missing"`
	RejectCount int32    `parquet:"reject_count"`
}

// AssessmentRowFrom flattens an Assessment into an export row.
func AssessmentRowFrom(a *Assessment) AssessmentRow {
	row := AssessmentRow{
		PatientID:        a.PatientID,
		AsOf:             a.AsOf.UTC().Format(time.RFC3339),
		Sex:              string(a.Sex),
		EGFR:             obsValue(a.Metrics.EGFR),
		EGFRDate:         obsDate(a.Metrics.EGFR),
		EGFRDerived:      a.Metrics.EGFRDerived,
		UACR:             obsValue(a.Metrics.UACR),
		UACRDate:         obsDate(a.Metrics.UACR),
		TotalCholesterol: obsValue(a.Metrics.TotalCholesterol),
		HDLCholesterol:   obsValue(a.Metrics.HDLCholesterol),
		SystolicBP:       obsValue(a.Metrics.SystolicBP),
		BMI:              obsValue(a.Metrics.BMI),
		KFRETwoYear:      a.KidneyFailure.TwoYear,
		KFREFiveYear:     a.KidneyFailure.FiveYear,
		KFREBand:         string(a.KidneyFailure.FiveYearBand),
		KFREMissing:      strings.Join(a.KidneyFailure.Missing, "; "),
		CVDTenYear:       a.Cardiovascular.TenYear,
		CVDBand:          string(a.Cardiovascular.Band),
		HFTenYear:        a.Cardiovascular.HeartFailure,
		CVDMissing:       strings.Join(a.Cardiovascular.Missing, "; "),
		RejectCount:      int32(len(a.Rejects)),
	}
	if a.Age != nil {
		age := int32(*a.Age)
		row.Age = &age
	}
	return row
}

func obsValue(o *Observation) *float64 {
	if o == nil {
		return nil
	}
	v := o.Value
	return &v
}

func obsDate(o *Observation) *string {
	if o == nil {
		return nil
	}
	s := o.Date.Format("2006-01-02")
	return &s
}
