package normalize

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gyeh/nephtrends/internal/model"
)

// ToSnapshot converts a raw PatientRecord into typed, dated observations.
// This is the only place raw strings are read; everything downstream sees
// finite float64 values in canonical units. Malformed values become Rejects,
// records without a usable date are counted in SkippedDates.
func ToSnapshot(rec *model.PatientRecord, cat *Catalog) *model.PatientSnapshot {
	if cat == nil {
		cat = DefaultCatalog()
	}
	s := &model.PatientSnapshot{
		PatientID:  rec.ID,
		BirthDate:  ParseLocalDate(rec.DOB),
		Sex:        ParseSex(rec.Gender),
		Diabetic:   rec.ClinicalProfile.HasDiabetes,
		Smoker:     IsCurrentSmoker(rec.ClinicalProfile.SmokingStatus),
		OnBPMeds:   rec.ClinicalProfile.OnAntiHypertensiveMedication,
		OnStatin:   rec.ClinicalProfile.OnLipidLoweringMedication,
		Candidates: make(map[model.Variable][]model.Observation),
	}

	for i := range rec.InvestigationRecords {
		batch := &rec.InvestigationRecords[i]
		date := ParseDate(batch.Date)
		if date == nil {
			s.SkippedDates++
			continue
		}
		for _, test := range batch.Tests {
			v, ok := cat.LookupTest(test.Name)
			if !ok {
				continue
			}
			value, err := ParseNumber(test.Result)
			if err != nil {
				if err != ErrEmpty {
					s.Rejects = append(s.Rejects, model.Reject{
						Variable: v, RecordID: batch.ID, Field: test.Name, Raw: test.Result, Reason: err.Error(),
					})
				}
				continue
			}
			s.Candidates[v] = append(s.Candidates[v], model.Observation{
				Value:    ToCanonicalUnit(v, value, test.Unit),
				Date:     *date,
				Source:   model.SourceInvestigation,
				RecordID: batch.ID,
			})
		}
	}

	for i := range rec.Visits {
		visit := &rec.Visits[i]
		date := ParseDate(visit.Date)
		if date == nil {
			s.SkippedDates++
			continue
		}
		dv := model.DatedVisit{ID: visit.ID, Date: *date}
		for _, vf := range cat.visitFields {
			raw, ok := visit.ClinicalData.Field(vf.field)
			if !ok {
				continue
			}
			value, err := ParseNumber(raw)
			if err != nil {
				if err != ErrEmpty {
					s.Rejects = append(s.Rejects, model.Reject{
						Variable: vf.variable, RecordID: visit.ID, Field: vf.field, Raw: raw, Reason: err.Error(),
					})
				}
				continue
			}
			s.Candidates[vf.variable] = append(s.Candidates[vf.variable], model.Observation{
				Value:    value,
				Date:     *date,
				Source:   model.SourceVisit,
				RecordID: visit.ID,
			})
			if vf.variable == model.BMI && dv.BMI == nil {
				bmi := value
				dv.BMI = &bmi
			}
		}
		s.Visits = append(s.Visits, dv)
	}

	return s
}

// ToStagingRow re-encodes a PatientRecord for COPY into the staging table.
// Documents without an id cannot be keyed and are rejected.
func ToStagingRow(rec *model.PatientRecord, batchID uuid.UUID, importFileID int64, rowNum int64) (*model.StagingRow, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("row %d: patient document has no id", rowNum)
	}
	doc, sha, err := DocumentHash(rec)
	if err != nil {
		return nil, err
	}
	return &model.StagingRow{
		ImportBatchID:   batchID,
		ImportFileID:    importFileID,
		SourceRowNumber: rowNum,
		PatientID:       rec.ID,
		Document:        doc,
		DocumentSHA256:  sha,
		VisitCount:      int32(len(rec.Visits)),
		BatchCount:      int32(len(rec.InvestigationRecords)),
	}, nil
}
