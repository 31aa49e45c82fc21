// Package resolve picks one canonical value per tracked clinical variable
// from a patient's investigations and visits.
package resolve

import (
	"time"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
)

// Resolver resolves patient records against a name catalog.
type Resolver struct {
	catalog *normalize.Catalog
}

// New returns a Resolver using cat, or the default catalog when cat is nil.
func New(cat *normalize.Catalog) *Resolver {
	if cat == nil {
		cat = normalize.DefaultCatalog()
	}
	return &Resolver{catalog: cat}
}

// Resolve is shorthand for New(nil).Resolve.
func Resolve(rec *model.PatientRecord, asOf time.Time) model.ResolvedMetricSet {
	return New(nil).Resolve(rec, asOf)
}

// Resolve normalizes rec and resolves every tracked variable as of asOf.
func (r *Resolver) Resolve(rec *model.PatientRecord, asOf time.Time) model.ResolvedMetricSet {
	return Snapshot(r.Normalize(rec), asOf)
}

// Normalize runs the parse boundary with the resolver's catalog.
func (r *Resolver) Normalize(rec *model.PatientRecord) *model.PatientSnapshot {
	return normalize.ToSnapshot(rec, r.catalog)
}

// Snapshot resolves an already-normalized patient. Observations dated after
// asOf are ignored. The result depends only on s and asOf. BMI comes from the
// most recent visit only.
func Snapshot(s *model.PatientSnapshot, asOf time.Time) model.ResolvedMetricSet {
	m := model.ResolvedMetricSet{
		UACR:             latest(s.Candidates[model.UACR], asOf),
		TotalCholesterol: latest(s.Candidates[model.TotalCholesterol], asOf),
		HDLCholesterol:   latest(s.Candidates[model.HDLCholesterol], asOf),
		SystolicBP:       latest(s.Candidates[model.SystolicBP], asOf),
		BMI:              LatestVisitBMI(s, asOf),
	}
	resolveEGFR(s, asOf, &m)
	return m
}

// resolveEGFR prefers a direct reading unless a strictly newer creatinine
// exists, in which case eGFR is recomputed from that creatinine.
func resolveEGFR(s *model.PatientSnapshot, asOf time.Time, m *model.ResolvedMetricSet) {
	direct := latest(s.Candidates[model.EGFR], asOf)
	creat := latest(s.Candidates[model.Creatinine], asOf)

	if creat != nil && (direct == nil || creat.Date.After(direct.Date)) {
		if derived := derive(s, creat, asOf); derived != nil {
			m.EGFR = derived
			m.Creatinine = creat
			m.EGFRDerived = true
			return
		}
	}
	m.EGFR = direct
}

func derive(s *model.PatientSnapshot, creat *model.Observation, asOf time.Time) *model.Observation {
	age, ok := Age(s, asOf)
	if !ok {
		return nil
	}
	egfr, ok := CKDEPI2021(creat.Value, age, s.Sex)
	if !ok {
		return nil
	}
	return &model.Observation{
		Value:    egfr,
		Date:     creat.Date,
		Source:   model.SourceDerived,
		RecordID: creat.RecordID,
	}
}

// Age is the calendar-year difference between asOf and the birth year. It is
// not adjusted for month or day.
func Age(s *model.PatientSnapshot, asOf time.Time) (int, bool) {
	year, ok := s.BirthYear()
	if !ok {
		return 0, false
	}
	return asOf.Year() - year, true
}

// LatestVisitBMI returns the BMI recorded on the most recent visit dated at
// or before asOf. An older visit's BMI never stands in for a missing one.
func LatestVisitBMI(s *model.PatientSnapshot, asOf time.Time) *model.Observation {
	var last *model.DatedVisit
	for i := range s.Visits {
		v := &s.Visits[i]
		if v.Date.After(asOf) {
			continue
		}
		if last == nil || v.Date.After(last.Date) {
			last = v
		}
	}
	if last == nil || last.BMI == nil {
		return nil
	}
	return &model.Observation{Value: *last.BMI, Date: last.Date, Source: model.SourceVisit, RecordID: last.ID}
}

// latest returns the candidate with the maximum date not after asOf. On equal
// dates the earlier candidate in scan order is kept, which puts
// investigations ahead of visits.
func latest(cands []model.Observation, asOf time.Time) *model.Observation {
	var best *model.Observation
	for i := range cands {
		c := &cands[i]
		if c.Date.After(asOf) {
			continue
		}
		if best == nil || c.Date.After(best.Date) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
