package assess

import (
	"bytes"
	"context"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/risk"
)

var asOf = time.Date(2024, time.June, 1, 23, 59, 59, 0, time.UTC)

func snapOf(rec *model.PatientRecord) *model.PatientSnapshot {
	return normalize.ToSnapshot(rec, nil)
}

func obs(v float64) *model.Observation {
	return &model.Observation{Value: v, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Source: model.SourceInvestigation}
}

func TestKidneyFailureMissing(t *testing.T) {
	known := snapOf(&model.PatientRecord{DOB: "1960-01-01", Gender: "female"})
	unknown := snapOf(&model.PatientRecord{})

	tests := []struct {
		name string
		m    model.ResolvedMetricSet
		s    *model.PatientSnapshot
		want []string
	}{
		{"complete", model.ResolvedMetricSet{EGFR: obs(30), UACR: obs(300)}, known, nil},
		{"eGFR too high", model.ResolvedMetricSet{EGFR: obs(65)}, unknown, []string{EGFRTooHigh}},
		{"eGFR exactly 60", model.ResolvedMetricSet{EGFR: obs(60), UACR: obs(10)}, known, []string{EGFRTooHigh}},
		{"nothing", model.ResolvedMetricSet{}, known, []string{"eGFR", "UACR"}},
		{"no uacr", model.ResolvedMetricSet{EGFR: obs(40)}, known, []string{"UACR"}},
		{"no demographics", model.ResolvedMetricSet{EGFR: obs(40), UACR: obs(30)}, unknown, []string{"Age", "Sex"}},
	}
	for _, tt := range tests {
		if got := KidneyFailureMissing(&tt.m, tt.s); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCardiovascularMissing_ListsEveryGap(t *testing.T) {
	s := snapOf(&model.PatientRecord{DOB: "1960-01-01", Gender: "male"})
	m := model.ResolvedMetricSet{SystolicBP: obs(130)}
	want := []string{"eGFR", "Total Cholesterol", "HDL Cholesterol", "Latest BMI"}
	if got := CardiovascularMissing(&m, s); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	all := CardiovascularMissing(&model.ResolvedMetricSet{}, snapOf(&model.PatientRecord{}))
	wantAll := []string{"eGFR", "Total Cholesterol", "HDL Cholesterol", "Latest SBP", "Latest BMI", "Age", "Sex"}
	if !reflect.DeepEqual(all, wantAll) {
		t.Errorf("got %q, want %q", all, wantAll)
	}
}

func fullPatient() *model.PatientRecord {
	return &model.PatientRecord{
		ID:     "p-full",
		DOB:    "1964-05-05",
		Gender: "male",
		ClinicalProfile: model.ClinicalProfile{
			SmokingStatus:             "current",
			OnLipidLoweringMedication: true,
		},
		InvestigationRecords: []model.InvestigationBatch{
			{ID: "b1", Date: "2024-01-10", Tests: []model.TestResult{
				{Name: "eGFR", Result: "30"},
				{Name: "Urine for AC Ratio (mg/gm)", Result: "300"},
				{Name: "Total Cholesterol", Result: "220"},
				{Name: "HDL Cholesterol", Result: "40"},
			}},
		},
		Visits: []model.VisitRecord{
			{ID: "v1", Date: "2024-02-01", ClinicalData: &model.ClinicalData{Fields: map[string]string{
				"systolicBP": "140",
				"bmi":        "28",
			}}},
		},
	}
}

func TestAssess_FullPatient(t *testing.T) {
	a := New(zerolog.Nop(), nil, nil)
	got := a.Assess(context.Background(), fullPatient(), asOf)

	if got.Age == nil || *got.Age != 60 {
		t.Fatalf("age = %v", got.Age)
	}
	kf := got.KidneyFailure
	if kf.TwoYear == nil || math.Abs(*kf.TwoYear-8.6327) > 0.001 {
		t.Errorf("KFRE 2y = %v", kf.TwoYear)
	}
	if kf.FiveYear == nil || math.Abs(*kf.FiveYear-24.5626) > 0.001 {
		t.Errorf("KFRE 5y = %v", kf.FiveYear)
	}
	if kf.TwoYearBand != model.BandMedium || kf.FiveYearBand != model.BandHigh {
		t.Errorf("KFRE bands = %s/%s", kf.TwoYearBand, kf.FiveYearBand)
	}
	if len(kf.Missing) != 0 || kf.ModelVersion == "" {
		t.Errorf("KFRE missing=%q version=%q", kf.Missing, kf.ModelVersion)
	}

	cv := got.Cardiovascular
	if cv.TenYear == nil || cv.HeartFailure == nil {
		t.Fatalf("PREVENT not scored: %+v", cv)
	}
	if cv.Band != risk.CardiovascularBand(cv.TenYear) {
		t.Errorf("band %s does not match %v", cv.Band, *cv.TenYear)
	}
	if len(cv.Missing) != 0 {
		t.Errorf("PREVENT missing = %q", cv.Missing)
	}
}

func TestAssess_AbsencePropagation(t *testing.T) {
	rec := fullPatient()
	rec.InvestigationRecords[0].Tests = rec.InvestigationRecords[0].Tests[1:] // drop eGFR

	got := New(zerolog.Nop(), nil, nil).Assess(context.Background(), rec, asOf)
	if got.Metrics.EGFR != nil {
		t.Fatalf("eGFR should be absent, got %+v", got.Metrics.EGFR)
	}
	if got.KidneyFailure.TwoYear != nil || got.KidneyFailure.FiveYearBand != model.BandNotApplicable {
		t.Errorf("KFRE = %+v", got.KidneyFailure)
	}
	if !reflect.DeepEqual(got.KidneyFailure.Missing, []string{"eGFR"}) {
		t.Errorf("KFRE missing = %q", got.KidneyFailure.Missing)
	}
	if got.Cardiovascular.TenYear != nil || got.Cardiovascular.Band != model.BandNotApplicable {
		t.Errorf("PREVENT = %+v", got.Cardiovascular)
	}
}

func TestAssess_ApplicabilityGuard(t *testing.T) {
	rec := fullPatient()
	rec.InvestigationRecords[0].Tests[0].Result = "65"

	got := New(zerolog.Nop(), nil, nil).Assess(context.Background(), rec, asOf)
	kf := got.KidneyFailure
	if kf.TwoYear != nil || kf.FiveYear != nil || !kf.NotApplicable {
		t.Errorf("KFRE = %+v", kf)
	}
	if !reflect.DeepEqual(kf.Missing, []string{"eGFR ≥60 (KFRE only for eGFR <60)"}) {
		t.Errorf("KFRE missing = %q", kf.Missing)
	}
}

func TestAssess_LogsRejects(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	rec := fullPatient()
	rec.InvestigationRecords[0].Tests[2].Result = "high"

	got := New(log, nil, nil).Assess(context.Background(), rec, asOf)
	if len(got.Rejects) != 1 || got.Rejects[0].Raw != "high" {
		t.Fatalf("rejects = %+v", got.Rejects)
	}
	if !strings.Contains(buf.String(), "malformed value ignored") || !strings.Contains(buf.String(), `"patient_id":"p-full"`) {
		t.Errorf("reject not logged: %s", buf.String())
	}
}

func TestAssess_ContextLoggerWins(t *testing.T) {
	var own, scoped bytes.Buffer
	a := New(zerolog.New(&own).Level(zerolog.DebugLevel), nil, nil)
	ctx := zerolog.New(&scoped).Level(zerolog.DebugLevel).WithContext(context.Background())

	a.Assess(ctx, fullPatient(), asOf)
	if own.Len() != 0 || scoped.Len() == 0 {
		t.Errorf("own=%d scoped=%d bytes", own.Len(), scoped.Len())
	}
}

func TestCache_MemoizesAndMatchesRecompute(t *testing.T) {
	a := New(zerolog.Nop(), nil, nil)
	c := NewCache(a, 2)
	rec := fullPatient()

	first := c.Assess(context.Background(), rec, asOf)
	second := c.Assess(context.Background(), rec, asOf)
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d", hits, misses)
	}
	fresh := a.Assess(context.Background(), rec, asOf)
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, fresh) {
		t.Error("cached assessment differs from recomputation")
	}

	rec.Visits[0].ClinicalData.Fields["systolicBP"] = "150"
	c.Assess(context.Background(), rec, asOf)
	if _, misses := c.Stats(); misses != 2 {
		t.Errorf("changed document should miss, misses=%d", misses)
	}
}

func TestParseAsOf(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Date(2025, 3, 4, 23, 59, 59, 999999999, time.UTC)},
		{"2024-01-01", time.Date(2024, 1, 1, 23, 59, 59, 999999999, time.UTC)},
		{"2024-01-01T08:00:00Z", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseAsOf(tt.in, now)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ParseAsOf(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	ist := time.FixedZone("", 5*3600+1800)
	got, err := ParseAsOf("2025-01-01T01:00:00+05:30", now)
	if err != nil || got.Year() != 2025 || !got.Equal(time.Date(2025, 1, 1, 1, 0, 0, 0, ist)) {
		t.Errorf("offset as-of = %v, %v; want 2025-01-01 01:00 +05:30", got, err)
	}
	if _, err := ParseAsOf("yesterday", now); err == nil {
		t.Error("expected error")
	}
}
