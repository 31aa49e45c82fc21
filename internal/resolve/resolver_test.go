package resolve

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
)

var asOf = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func batch(date string, tests ...model.TestResult) model.InvestigationBatch {
	return model.InvestigationBatch{ID: "inv-" + date, Date: date, Tests: tests}
}

func test(name, result string) model.TestResult {
	return model.TestResult{Name: name, Result: result}
}

func visit(date string, fields map[string]string) model.VisitRecord {
	return model.VisitRecord{ID: "visit-" + date, Date: date, ClinicalData: &model.ClinicalData{Fields: fields}}
}

func male45() *model.PatientRecord {
	return &model.PatientRecord{ID: "p1", DOB: "1979-08-20", Gender: "male"}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %.4f, want %.4f (±%g)", name, got, want, tol)
	}
}

func TestCKDEPI2021(t *testing.T) {
	tests := []struct {
		scr  float64
		age  int
		sex  model.Sex
		want float64
	}{
		{1.2, 45, model.SexMale, 76.0005},
		{0.8, 60, model.SexFemale, 84.2982},
		{2.5, 70, model.SexMale, 26.9638},
		{1.5, 50, model.SexFemale, 42.1917},
	}
	for _, tt := range tests {
		got, ok := CKDEPI2021(tt.scr, tt.age, tt.sex)
		if !ok {
			t.Errorf("CKDEPI2021(%v,%d,%s) not ok", tt.scr, tt.age, tt.sex)
			continue
		}
		approx(t, "egfr", got, tt.want, 0.001)
	}

	if _, ok := CKDEPI2021(1.0, 50, model.SexUnknown); ok {
		t.Error("unknown sex must not produce a value")
	}
	if _, ok := CKDEPI2021(0, 50, model.SexMale); ok {
		t.Error("zero creatinine must not produce a value")
	}
}

func TestResolve_CreatinineOnlyScenario(t *testing.T) {
	rec := male45()
	rec.InvestigationRecords = []model.InvestigationBatch{
		batch("2024-01-01", test("Serum Creatinine", "1.2")),
	}

	m := Resolve(rec, asOf)
	if m.EGFR == nil {
		t.Fatal("expected derived eGFR")
	}
	want, _ := CKDEPI2021(1.2, 45, model.SexMale)
	approx(t, "eGFR", m.EGFR.Value, want, 1e-9)
	approx(t, "eGFR", m.EGFR.Value, 76.0, 0.01)
	if !m.EGFR.Date.Equal(day("2024-01-01")) {
		t.Errorf("eGFR date = %v", m.EGFR.Date)
	}
	if !m.EGFRDerived || m.EGFR.Source != model.SourceDerived {
		t.Error("eGFR should be marked derived")
	}
	if m.Creatinine == nil || m.Creatinine.Value != 1.2 {
		t.Errorf("creatinine = %+v", m.Creatinine)
	}
}

func TestResolve_UACRPicksMostRecentBatch(t *testing.T) {
	rec := male45()
	rec.InvestigationRecords = []model.InvestigationBatch{
		batch("2024-01-01", test("Urine for AC Ratio (mg/gm)", "50")),
		batch("2023-06-01", test("Urine for AC Ratio (mg/gm)", "300")),
	}
	m := Resolve(rec, asOf)
	if m.UACR == nil || m.UACR.Value != 50 || !m.UACR.Date.Equal(day("2024-01-01")) {
		t.Errorf("UACR = %+v, want 50 @ 2024-01-01", m.UACR)
	}
}

func TestResolve_RecencyAcrossSources(t *testing.T) {
	tests := []struct {
		name      string
		invDate   string
		visitDate string
		want      float64
	}{
		{"visit newer", "2024-01-01", "2024-03-01", 180},
		{"investigation newer", "2024-04-01", "2024-03-01", 200},
		{"same day keeps investigation", "2024-03-01", "2024-03-01", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := male45()
			rec.InvestigationRecords = []model.InvestigationBatch{batch(tt.invDate, test("Total Cholesterol", "200"))}
			rec.Visits = []model.VisitRecord{visit(tt.visitDate, map[string]string{"totalCholesterol": "180"})}

			m := Resolve(rec, asOf)
			if m.TotalCholesterol == nil {
				t.Fatal("missing total cholesterol")
			}
			if m.TotalCholesterol.Value != tt.want {
				t.Errorf("value = %v, want %v", m.TotalCholesterol.Value, tt.want)
			}
			wantDate := day(tt.invDate)
			if d := day(tt.visitDate); d.After(wantDate) {
				wantDate = d
			}
			if !m.TotalCholesterol.Date.Equal(wantDate) {
				t.Errorf("date = %v, want max(D1,D2) = %v", m.TotalCholesterol.Date, wantDate)
			}
		})
	}
}

func TestResolve_SingleSourceFallback(t *testing.T) {
	rec := male45()
	rec.Visits = []model.VisitRecord{visit("2024-02-01", map[string]string{"hdlCholesterol": "42"})}
	m := Resolve(rec, asOf)
	if m.HDLCholesterol == nil || m.HDLCholesterol.Value != 42 || m.HDLCholesterol.Source != model.SourceVisit {
		t.Errorf("HDL = %+v", m.HDLCholesterol)
	}
}

func TestResolve_EGFROverrideLaw(t *testing.T) {
	rec := male45()
	rec.InvestigationRecords = []model.InvestigationBatch{batch("2024-01-01", test("eGFR", "35"))}
	rec.Visits = []model.VisitRecord{visit("2024-03-01", map[string]string{"serumCreatinine": "1.2"})}

	m := Resolve(rec, asOf)
	if m.EGFR == nil {
		t.Fatal("expected eGFR")
	}
	if !m.EGFRDerived {
		t.Fatal("newer creatinine must override the direct reading")
	}
	want, _ := CKDEPI2021(1.2, 45, model.SexMale)
	approx(t, "eGFR", m.EGFR.Value, want, 1e-9)
	if !m.EGFR.Date.Equal(day("2024-03-01")) {
		t.Errorf("eGFR date = %v", m.EGFR.Date)
	}
}

func TestResolve_EGFRDirectWinsOverOlderOrSameDayCreatinine(t *testing.T) {
	for _, creatDate := range []string{"2023-12-01", "2024-01-01"} {
		rec := male45()
		rec.InvestigationRecords = []model.InvestigationBatch{
			batch("2024-01-01", test("eGFR", "35")),
			batch(creatDate, test("Serum Creatinine", "1.2")),
		}
		m := Resolve(rec, asOf)
		if m.EGFR == nil || m.EGFR.Value != 35 || m.EGFRDerived {
			t.Errorf("creatinine %s: eGFR = %+v, want direct 35", creatDate, m.EGFR)
		}
	}
}

func TestResolve_EGFRDirectKeptWhenDerivationImpossible(t *testing.T) {
	rec := &model.PatientRecord{ID: "p2", Gender: "male"} // no dob
	rec.InvestigationRecords = []model.InvestigationBatch{batch("2024-01-01", test("eGFR", "35"))}
	rec.Visits = []model.VisitRecord{visit("2024-03-01", map[string]string{"serumCreatinine": "1.2"})}
	m := Resolve(rec, asOf)
	if m.EGFR == nil || m.EGFR.Value != 35 {
		t.Errorf("eGFR = %+v, want direct 35", m.EGFR)
	}
}

func TestResolve_AbsenceIsNotAnError(t *testing.T) {
	rec := male45()
	rec.InvestigationRecords = []model.InvestigationBatch{
		batch("", test("eGFR", "40")),
		batch("2024-01-01", test("Serum Creatinine", "n/a")),
	}
	rec.Visits = []model.VisitRecord{{ID: "v-nodata", Date: "2024-02-01"}}

	m := Resolve(rec, asOf)
	if m.EGFR != nil || m.UACR != nil || m.TotalCholesterol != nil || m.HDLCholesterol != nil || m.SystolicBP != nil || m.BMI != nil {
		t.Errorf("expected an empty metric set, got %+v", m)
	}
}

func TestResolve_IgnoresFutureObservations(t *testing.T) {
	rec := male45()
	rec.Visits = []model.VisitRecord{
		visit("2024-05-01", map[string]string{"systolicBP": "128"}),
		visit("2024-07-01", map[string]string{"systolicBP": "150"}),
	}
	m := Resolve(rec, asOf)
	if m.SystolicBP == nil || m.SystolicBP.Value != 128 {
		t.Errorf("SBP = %+v, want 128", m.SystolicBP)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	rec := male45()
	rec.InvestigationRecords = []model.InvestigationBatch{
		batch("2024-01-01", test("eGFR", "35"), test("UACR", "120")),
		batch("2024-01-01", test("UACR", "90")),
	}
	rec.Visits = []model.VisitRecord{
		visit("2024-02-01", map[string]string{"serumCreatinine": "1.9", "bmi": "31"}),
		visit("2024-02-01", map[string]string{"bmi": "29"}),
	}
	r := New(normalize.DefaultCatalog())
	first := r.Resolve(rec, asOf)
	for i := 0; i < 5; i++ {
		if got := r.Resolve(rec, asOf); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, got)
		}
	}
	if first.UACR.Value != 120 {
		t.Errorf("equal-date tie should keep the first candidate, got %v", first.UACR.Value)
	}
}

func TestAge_WholeYears(t *testing.T) {
	s := normalize.ToSnapshot(&model.PatientRecord{DOB: "1979-12-31"}, nil)
	age, ok := Age(s, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	if !ok || age != 45 {
		t.Errorf("Age = %d,%v want 45 (calendar-year difference)", age, ok)
	}
}

func TestAge_UsesYearWrittenOnRecord(t *testing.T) {
	tests := []struct {
		dob  string
		asOf time.Time
		want int
	}{
		{"1979-01-01T00:00:00+05:30", asOf, 45},
		{"1979-12-31T23:00:00-08:00", asOf, 45},
		{"1979-06-15", time.Date(2025, 1, 1, 1, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)), 46},
	}
	for _, tt := range tests {
		s := normalize.ToSnapshot(&model.PatientRecord{DOB: tt.dob}, nil)
		if age, ok := Age(s, tt.asOf); !ok || age != tt.want {
			t.Errorf("Age(%s as of %s) = %d,%v want %d", tt.dob, tt.asOf, age, ok, tt.want)
		}
	}
}

func TestResolve_OffsetBirthDateDerivesWithWrittenYear(t *testing.T) {
	rec := &model.PatientRecord{ID: "p1", DOB: "1979-01-01T00:00:00+05:30", Gender: "male",
		InvestigationRecords: []model.InvestigationBatch{batch("2024-01-01", test("Serum Creatinine", "1.2"))}}
	m := Resolve(rec, asOf)
	if m.EGFR == nil || !m.EGFRDerived {
		t.Fatalf("eGFR = %+v", m.EGFR)
	}
	approx(t, "egfr", m.EGFR.Value, 76.0005, 0.001)
}

func TestLatestVisitBMI(t *testing.T) {
	rec := male45()
	rec.Visits = []model.VisitRecord{
		visit("2024-01-01", map[string]string{"bmi": "31"}),
		visit("2024-03-01", map[string]string{"systolicBP": "140"}),
	}
	s := normalize.ToSnapshot(rec, nil)
	if got := LatestVisitBMI(s, asOf); got != nil {
		t.Errorf("latest visit has no BMI, got %+v", got)
	}
	if got := LatestVisitBMI(s, day("2024-02-01")); got == nil || got.Value != 31 {
		t.Errorf("as of Feb the January BMI is latest, got %+v", got)
	}
}
