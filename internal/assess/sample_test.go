package assess

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/snapshot"
)

func TestAssess_SampleExport(t *testing.T) {
	recs, docErrs, err := snapshot.ReadAll("../../testdata/patients.json")
	if err != nil || len(docErrs) != 0 {
		t.Fatalf("ReadAll: %v %v", err, docErrs)
	}
	if len(recs) != 3 {
		t.Fatalf("read %d patients", len(recs))
	}
	a := New(zerolog.Nop(), nil, nil)
	ctx := context.Background()

	ckd := a.Assess(ctx, recs[0], asOf)
	if !ckd.Metrics.EGFRDerived || math.Abs(ckd.Metrics.EGFR.Value-31.71) > 0.05 {
		t.Errorf("eGFR = %+v derived=%v", ckd.Metrics.EGFR, ckd.Metrics.EGFRDerived)
	}
	if ckd.Metrics.SystolicBP == nil || ckd.Metrics.SystolicBP.Value != 136 {
		t.Errorf("SBP = %+v", ckd.Metrics.SystolicBP)
	}
	if ckd.KidneyFailure.FiveYear == nil || ckd.Cardiovascular.TenYear == nil || ckd.Cardiovascular.HeartFailure == nil {
		t.Errorf("expected all scores: %+v %+v", ckd.KidneyFailure, ckd.Cardiovascular)
	}

	preserved := a.Assess(ctx, recs[1], asOf)
	if !preserved.KidneyFailure.NotApplicable || preserved.KidneyFailure.FiveYearBand != "Not applicable" {
		t.Errorf("KFRE = %+v", preserved.KidneyFailure)
	}
	if tc := preserved.Metrics.TotalCholesterol; tc == nil || math.Abs(tc.Value-201.084) > 0.01 {
		t.Errorf("total cholesterol = %+v", tc)
	}
	if preserved.Cardiovascular.TenYear == nil {
		t.Errorf("PREVENT missing = %q", preserved.Cardiovascular.Missing)
	}

	sparse := a.Assess(ctx, recs[2], asOf)
	if sparse.Metrics.EGFR != nil || sparse.Metrics.SystolicBP != nil || sparse.Age != nil {
		t.Errorf("sparse metrics = %+v age=%v", sparse.Metrics, sparse.Age)
	}
	if len(sparse.Rejects) == 0 {
		t.Error("expected the >90 eGFR to be rejected")
	}
	if !slices.Contains(sparse.KidneyFailure.Missing, "eGFR") || !slices.Contains(sparse.KidneyFailure.Missing, "Age") {
		t.Errorf("KFRE missing = %q", sparse.KidneyFailure.Missing)
	}
}
