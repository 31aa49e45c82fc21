// Package assess runs the full trends pipeline for one patient: normalize,
// resolve, score and report.
package assess

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
	"github.com/gyeh/nephtrends/internal/resolve"
	"github.com/gyeh/nephtrends/internal/risk"
)

// Assessor is safe for concurrent use; it holds no mutable state.
type Assessor struct {
	log      zerolog.Logger
	resolver *resolve.Resolver
	calc     *risk.Calculator
}

// New returns an Assessor. A nil catalog or calculator selects the defaults.
func New(log zerolog.Logger, cat *normalize.Catalog, calc *risk.Calculator) *Assessor {
	if calc == nil {
		calc = risk.NewCalculator(nil, nil)
	}
	return &Assessor{log: log, resolver: resolve.New(cat), calc: calc}
}

// Metrics resolves rec without scoring it.
func (a *Assessor) Metrics(rec *model.PatientRecord, asOf time.Time) model.ResolvedMetricSet {
	return a.resolver.Resolve(rec, asOf)
}

// Assess evaluates rec as of asOf. A logger carried by ctx takes precedence
// over the Assessor's own.
func (a *Assessor) Assess(ctx context.Context, rec *model.PatientRecord, asOf time.Time) model.Assessment {
	log := a.logger(ctx).With().Str("patient_id", rec.ID).Logger()

	snap := a.resolver.Normalize(rec)
	for _, r := range snap.Rejects {
		log.Debug().
			Str("record_id", r.RecordID).
			Str("field", r.Field).
			Str("raw", r.Raw).
			Str("reason", r.Reason).
			Msg("malformed value ignored")
	}
	if snap.SkippedDates > 0 {
		log.Debug().Int("records", snap.SkippedDates).Msg("records without a usable date ignored")
	}

	metrics := resolve.Snapshot(snap, asOf)
	out := model.Assessment{
		PatientID: rec.ID,
		AsOf:      asOf,
		Sex:       snap.Sex,
		Metrics:   metrics,
		Rejects:   snap.Rejects,
	}
	var age *int
	if v, ok := resolve.Age(snap, asOf); ok {
		age = &v
		out.Age = age
	}

	kf := a.calc.KidneyFailure(risk.KidneyFailureInputs{
		Age:  age,
		Sex:  snap.Sex,
		EGFR: value(metrics.EGFR),
		UACR: value(metrics.UACR),
	})
	out.KidneyFailure = model.KidneyFailureResult{
		TwoYear:       kf.TwoYear,
		FiveYear:      kf.FiveYear,
		TwoYearBand:   risk.KidneyFailureBand(kf.TwoYear),
		FiveYearBand:  risk.KidneyFailureBand(kf.FiveYear),
		NotApplicable: kf.NotApplicable,
		Missing:       KidneyFailureMissing(&metrics, snap),
		ModelVersion:  a.calc.KidneyFailureVersion(),
	}

	cv := a.calc.Cardiovascular(risk.CardiovascularInputs{
		Age:              age,
		Sex:              snap.Sex,
		TotalCholesterol: value(metrics.TotalCholesterol),
		HDLCholesterol:   value(metrics.HDLCholesterol),
		SystolicBP:       value(metrics.SystolicBP),
		EGFR:             value(metrics.EGFR),
		BMI:              value(metrics.BMI),
		Diabetic:         snap.Diabetic,
		Smoker:           snap.Smoker,
		OnBPMeds:         snap.OnBPMeds,
		OnStatin:         snap.OnStatin,
	})
	out.Cardiovascular = model.CardiovascularResult{
		TenYear:          cv.TenYear,
		Band:             risk.CardiovascularBand(cv.TenYear),
		HeartFailure:     cv.HeartFailure,
		HeartFailureBand: risk.CardiovascularBand(cv.HeartFailure),
		Missing:          CardiovascularMissing(&metrics, snap),
		ModelVersion:     a.calc.CardiovascularVersion(),
	}

	log.Debug().
		Bool("kfre_scored", kf.FiveYear != nil).
		Bool("prevent_scored", cv.TenYear != nil).
		Msg("assessment complete")
	return out
}

func (a *Assessor) logger(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return *l
		}
	}
	return a.log
}

func value(o *model.Observation) *float64 {
	if o == nil {
		return nil
	}
	v := o.Value
	return &v
}
