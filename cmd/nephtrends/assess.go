package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/nephtrends/internal/assess"
	"github.com/gyeh/nephtrends/internal/exitcode"
	"github.com/gyeh/nephtrends/internal/logging"
	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/snapshot"
)

var assessPatient string

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Resolve metrics and score risk for every patient in an export",
	RunE:  runAssess,
}

func init() {
	f := assessCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to JSON array or NDJSON export (required)")
	f.StringVar(&cfg.AsOf, "as-of", "", "Evaluation date, YYYY-MM-DD or RFC 3339 (default today)")
	f.BoolVar(&cfg.JSON, "json", false, "Print one JSON assessment per line")
	f.StringVar(&assessPatient, "patient", "", "Only assess the patient with this id")
	_ = assessCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := log.WithContext(context.Background())

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	asOf, err := assess.ParseAsOf(cfg.AsOf, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("invalid --as-of")
		os.Exit(exitcode.UsageError)
	}
	assessor, err := newAssessor(log)
	if err != nil {
		log.Error().Err(err).Msg("invalid risk model configuration")
		os.Exit(exitcode.UsageError)
	}

	r, err := snapshot.Open(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open export")
		os.Exit(exitcode.ValidationError)
	}
	defer r.Close()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	var n int
	for {
		rec, _, err := r.Next()
		if err == io.EOF {
			break
		}
		var docErr *snapshot.DocumentError
		if errors.As(err, &docErr) {
			log.Warn().Err(err).Msg("skipping document")
			continue
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to read export")
			os.Exit(exitcode.ValidationError)
		}
		if assessPatient != "" && rec.ID != assessPatient {
			continue
		}

		a := assessor.Assess(ctx, rec, asOf)
		n++
		if cfg.JSON {
			if err := enc.Encode(a); err != nil {
				return err
			}
			continue
		}
		printAssessment(out, &a)
	}

	if n == 0 && assessPatient != "" {
		log.Error().Str("patient_id", assessPatient).Msg("patient not found in export")
		os.Exit(exitcode.ValidationError)
	}
	log.Info().Int("patients", n).Time("as_of", asOf).Msg("assessment complete")
	return nil
}

func printAssessment(w io.Writer, a *model.Assessment) {
	age := "?"
	if a.Age != nil {
		age = fmt.Sprint(*a.Age)
	}
	sex := string(a.Sex)
	if sex == "" {
		sex = "?"
	}
	fmt.Fprintf(w, "%s  age %s  sex %s  as of %s\n", a.PatientID, age, sex, a.AsOf.Format("2006-01-02"))

	for _, vs := range model.AllVariables {
		o := a.Metrics.Get(vs.Variable)
		if o == nil {
			continue
		}
		note := string(o.Source)
		if vs.Variable == model.EGFR && a.Metrics.EGFRDerived {
			note = "derived from creatinine"
		}
		fmt.Fprintf(w, "  %-18s %8.1f %-10s %s (%s)\n", vs.Label, o.Value, vs.Unit, o.Date.Format("2006-01-02"), note)
	}

	kf := a.KidneyFailure
	fmt.Fprintf(w, "  KFRE     2y %s (%s)  5y %s (%s)%s\n",
		pct(kf.TwoYear), kf.TwoYearBand, pct(kf.FiveYear), kf.FiveYearBand, missing(kf.Missing))
	cv := a.Cardiovascular
	fmt.Fprintf(w, "  PREVENT  CVD 10y %s (%s)  HF 10y %s%s\n",
		pct(cv.TenYear), cv.Band, pct(cv.HeartFailure), missing(cv.Missing))
}

func pct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func missing(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "  missing: " + strings.Join(names, ", ")
}
