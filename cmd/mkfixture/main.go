// mkfixture writes a synthetic patient document export for local testing.
// Patients get a random mix of lab batches and visits, including string and
// numeric clinicalData values, µmol/L creatinine, blank and malformed results.
// Usage: go run ./cmd/mkfixture --out testdata/patients.ndjson --patients 500 --format ndjson
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/nephtrends/internal/model"
)

func main() {
	out := flag.String("out", "testdata/patients.json", "output file")
	patients := flag.Int("patients", 50, "number of patients")
	seed := flag.Int64("seed", 1, "random seed")
	format := flag.String("format", "array", "array or ndjson")
	flag.Parse()

	if *format != "array" && *format != "ndjson" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	uuid.SetRand(rng)

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	counts := make(map[string]int)
	if *format == "array" {
		w.WriteString("[\n")
	}
	for i := 0; i < *patients; i++ {
		rec := genPatient(rng, counts)
		b, err := json.Marshal(rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
			os.Exit(1)
		}
		w.Write(b)
		if *format == "array" && i < *patients-1 {
			w.WriteString(",")
		}
		w.WriteString("\n")
	}
	if *format == "array" {
		w.WriteString("]\n")
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d patients to %s\n", *patients, *out)
	for _, k := range []string{"batches", "visits", "umol_creatinine", "malformed", "blank_dob"} {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(rng *rand.Rand) string {
	return base.AddDate(0, 0, -rng.Intn(3*365)).Format("2006-01-02")
}

func genPatient(rng *rand.Rand, counts map[string]int) *model.PatientRecord {
	rec := &model.PatientRecord{
		ID:     uuid.NewString(),
		Gender: []string{"male", "female", "Male", "F", ""}[rng.Intn(5)],
		ClinicalProfile: model.ClinicalProfile{
			HasDiabetes:                  rng.Intn(4) == 0,
			OnAntiHypertensiveMedication: rng.Intn(3) == 0,
			OnLipidLoweringMedication:    rng.Intn(3) == 0,
			SmokingStatus:                []string{"never", "former", "current", ""}[rng.Intn(4)],
		},
	}
	if rng.Intn(20) == 0 {
		counts["blank_dob"]++
	} else {
		rec.DOB = base.AddDate(-(30 + rng.Intn(50)), -rng.Intn(12), -rng.Intn(28)).Format("2006-01-02")
	}

	for b := rng.Intn(4); b > 0; b-- {
		counts["batches"]++
		batch := model.InvestigationBatch{ID: uuid.NewString(), Date: day(rng)}
		if rng.Intn(2) == 0 {
			batch.Tests = append(batch.Tests, model.TestResult{Name: "eGFR", Result: fmt.Sprintf("%.0f", 10+rng.Float64()*90)})
		}
		if rng.Intn(2) == 0 {
			if rng.Intn(3) == 0 {
				counts["umol_creatinine"]++
				batch.Tests = append(batch.Tests, model.TestResult{Name: "Serum Creatinine", Result: fmt.Sprintf("%.0f", 60+rng.Float64()*300), Unit: "µmol/L"})
			} else {
				batch.Tests = append(batch.Tests, model.TestResult{Name: "Serum Creatinine", Result: fmt.Sprintf("%.2f", 0.6+rng.Float64()*3), Unit: "mg/dL"})
			}
		}
		if rng.Intn(2) == 0 {
			batch.Tests = append(batch.Tests, model.TestResult{Name: "Urine for AC Ratio (mg/gm)", Result: fmt.Sprintf("%.0f", 5+rng.Float64()*1500)})
		}
		if rng.Intn(2) == 0 {
			batch.Tests = append(batch.Tests,
				model.TestResult{Name: "Total Cholesterol", Result: fmt.Sprintf("%.0f", 130+rng.Float64()*170)},
				model.TestResult{Name: "HDL Cholesterol", Result: fmt.Sprintf("%.0f", 25+rng.Float64()*60)},
			)
		}
		if rng.Intn(10) == 0 {
			counts["malformed"]++
			batch.Tests = append(batch.Tests, model.TestResult{Name: "eGFR", Result: ">90"})
		}
		rec.InvestigationRecords = append(rec.InvestigationRecords, batch)
	}

	for v := rng.Intn(4); v > 0; v-- {
		counts["visits"]++
		fields := map[string]string{
			"systolicBP":  fmt.Sprintf("%.0f", 100+rng.Float64()*80),
			"diastolicBP": fmt.Sprintf("%.0f", 60+rng.Float64()*40),
		}
		if rng.Intn(2) == 0 {
			fields["bmi"] = fmt.Sprintf("%.1f", 18+rng.Float64()*20)
		}
		if rng.Intn(4) == 0 {
			fields["serumCreatinine"] = fmt.Sprintf("%.2f", 0.6+rng.Float64()*3)
		}
		rec.Visits = append(rec.Visits, model.VisitRecord{
			ID:           uuid.NewString(),
			Date:         day(rng),
			ClinicalData: &model.ClinicalData{Fields: fields},
		})
	}
	return rec
}
