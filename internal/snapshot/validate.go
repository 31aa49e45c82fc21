package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
)

// Stats summarizes an export without writing anything.
type Stats struct {
	Format       Format
	Documents    int64
	Rejected     int64 // not a patient document
	MissingIDs   int64
	DuplicateIDs int64
	Visits       int64
	Batches      int64
	UndatedRecs  int64
	Malformed    int64
	// Candidates counts usable observations per variable across all patients.
	Candidates map[model.Variable]int64
	// Patients counts patients with at least one usable observation per variable.
	Patients map[model.Variable]int64
}

// Scan reads every document in path and collects Stats. It fails only when
// the file itself cannot be read or is not valid JSON.
func Scan(path string, cat *normalize.Catalog) (*Stats, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	st := &Stats{
		Format:     r.Format(),
		Candidates: make(map[model.Variable]int64),
		Patients:   make(map[model.Variable]int64),
	}
	seen := make(map[string]struct{})
	for {
		rec, _, err := r.Next()
		if err == io.EOF {
			break
		}
		var de *DocumentError
		if errors.As(err, &de) {
			st.Documents++
			st.Rejected++
			continue
		}
		if err != nil {
			return nil, err
		}
		st.Documents++
		st.add(rec, cat, seen)
	}
	return st, nil
}

func (st *Stats) add(rec *model.PatientRecord, cat *normalize.Catalog, seen map[string]struct{}) {
	if rec.ID == "" {
		st.MissingIDs++
	} else if _, dup := seen[rec.ID]; dup {
		st.DuplicateIDs++
	} else {
		seen[rec.ID] = struct{}{}
	}
	st.Visits += int64(len(rec.Visits))
	st.Batches += int64(len(rec.InvestigationRecords))

	s := normalize.ToSnapshot(rec, cat)
	st.UndatedRecs += int64(s.SkippedDates)
	st.Malformed += int64(len(s.Rejects))
	for v, obs := range s.Candidates {
		if len(obs) == 0 {
			continue
		}
		st.Candidates[v] += int64(len(obs))
		st.Patients[v]++
	}
}

// Validate rejects exports that cannot be imported at all.
func (st *Stats) Validate() error {
	if st.Documents == 0 {
		return fmt.Errorf("export contains no documents")
	}
	if st.Rejected+st.MissingIDs == st.Documents {
		return fmt.Errorf("none of the %d documents is a patient record with an id", st.Documents)
	}
	return nil
}

// Importable is the number of documents the importer will stage.
func (st *Stats) Importable() int64 {
	return st.Documents - st.Rejected - st.MissingIDs
}
