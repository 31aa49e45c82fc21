// Package store is the Postgres-backed patient document registry.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
	embedsql "github.com/gyeh/nephtrends/internal/sql"
)

// ErrNotFound is returned when a patient or assessment does not exist.
var ErrNotFound = errors.New("not found")

const listPageSize = 500

// Store reads and writes registry.patients and registry.risk_assessments.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetPatient returns the stored document for id and its SHA-256.
func (s *Store) GetPatient(ctx context.Context, id string) (*model.PatientRecord, string, error) {
	var (
		doc []byte
		sha string
	)
	err := s.pool.QueryRow(ctx, embedsql.GetPatient, id).Scan(&doc, &sha)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get patient %q: %w", id, err)
	}
	var rec model.PatientRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, "", fmt.Errorf("decode patient %q: %w", id, err)
	}
	return &rec, sha, nil
}

// ListPatientIDs returns up to limit ids greater than after, in order.
func (s *Store) ListPatientIDs(ctx context.Context, after string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, embedsql.ListPatientIDs, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list patient ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list patient ids: %w", err)
	}
	return ids, nil
}

// EachPatient calls fn for every stored patient in id order. It stops at the
// first error fn returns.
func (s *Store) EachPatient(ctx context.Context, fn func(*model.PatientRecord) error) error {
	after := ""
	for {
		ids, err := s.ListPatientIDs(ctx, after, listPageSize)
		if err != nil {
			return err
		}
		for _, id := range ids {
			rec, _, err := s.GetPatient(ctx, id)
			if errors.Is(err, ErrNotFound) {
				continue // deleted between pages
			}
			if err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		if len(ids) < listPageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

// UpsertPatient stores rec. changed is false when an identical document was
// already stored.
func (s *Store) UpsertPatient(ctx context.Context, rec *model.PatientRecord) (changed bool, err error) {
	if rec.ID == "" {
		return false, fmt.Errorf("upsert patient: document has no id")
	}
	doc, sha, err := normalize.DocumentHash(rec)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, embedsql.UpsertPatient,
		rec.ID, string(doc), sha, len(rec.Visits), len(rec.InvestigationRecords))
	if err != nil {
		return false, fmt.Errorf("upsert patient %q: %w", rec.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// StoredAssessment is a persisted assessment with its bookkeeping columns.
type StoredAssessment struct {
	ID             uuid.UUID        `json:"id"`
	DocumentSHA256 string           `json:"documentSha256"`
	CreatedAt      time.Time        `json:"createdAt"`
	Assessment     model.Assessment `json:"assessment"`
}

// SaveAssessment records a computed assessment. sha identifies the patient
// document it was computed from.
func (s *Store) SaveAssessment(ctx context.Context, a *model.Assessment, sha string) (uuid.UUID, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode assessment: %w", err)
	}
	id := uuid.New()
	_, err = s.pool.Exec(ctx, embedsql.SaveAssessment,
		id, a.PatientID, a.AsOf, sha,
		a.KidneyFailure.TwoYear, a.KidneyFailure.FiveYear, string(a.KidneyFailure.FiveYearBand),
		a.Cardiovascular.TenYear, string(a.Cardiovascular.Band), a.Cardiovascular.HeartFailure,
		a.KidneyFailure.ModelVersion, a.Cardiovascular.ModelVersion,
		string(body),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save assessment for %q: %w", a.PatientID, err)
	}
	return id, nil
}

// LatestAssessment returns the most recent saved assessment for patientID.
func (s *Store) LatestAssessment(ctx context.Context, patientID string) (*StoredAssessment, error) {
	var (
		out  StoredAssessment
		body []byte
	)
	err := s.pool.QueryRow(ctx, embedsql.LatestAssessment, patientID).
		Scan(&out.ID, &out.DocumentSHA256, &body, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest assessment for %q: %w", patientID, err)
	}
	if err := json.Unmarshal(body, &out.Assessment); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &out, nil
}
