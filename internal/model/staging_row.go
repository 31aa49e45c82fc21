package model

import (
	"github.com/google/uuid"
)

// StagingRow is one patient document ready for COPY into ingest.stage_patient_docs.
// Document holds the re-encoded JSON, not the raw export bytes.
type StagingRow struct {
	ImportBatchID   uuid.UUID
	ImportFileID    int64
	SourceRowNumber int64
	PatientID       string
	Document        []byte
	DocumentSHA256  string
	VisitCount      int32
	BatchCount      int32
}

// StagingColumns returns the ordered column names for COPY into ingest.stage_patient_docs.
func StagingColumns() []string {
	return []string{
		"import_batch_id",
		"import_file_id",
		"source_row_number",
		"patient_id",
		"document",
		"document_sha256",
		"visit_count",
		"batch_count",
	}
}

// CopyValues returns the row values in the same order as StagingColumns(),
// suitable for pgx CopyFromSource.
func (r *StagingRow) CopyValues() []any {
	return []any{
		r.ImportBatchID,
		r.ImportFileID,
		r.SourceRowNumber,
		r.PatientID,
		string(r.Document),
		r.DocumentSHA256,
		r.VisitCount,
		r.BatchCount,
	}
}
