package model

import "time"

// ImportSummary captures metrics from a single export import run.
type ImportSummary struct {
	FilePath          string
	FileSHA256        string
	ImportFileID      int64
	ImportBatchID     string
	DocsRead          int64
	DocsStaged        int64
	DocsRejected      int64
	PatientsInserted  int64
	PatientsUpdated   int64
	PatientsUnchanged int64
	StagingDeleted    int64
	DurationStage     time.Duration
	DurationMerge     time.Duration
	DurationFinalize  time.Duration
	DurationTotal     time.Duration
}

// ExportSummary captures metrics from a batch assessment export.
type ExportSummary struct {
	OutPath       string
	Patients      int64
	KFREScored    int64
	PREVENTScored int64
	Duration      time.Duration
}
