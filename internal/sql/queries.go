package sql

import (
	"embed"
)

// Migrations holds the schema DDL, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_import_file.sql
var RegisterImportFile string

//go:embed queries/lookup_import_file.sql
var LookupImportFile string

//go:embed queries/update_import_status.sql
var UpdateImportStatus string

//go:embed queries/merge_patients.sql
var MergePatients string

//go:embed queries/delete_staging_batch.sql
var DeleteStagingBatch string

//go:embed queries/analyze_registry.sql
var AnalyzeRegistry string

//go:embed queries/get_patient.sql
var GetPatient string

//go:embed queries/list_patient_ids.sql
var ListPatientIDs string

//go:embed queries/upsert_patient.sql
var UpsertPatient string

//go:embed queries/save_assessment.sql
var SaveAssessment string

//go:embed queries/latest_assessment.sql
var LatestAssessment string
