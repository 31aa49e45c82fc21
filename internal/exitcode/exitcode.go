// Package exitcode lists the process exit codes of the nephtrends CLI.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2 // unreadable or empty export
	DBConnError     = 3
	StageError      = 4
	MergeError      = 5 // merge, finalize or migration failure
	ExportError     = 6
	ServeError      = 7
)
