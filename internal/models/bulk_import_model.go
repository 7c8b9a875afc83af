package models

import "time"

type BulkImport struct {
	ID           int64     `db:"id" json:"id"`
	Reference    string    `db:"reference" json:"reference"`
	TotalRows    int       `db:"total_rows" json:"total_rows"`
	CreatedRows  int       `db:"created_rows" json:"created_rows"`
	FailedRows   int       `db:"failed_rows" json:"failed_rows"`
	Status       string    `db:"status" json:"status"`
	ErrorSummary string    `db:"error_summary" json:"error_summary,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	ImportStatusCompleted = "completed"
	ImportStatusPartial   = "partial"
	ImportStatusFailed    = "failed"
)
