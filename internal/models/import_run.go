// Package models holds the persisted entities of the ingestion service.
package models

import "time"

// FileType is the declared format of an ingested file.
type FileType string

const (
	FileTypeMT940 FileType = "MT940"
	FileTypeVAN   FileType = "VAN"
)

// RunStatus is the lifecycle state of an ImportRun.
type RunStatus string

const (
	StatusNew      RunStatus = "NEW"
	StatusParsed   RunStatus = "PARSED"
	StatusImported RunStatus = "IMPORTED"
	StatusPartial  RunStatus = "PARTIAL"
	StatusFailed   RunStatus = "FAILED"
)

// IsTerminal reports whether no further transition is expected.
func (s RunStatus) IsTerminal() bool {
	return s == StatusImported || s == StatusPartial || s == StatusFailed
}

// ImportRun is one ingestion attempt for one physical file. ContentHash is
// unique when set; runs rejected before hashing carry an empty hash.
type ImportRun struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	ContentHash      string    `json:"content_hash,omitempty"`
	FileSize         int64     `json:"file_size"`
	ReceivedAt       time.Time `json:"received_at"`
	FileType         FileType  `json:"file_type"`
	TotalRecords     int       `json:"total_records"`
	ProcessedRecords int       `json:"processed_records"`
	FailedRecords    int       `json:"failed_records"`
	Status           RunStatus `json:"status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// ImportError is an append-only audit row explaining a rejected statement,
// row or file.
type ImportError struct {
	ID              int64     `json:"id"`
	ImportRunID     int64     `json:"import_run_id"`
	StatementFileID *int64    `json:"statement_file_id,omitempty"`
	LineNo          int       `json:"line_no,omitempty"`
	Code            string    `json:"code"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}
