package validation

import (
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

// RecordError describes one rejected statement or row.
type RecordError struct {
	Index   int
	LineNo  int
	Code    parsererror.Code
	Message string
}

// Summary accumulates per-record outcomes for one import run. Accept and
// Reject return updated copies and never modify the receiver.
type Summary struct {
	Total     int
	Processed int
	Failed    int
	Errors    []RecordError
}

// NewSummary starts a summary for total records.
func NewSummary(total int) Summary {
	return Summary{Total: total}
}

// Accept counts one processed record.
func (s Summary) Accept() Summary {
	s.Processed++
	return s
}

// Reject counts one failed record.
func (s Summary) Reject(e RecordError) Summary {
	errs := make([]RecordError, len(s.Errors), len(s.Errors)+1)
	copy(errs, s.Errors)
	s.Errors = append(errs, e)
	s.Failed++
	return s
}

// Status is FinalStatus of the summary counters.
func (s Summary) Status() models.RunStatus {
	return FinalStatus(s.Processed, s.Failed)
}

// FinalStatus maps record counters to a terminal run status: nothing
// processed is FAILED, anything failed alongside processed records is
// PARTIAL, otherwise IMPORTED.
func FinalStatus(processed, failed int) models.RunStatus {
	switch {
	case processed == 0:
		return models.StatusFailed
	case failed > 0:
		return models.StatusPartial
	default:
		return models.StatusImported
	}
}
