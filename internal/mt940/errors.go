package mt940

import (
	"fmt"

	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

// FormatName labels errors raised by this package.
const FormatName = "MT940"

func fieldError(f Field, what string, err error) error {
	return &parsererror.DecodeError{
		Format: FormatName,
		Line:   f.Line,
		Msg:    fmt.Sprintf("invalid :%s: %s", f.Tag, what),
		Err:    &parsererror.ParseError{Format: FormatName, Field: f.Tag, Value: f.Value, Err: err},
	}
}
