// Package parsererror defines the typed errors raised while decoding,
// validating and routing statement files.
package parsererror

import (
	"errors"
	"fmt"
)

// Code is the machine readable reason stored on ImportError rows.
type Code string

const (
	CodeMissingAccount        Code = "MISSING_ACCOUNT"
	CodeMissingCurrency       Code = "MISSING_CURRENCY"
	CodeMissingBalance        Code = "MISSING_BALANCE"
	CodeNoTransactions        Code = "NO_TRANSACTIONS"
	CodeCurrencyMismatch      Code = "CURRENCY_MISMATCH"
	CodeBalanceMismatch       Code = "BALANCE_MISMATCH"
	CodeMissingMainAccount    Code = "MISSING_MAIN_ACCOUNT"
	CodeMissingVirtualAccount Code = "MISSING_VIRTUAL_ACCOUNT"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeDuplicateStatement    Code = "DUPLICATE_STATEMENT"
	CodeDuplicateTransaction  Code = "DUPLICATE_TRANSACTION"
	CodePersistenceError      Code = "PERSISTENCE_ERROR"
	CodeDecodeError           Code = "DECODE_ERROR"
	CodeFileTooLarge          Code = "FILE_TOO_LARGE"
	CodeIOError               Code = "IO_ERROR"
)

// ErrNoMessages is returned when an input holds no MT940 message at all.
var ErrNoMessages = errors.New("no MT940 messages found")

// ParseError is a failure to interpret a single field value.
type ParseError struct {
	Format string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v", e.Format, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeError reports a message (MT940) or row (VAN) that could not be decoded.
// Index is the 1-based message ordinal or data row number.
type DecodeError struct {
	Format string
	Source string
	Index  int
	Line   int
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	where := e.Format
	if e.Source != "" {
		where += " " + e.Source
	}
	if e.Index > 0 {
		where += fmt.Sprintf(" #%d", e.Index)
	}
	if e.Line > 0 {
		where += fmt.Sprintf(" (line %d)", e.Line)
	}
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", where, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", where, e.Err)
	default:
		return fmt.Sprintf("%s: %s", where, e.Msg)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError is a business-rule rejection of a statement or row.
type ValidationError struct {
	Code    Code
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Subject, e.Reason)
}

// FileTooLargeError is raised before any hashing or decoding.
type FileTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, exceeding the %d byte limit", e.Path, e.Size, e.Limit)
}

// ArchiveError reports an unreadable container or one without usable members.
type ArchiveError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("archive %s: %s", e.Path, e.Msg)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// CodeOf maps an error to the ImportError code recorded for it.
func CodeOf(err error) Code {
	var (
		ve *ValidationError
		de *DecodeError
		pe *ParseError
		ae *ArchiveError
		fe *FileTooLargeError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Code
	case errors.As(err, &fe):
		return CodeFileTooLarge
	case errors.As(err, &de), errors.As(err, &pe), errors.As(err, &ae), errors.Is(err, ErrNoMessages):
		return CodeDecodeError
	default:
		return CodeIOError
	}
}
