package validation

import (
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
	"github.com/rahulcharvekar/reconciliation-service/internal/vanparser"
)

// ValidateVANRow checks, in order, the main account, the virtual account and
// a strictly positive amount.
func ValidateVANRow(row vanparser.Row) error {
	subject := row.TransactionRef
	switch {
	case row.MainAccountNumber == "":
		return &parsererror.ValidationError{Code: parsererror.CodeMissingMainAccount, Subject: subject, Reason: "main account number is empty"}
	case row.VirtualAccountNumber == "":
		return &parsererror.ValidationError{Code: parsererror.CodeMissingVirtualAccount, Subject: subject, Reason: "virtual account number is empty"}
	case !row.Amount.Valid:
		return &parsererror.ValidationError{Code: parsererror.CodeInvalidAmount, Subject: subject, Reason: "amount is empty"}
	case !row.Amount.Decimal.IsPositive():
		return &parsererror.ValidationError{Code: parsererror.CodeInvalidAmount, Subject: subject, Reason: "amount must be greater than zero, got " + row.Amount.Decimal.String()}
	}
	return nil
}
