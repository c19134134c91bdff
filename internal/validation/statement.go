// Package validation holds the business rules that decide whether a decoded
// MT940 statement or VAN row is accepted, and the fold that turns individual
// outcomes into an ImportRun status.
package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/mt940"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

// DefaultTolerance is the largest accepted absolute difference between the
// reconciled and the reported closing balance.
var DefaultTolerance = decimal.RequireFromString("0.02")

// ValidatedStatement is a statement that passed every rule, with its signed
// balances and the sum of its signed transactions.
type ValidatedStatement struct {
	Statement      mt940.Statement
	Opening        models.Money
	Closing        models.Money
	TransactionSum models.Money
}

// ValidateStatement applies the statement rules in order and stops at the
// first failure:
//  1. an account identification is present
//  2. a currency is known
//  3. opening and closing balances are present with amounts
//  4. at least one transaction exists
//  5. opening and closing balances are in the statement currency
//  6. opening + sum of signed transactions is within tolerance of closing
func ValidateStatement(stmt mt940.Statement, tolerance decimal.Decimal) (ValidatedStatement, error) {
	subject := stmt.Reference
	reject := func(code parsererror.Code, format string, args ...any) (ValidatedStatement, error) {
		return ValidatedStatement{}, &parsererror.ValidationError{
			Code:    code,
			Subject: subject,
			Reason:  fmt.Sprintf(format, args...),
		}
	}

	if stmt.Account == "" {
		return reject(parsererror.CodeMissingAccount, "statement has no :25: account identification")
	}
	if stmt.Currency == "" {
		return reject(parsererror.CodeMissingCurrency, "statement currency could not be determined")
	}
	if stmt.Opening == nil || !stmt.Opening.Amount.Valid {
		return reject(parsererror.CodeMissingBalance, "opening balance is missing")
	}
	if stmt.Closing == nil || !stmt.Closing.Amount.Valid {
		return reject(parsererror.CodeMissingBalance, "closing balance is missing")
	}
	if len(stmt.Transactions) == 0 {
		return reject(parsererror.CodeNoTransactions, "statement has no :61: lines")
	}
	for _, b := range []*mt940.Balance{stmt.Opening, stmt.Closing} {
		if b.Currency != stmt.Currency {
			return reject(parsererror.CodeCurrencyMismatch, "%s balance :%s: is in %s, statement is in %s",
				b.Type, b.Tag, b.Currency, stmt.Currency)
		}
	}

	sum := decimal.Zero
	for _, txn := range stmt.Transactions {
		sum = sum.Add(txn.SignedAmount())
	}
	opening := stmt.Opening.Signed()
	closing := stmt.Closing.Signed()

	diff := opening.Amount.Add(sum).Sub(closing.Amount).Abs()
	if diff.GreaterThan(tolerance) {
		return reject(parsererror.CodeBalanceMismatch,
			"opening %s + transactions %s does not reconcile to closing %s (difference %s)",
			opening.Amount.StringFixed(2), sum.StringFixed(2), closing.Amount.StringFixed(2), diff.StringFixed(2))
	}

	return ValidatedStatement{
		Statement:      stmt,
		Opening:        opening,
		Closing:        closing,
		TransactionSum: models.NewMoney(sum, stmt.Currency),
	}, nil
}
