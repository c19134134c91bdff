// Package mt940 decodes SWIFT MT940 customer statement messages.
//
// The decoder owns the whole tag grammar: envelope splitting, block 4 field
// tokenising and the sub-field layout of :60a:, :61:, :62a:, :64:, :65: and
// :86:. Output is a plain Statement value with no persistence concerns.
package mt940

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

// Statement is one decoded MT940 message.
type Statement struct {
	Index        int
	Source       string
	Reference    string
	Sequence     string
	Account      string
	Currency     string
	Interim      bool
	Opening      *Balance
	Closing      *Balance
	Available    []Balance
	Forward      []Balance
	Transactions []Transaction
	Fields       []Field
}

// Transaction is one :61: line paired with its :86: narrative.
type Transaction struct {
	Line           int
	ValueDate      time.Time
	EntryDate      *time.Time
	DC             models.DC
	FundsCode      string
	Amount         decimal.Decimal
	Currency       string
	TypeCode       string
	CustomerRef    string
	BankRef        string
	EntryReference string
	Narrative      string
	NarrativeLine  int
	Segments       []Segment
	Fingerprint    string
}

// SignedAmount is the amount negated for debits.
func (t Transaction) SignedAmount() decimal.Decimal {
	return t.DC.Sign(t.Amount)
}

// Balances lists every balance of the statement in field order: opening,
// closing, available, forward.
func (s Statement) Balances() []Balance {
	var out []Balance
	if s.Opening != nil {
		out = append(out, *s.Opening)
	}
	if s.Closing != nil {
		out = append(out, *s.Closing)
	}
	out = append(out, s.Available...)
	return append(out, s.Forward...)
}

// DecodeMessage decodes one message. Errors are *parsererror.DecodeError
// carrying the message index.
func DecodeMessage(msg RawMessage) (Statement, error) {
	stmt := Statement{Index: msg.Index}
	fields := Fields(msg)
	if len(fields) == 0 {
		return stmt, withIndex(&parsererror.DecodeError{
			Format: FormatName,
			Line:   msg.StartLine,
			Msg:    "message has no tagged fields",
		}, msg.Index)
	}
	stmt.Fields = fields

	var lines []Field
	var narratives []Field

	for _, f := range fields {
		var err error
		switch f.Tag {
		case "20":
			stmt.Reference = strings.TrimSpace(f.Value)
		case "25":
			stmt.Account = strings.TrimSpace(f.Value)
		case "28C", "28":
			stmt.Sequence = strings.TrimSpace(f.Value)
		case "60F", "60M":
			stmt.Opening, err = parseBalance(f, models.BalanceOpening)
			stmt.Interim = stmt.Interim || f.Tag == "60M"
		case "62F", "62M":
			stmt.Closing, err = parseBalance(f, models.BalanceClosing)
			stmt.Interim = stmt.Interim || f.Tag == "62M"
		case "64":
			var b *Balance
			if b, err = parseBalance(f, models.BalanceAvailable); err == nil && b != nil {
				stmt.Available = append(stmt.Available, *b)
			}
		case "65":
			var b *Balance
			if b, err = parseBalance(f, models.BalanceForward); err == nil && b != nil {
				stmt.Forward = append(stmt.Forward, *b)
			}
		case "61":
			lines = append(lines, f)
		case "86":
			narratives = append(narratives, f)
		}
		if err != nil {
			return stmt, withIndex(err, msg.Index)
		}
	}

	if stmt.Opening != nil {
		stmt.Currency = stmt.Opening.Currency
	}

	for i, f := range lines {
		sl, err := parseStatementLine(f)
		if err != nil {
			return stmt, withIndex(err, msg.Index)
		}
		txn := Transaction{
			Line:           f.Line,
			ValueDate:      sl.ValueDate,
			EntryDate:      sl.EntryDate,
			DC:             sl.DC,
			FundsCode:      sl.FundsCode,
			Amount:         sl.Amount,
			Currency:       stmt.Currency,
			TypeCode:       sl.TypeCode,
			CustomerRef:    sl.CustomerRef,
			BankRef:        sl.BankRef,
			EntryReference: sl.Supplementary,
		}
		// Narratives pair with statement lines by position.
		if i < len(narratives) {
			txn.Narrative = narratives[i].Value
			txn.NarrativeLine = narratives[i].Line
			txn.Segments = ParseNarrative(txn.Narrative)
		}
		txn.Fingerprint = Fingerprint(FingerprintInput{
			Account:        stmt.Account,
			StatementRef:   stmt.Reference,
			Sequence:       stmt.Sequence,
			ValueDate:      sl.ValueDate,
			Amount:         sl.Amount,
			DC:             sl.DC,
			EntryReference: txn.EntryReference,
			BankReference:  txn.BankRef,
			CustomerRef:    txn.CustomerRef,
		})
		stmt.Transactions = append(stmt.Transactions, txn)
	}

	return stmt, nil
}

func withIndex(err error, index int) error {
	if de, ok := err.(*parsererror.DecodeError); ok {
		de.Index = index
		return de
	}
	return &parsererror.DecodeError{Format: FormatName, Index: index, Err: err}
}
