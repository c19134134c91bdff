package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DC is the debit/credit mark of a balance or transaction line.
//   - C, D: credit, debit
//   - RC, RD: reversal of credit (a debit), reversal of debit (a credit)
type DC string

const (
	Credit         DC = "C"
	Debit          DC = "D"
	ReversalCredit DC = "RC"
	ReversalDebit  DC = "RD"
)

// IsDebit reports whether the mark reduces the account balance.
func (d DC) IsDebit() bool {
	return d == Debit || d == ReversalCredit
}

// Sign applies the mark to an unsigned amount.
func (d DC) Sign(amount decimal.Decimal) decimal.Decimal {
	if d.IsDebit() {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// BalanceType classifies a statement balance line.
type BalanceType string

const (
	BalanceOpening   BalanceType = "OPENING"
	BalanceClosing   BalanceType = "CLOSING"
	BalanceAvailable BalanceType = "AVAILABLE"
	BalanceForward   BalanceType = "FORWARD"
)

// SegmentFull is the key used when a narrative has no recognised structure.
const SegmentFull = "FULL"

// BankAccount is keyed by (AccountNo, Currency).
type BankAccount struct {
	ID         int64  `json:"id"`
	AccountNo  string `json:"account_no"`
	Currency   string `json:"currency"`
	IBAN       string `json:"iban,omitempty"`
	BankBIC    string `json:"bank_bic,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// StatementFile is one MT940 statement message. Unique on
// (BankAccountID, StatementRef, Sequence).
type StatementFile struct {
	ID            int64           `json:"id"`
	ImportRunID   int64           `json:"import_run_id"`
	BankAccountID int64           `json:"bank_account_id"`
	StatementRef  string          `json:"statement_ref"`
	Sequence      string          `json:"sequence"`
	StatementDate time.Time       `json:"statement_date"`
	Currency      string          `json:"currency"`
	OpeningDC     DC              `json:"opening_dc"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	ClosingDC     DC              `json:"closing_dc"`
	ClosingAmount decimal.Decimal `json:"closing_amount"`
	IsInterim     bool            `json:"is_interim"`
}

// StatementBalance is one balance line of a statement.
type StatementBalance struct {
	ID              int64           `json:"id"`
	StatementFileID int64           `json:"statement_file_id"`
	Type            BalanceType     `json:"type"`
	DC              DC              `json:"dc"`
	Date            time.Time       `json:"date"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
}

// StatementTransaction is one :61: line. ExtIdempotencyHash is unique across
// all transactions.
type StatementTransaction struct {
	ID                 int64           `json:"id"`
	StatementFileID    int64           `json:"statement_file_id"`
	LineNo             int             `json:"line_no"`
	ValueDate          time.Time       `json:"value_date"`
	EntryDate          *time.Time      `json:"entry_date,omitempty"`
	DC                 DC              `json:"dc"`
	FundsCode          string          `json:"funds_code,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	SignedAmount       decimal.Decimal `json:"signed_amount"`
	Currency           string          `json:"currency"`
	TxnTypeCode        string          `json:"txn_type_code"`
	CustomerReference  string          `json:"customer_reference,omitempty"`
	BankReference      string          `json:"bank_reference,omitempty"`
	EntryReference     string          `json:"entry_reference,omitempty"`
	Narrative          string          `json:"narrative,omitempty"`
	ExtIdempotencyHash string          `json:"ext_idempotency_hash"`
}

// Transaction86Segment is one ordered key/value part of a :86: narrative.
type Transaction86Segment struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"transaction_id"`
	Key           string `json:"key"`
	Value         string `json:"value"`
	Seq           int    `json:"seq"`
}

// RawStatementLine archives one tagged field verbatim. TxnLineNo is the
// LineNo of the owning transaction, or zero for statement-level fields.
type RawStatementLine struct {
	ID              int64  `json:"id"`
	StatementFileID int64  `json:"statement_file_id"`
	LineNo          int    `json:"line_no"`
	TxnLineNo       int    `json:"txn_line_no,omitempty"`
	Tag             string `json:"tag"`
	RawText         string `json:"raw_text"`
}
