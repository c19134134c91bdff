package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VANTransaction is one accepted row of a VAN credit feed.
type VANTransaction struct {
	ID                   int64           `json:"id"`
	ImportRunID          int64           `json:"import_run_id"`
	LineNo               int             `json:"line_no"`
	MainAccountNumber    string          `json:"main_account_number"`
	VirtualAccountNumber string          `json:"virtual_account_number"`
	TransactionRef       string          `json:"transaction_ref,omitempty"`
	BankReference        string          `json:"bank_reference,omitempty"`
	RemitterName         string          `json:"remitter_name,omitempty"`
	RemitterAccount      string          `json:"remitter_account,omitempty"`
	RemitterIFSC         string          `json:"remitter_ifsc,omitempty"`
	RemitterVPA          string          `json:"remitter_vpa,omitempty"`
	TransactionDate      *time.Time      `json:"transaction_date,omitempty"`
	ValueDate            *time.Time      `json:"value_date,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Channel              string          `json:"channel,omitempty"`
	Narration            string          `json:"narration,omitempty"`
	PaymentStatus        string          `json:"payment_status,omitempty"`
	CustomerCode         string          `json:"customer_code,omitempty"`
	InvoiceRef           string          `json:"invoice_ref,omitempty"`
	CreditedAt           *time.Time      `json:"credited_at,omitempty"`
	BranchCode           string          `json:"branch_code,omitempty"`
}
