// Package vanparser decodes the virtual account number (VAN) credit feed, a
// CSV export with a fixed set of named columns.
package vanparser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/common"
	"github.com/rahulcharvekar/reconciliation-service/internal/dateutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
	"github.com/rahulcharvekar/reconciliation-service/internal/textutils"
)

// FormatName labels errors raised by this package.
const FormatName = "VAN"

// FileExtensions are accepted in the VAN inbox.
var FileExtensions = []string{".csv"}

// Column headers, matched exactly.
const (
	HeaderMainAccount     = "Main Account Number"
	HeaderVirtualAccount  = "Virtual Account Number (VAN)"
	HeaderTransactionRef  = "Transaction Reference Number"
	HeaderBankReference   = "Bank Reference / Trace ID"
	HeaderRemitterName    = "Remitter Name"
	HeaderRemitterAccount = "Remitter Account Number"
	HeaderRemitterIFSC    = "Remitter IFSC / Bank Name"
	HeaderRemitterVPA     = "Remitter VPA"
	HeaderTransactionDate = "Transaction Date"
	HeaderValueDate       = "Value Date"
	HeaderAmount          = "Amount (INR)"
	HeaderChannel         = "Mode / Channel"
	HeaderNarration       = "Payment Description / Narration"
	HeaderPaymentStatus   = "Payment Status"
	HeaderCustomerCode    = "Mapped Customer ID / Code"
	HeaderInvoiceRef      = "Invoice / Reference ID"
	HeaderCreditedAt      = "Date & Time of Credit"
	HeaderBranchCode      = "Branch / Bank Code"
)

// Headers is the complete required header set. Column order is free.
var Headers = []string{
	HeaderMainAccount, HeaderVirtualAccount, HeaderTransactionRef, HeaderBankReference,
	HeaderRemitterName, HeaderRemitterAccount, HeaderRemitterIFSC, HeaderRemitterVPA,
	HeaderTransactionDate, HeaderValueDate, HeaderAmount, HeaderChannel,
	HeaderNarration, HeaderPaymentStatus, HeaderCustomerCode, HeaderInvoiceRef,
	HeaderCreditedAt, HeaderBranchCode,
}

// csvRow is the raw CSV binding.
type csvRow struct {
	MainAccount     string `csv:"Main Account Number"`
	VirtualAccount  string `csv:"Virtual Account Number (VAN)"`
	TransactionRef  string `csv:"Transaction Reference Number"`
	BankReference   string `csv:"Bank Reference / Trace ID"`
	RemitterName    string `csv:"Remitter Name"`
	RemitterAccount string `csv:"Remitter Account Number"`
	RemitterIFSC    string `csv:"Remitter IFSC / Bank Name"`
	RemitterVPA     string `csv:"Remitter VPA"`
	TransactionDate string `csv:"Transaction Date"`
	ValueDate       string `csv:"Value Date"`
	Amount          string `csv:"Amount (INR)"`
	Channel         string `csv:"Mode / Channel"`
	Narration       string `csv:"Payment Description / Narration"`
	PaymentStatus   string `csv:"Payment Status"`
	CustomerCode    string `csv:"Mapped Customer ID / Code"`
	InvoiceRef      string `csv:"Invoice / Reference ID"`
	CreditedAt      string `csv:"Date & Time of Credit"`
	BranchCode      string `csv:"Branch / Bank Code"`
}

// Row is one typed data row. LineNo is the physical line in the file, the
// header being line 1. Absent optional values are nil or invalid.
type Row struct {
	LineNo               int
	MainAccountNumber    string
	VirtualAccountNumber string
	TransactionRef       string
	BankReference        string
	RemitterName         string
	RemitterAccount      string
	RemitterIFSC         string
	RemitterVPA          string
	TransactionDate      *time.Time
	ValueDate            *time.Time
	Amount               decimal.NullDecimal
	Channel              string
	Narration            string
	PaymentStatus        string
	CustomerCode         string
	InvoiceRef           string
	CreditedAt           *time.Time
	BranchCode           string
}

// Transaction converts an accepted row to its persisted form.
func (r Row) Transaction(importRunID int64) models.VANTransaction {
	return models.VANTransaction{
		ImportRunID:          importRunID,
		LineNo:               r.LineNo,
		MainAccountNumber:    r.MainAccountNumber,
		VirtualAccountNumber: r.VirtualAccountNumber,
		TransactionRef:       r.TransactionRef,
		BankReference:        r.BankReference,
		RemitterName:         r.RemitterName,
		RemitterAccount:      r.RemitterAccount,
		RemitterIFSC:         r.RemitterIFSC,
		RemitterVPA:          r.RemitterVPA,
		TransactionDate:      r.TransactionDate,
		ValueDate:            r.ValueDate,
		Amount:               r.Amount.Decimal,
		Channel:              r.Channel,
		Narration:            r.Narration,
		PaymentStatus:        r.PaymentStatus,
		CustomerCode:         r.CustomerCode,
		InvoiceRef:           r.InvoiceRef,
		CreditedAt:           r.CreditedAt,
		BranchCode:           r.BranchCode,
	}
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, logger logging.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening VAN file %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Parse(f, logger)
	if err != nil {
		var de *parsererror.DecodeError
		if errors.As(err, &de) && de.Source == "" {
			de.Source = path
		}
		return nil, err
	}
	return rows, nil
}

// Parse decodes a complete VAN CSV document. Any missing header or any
// unparsable date, timestamp or amount rejects the whole input; business
// rules are left to validation.
func Parse(r io.Reader, logger logging.Logger) ([]Row, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	text, charset, err := textutils.Decode(data)
	if err != nil {
		return nil, &parsererror.DecodeError{Format: FormatName, Err: err}
	}
	content := []byte(text)

	missing, err := common.MissingHeaders(content, Headers)
	if err != nil {
		return nil, &parsererror.DecodeError{Format: FormatName, Line: 1, Msg: "unreadable header", Err: err}
	}
	if len(missing) > 0 {
		return nil, &parsererror.DecodeError{
			Format: FormatName,
			Line:   1,
			Msg:    "missing headers: " + strings.Join(missing, ", "),
		}
	}

	raw, err := common.ReadCSV[csvRow](content)
	if err != nil {
		return nil, &parsererror.DecodeError{Format: FormatName, Err: err}
	}

	lines, err := common.RecordLines(content)
	if err != nil {
		return nil, &parsererror.DecodeError{Format: FormatName, Err: err}
	}

	rows := make([]Row, 0, len(raw))
	for i, cr := range raw {
		lineNo := i + 2
		if i < len(lines) {
			lineNo = lines[i]
		}
		row, err := convertRow(cr, i+1, lineNo)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	logger.Debug("Decoded VAN feed",
		logging.F(logging.FieldCount, len(rows)),
		logging.F("charset", charset))
	return rows, nil
}

func convertRow(cr csvRow, index, lineNo int) (Row, error) {
	row := Row{
		LineNo:               lineNo,
		MainAccountNumber:    strings.TrimSpace(cr.MainAccount),
		VirtualAccountNumber: strings.TrimSpace(cr.VirtualAccount),
		TransactionRef:       strings.TrimSpace(cr.TransactionRef),
		BankReference:        strings.TrimSpace(cr.BankReference),
		RemitterName:         strings.TrimSpace(cr.RemitterName),
		RemitterAccount:      strings.TrimSpace(cr.RemitterAccount),
		RemitterIFSC:         strings.TrimSpace(cr.RemitterIFSC),
		RemitterVPA:          strings.TrimSpace(cr.RemitterVPA),
		Channel:              strings.TrimSpace(cr.Channel),
		Narration:            strings.TrimSpace(cr.Narration),
		PaymentStatus:        strings.TrimSpace(cr.PaymentStatus),
		CustomerCode:         strings.TrimSpace(cr.CustomerCode),
		InvoiceRef:           strings.TrimSpace(cr.InvoiceRef),
		BranchCode:           strings.TrimSpace(cr.BranchCode),
	}

	rowError := func(header, value string, err error) error {
		return &parsererror.DecodeError{
			Format: FormatName,
			Index:  index,
			Line:   row.LineNo,
			Msg:    fmt.Sprintf("invalid %s", header),
			Err:    &parsererror.ParseError{Format: FormatName, Field: header, Value: value, Err: err},
		}
	}

	var err error
	if row.TransactionDate, err = dateutils.ParseOptional(cr.TransactionDate, dateutils.DateLayoutISO); err != nil {
		return row, rowError(HeaderTransactionDate, cr.TransactionDate, err)
	}
	if row.ValueDate, err = dateutils.ParseOptional(cr.ValueDate, dateutils.DateLayoutISO); err != nil {
		return row, rowError(HeaderValueDate, cr.ValueDate, err)
	}
	if row.CreditedAt, err = dateutils.ParseOptional(cr.CreditedAt, dateutils.DateLayoutFull); err != nil {
		return row, rowError(HeaderCreditedAt, cr.CreditedAt, err)
	}
	if row.Amount, err = parseAmount(cr.Amount); err != nil {
		return row, rowError(HeaderAmount, cr.Amount, err)
	}
	return row, nil
}

// groupedAmount is a decimal whose integer part is split by commas into
// thousands (1,250.50) or in the Indian lakh style (1,25,000.50).
var groupedAmount = regexp.MustCompile(`^[-+]?(\d{1,3}(,\d{3})+|\d{1,2}(,\d{2})+,\d{3})(\.\d+)?$`)

// errAmountGrouping rejects commas that are not thousands separators, such
// as a decimal comma.
var errAmountGrouping = errors.New("comma is not a thousands separator")

// parseAmount reads a plain decimal amount with optional thousands
// separators. An empty value is absent, not zero.
func parseAmount(s string) (decimal.NullDecimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}
	if strings.Contains(cleaned, ",") {
		if !groupedAmount.MatchString(cleaned) {
			return decimal.NullDecimal{}, errAmountGrouping
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
