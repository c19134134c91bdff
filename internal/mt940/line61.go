package mt940

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/dateutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

// statementLine holds the sub-fields of a :61: field:
// 6!n[4!n]2a[1!a]15d1!a3!c16x[//16x] followed by [34x] on the next line.
type statementLine struct {
	ValueDate     time.Time
	EntryDate     *time.Time
	DC            models.DC
	FundsCode     string
	Amount        decimal.Decimal
	TypeCode      string
	CustomerRef   string
	BankRef       string
	Supplementary string
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }
func isAlnum(c byte) bool  { return isDigit(c) || isLetter(c) || (c >= 'a' && c <= 'z') }

func parseStatementLine(f Field) (statementLine, error) {
	first, rest, _ := strings.Cut(f.Value, "\n")
	s := strings.TrimSpace(first)
	var sl statementLine

	if len(s) < 6 {
		return sl, fieldError(f, "value date", fmt.Errorf("line too short"))
	}
	valueDate, err := dateutils.ParseSWIFTDate(s[:6])
	if err != nil {
		return sl, fieldError(f, "value date", err)
	}
	sl.ValueDate = valueDate
	s = s[6:]

	if len(s) >= 4 && isDigit(s[0]) && isDigit(s[1]) && isDigit(s[2]) && isDigit(s[3]) {
		entry, err := dateutils.ParseEntryDate(s[:4], valueDate)
		if err != nil {
			return sl, fieldError(f, "entry date", err)
		}
		sl.EntryDate = &entry
		s = s[4:]
	}

	switch {
	case strings.HasPrefix(s, "RC"), strings.HasPrefix(s, "RD"):
		sl.DC, s = models.DC(s[:2]), s[2:]
	case strings.HasPrefix(s, "C"), strings.HasPrefix(s, "D"):
		sl.DC, s = models.DC(s[:1]), s[1:]
	default:
		return sl, fieldError(f, "debit/credit mark", fmt.Errorf("expected C, D, RC or RD"))
	}

	if len(s) > 0 && isLetter(s[0]) {
		sl.FundsCode, s = s[:1], s[1:]
	}

	n := 0
	for n < len(s) && (isDigit(s[n]) || s[n] == ',') {
		n++
	}
	if n == 0 || n > 15 {
		return sl, fieldError(f, "amount", fmt.Errorf("expected up to 15 digits with a decimal comma"))
	}
	amount, err := models.ParseAmount(s[:n])
	if err != nil {
		return sl, fieldError(f, "amount", err)
	}
	sl.Amount = amount
	s = s[n:]

	if len(s) < 4 || !strings.ContainsRune("SNF", rune(s[0])) || !isAlnum(s[1]) || !isAlnum(s[2]) || !isAlnum(s[3]) {
		return sl, fieldError(f, "transaction type", fmt.Errorf("expected S, N or F followed by a three character code"))
	}
	sl.TypeCode, s = s[:4], s[4:]

	if cust, bank, found := strings.Cut(s, "//"); found {
		sl.CustomerRef, sl.BankRef = strings.TrimSpace(cust), strings.TrimSpace(bank)
	} else {
		sl.CustomerRef = strings.TrimSpace(s)
	}

	sl.Supplementary = strings.TrimSpace(strings.ReplaceAll(rest, "\n", " "))
	return sl, nil
}
