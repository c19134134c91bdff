package mt940

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/dateutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

// FingerprintInput is the tuple identifying one transaction across files.
type FingerprintInput struct {
	Account        string
	StatementRef   string
	Sequence       string
	ValueDate      time.Time
	Amount         decimal.Decimal
	DC             models.DC
	EntryReference string
	BankReference  string
	CustomerRef    string
}

// Fingerprint returns the lowercase hex SHA-256 of the pipe-joined tuple.
// Absent values contribute empty strings; amounts are written canonically so
// that formatting differences between files do not change the result.
func Fingerprint(in FingerprintInput) string {
	valueDate := ""
	if !in.ValueDate.IsZero() {
		valueDate = dateutils.ToISODate(in.ValueDate)
	}
	raw := strings.Join([]string{
		in.Account,
		in.StatementRef,
		in.Sequence,
		valueDate,
		models.CanonicalAmount(in.Amount.Abs()),
		string(in.DC),
		in.EntryReference,
		in.BankReference,
		in.CustomerRef,
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
