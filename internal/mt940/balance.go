package mt940

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rahulcharvekar/reconciliation-service/internal/dateutils"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

// Balance is a decoded :60a:, :62a:, :64: or :65: field. Amount is invalid
// when the field carried no amount digits. An empty field decodes to no
// balance at all.
type Balance struct {
	Type     models.BalanceType
	Tag      string
	DC       models.DC
	Date     time.Time
	Currency string
	Amount   decimal.NullDecimal
	Line     int
}

// Signed returns the balance amount negated for a debit balance.
func (b Balance) Signed() models.Money {
	return models.NewMoney(b.DC.Sign(b.Amount.Decimal), b.Currency)
}

// 1!a6!n3!a15d
var balancePattern = regexp.MustCompile(`^([CD])([0-9]{6})([A-Z]{3})([0-9,]*)$`)

func parseBalance(f Field, typ models.BalanceType) (*Balance, error) {
	value := strings.TrimSpace(strings.ReplaceAll(f.Value, "\n", ""))
	if value == "" {
		return nil, nil
	}
	m := balancePattern.FindStringSubmatch(value)
	if m == nil {
		return nil, fieldError(f, "balance", fmt.Errorf("expected D/C mark, YYMMDD date, currency and amount"))
	}

	date, err := dateutils.ParseSWIFTDate(m[2])
	if err != nil {
		return nil, fieldError(f, "balance date", err)
	}

	b := &Balance{
		Type:     typ,
		Tag:      f.Tag,
		DC:       models.DC(m[1]),
		Date:     date,
		Currency: m[3],
		Line:     f.Line,
	}
	if m[4] != "" {
		amount, err := models.ParseAmount(m[4])
		if err != nil {
			return nil, fieldError(f, "balance amount", err)
		}
		b.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	return b, nil
}
