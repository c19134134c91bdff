package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "swift comma", input: "100,50", expected: "100.5"},
		{name: "trailing comma", input: "1250,", expected: "1250"},
		{name: "dot", input: "99.99", expected: "99.99"},
		{name: "padded", input: "  7,00 ", expected: "7"},
		{name: "empty", input: "", wantErr: true},
		{name: "letters", input: "12a,00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(d), "got %s", d)
		})
	}
}

func TestCanonicalAmount(t *testing.T) {
	tests := map[string]string{
		"50":      "50.00",
		"50.0":    "50.00",
		"50.000":  "50.00",
		"0.125":   "0.125",
		"-12.3":   "-12.30",
		"1000.10": "1000.10",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, CanonicalAmount(decimal.RequireFromString(in)))
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(decimal.RequireFromString("100.50"), "EUR")
	b := NewMoney(decimal.RequireFromString("50.25"), "EUR")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(NewMoney(decimal.RequireFromString("150.75"), "EUR")))

	diff, err := b.Sub(a)
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.Equal(t, "50.25 EUR", diff.Abs().String())
	assert.Equal(t, "-100.50 EUR", a.Neg().String())

	_, err = a.Add(NewMoney(decimal.NewFromInt(1), "USD"))
	assert.Error(t, err)
	_, err = a.Sub(ZeroMoney("USD"))
	assert.Error(t, err)
}

func TestDCSign(t *testing.T) {
	amount := decimal.RequireFromString("42.10")
	tests := []struct {
		dc      DC
		debit   bool
		expects string
	}{
		{Credit, false, "42.1"},
		{Debit, true, "-42.1"},
		{ReversalCredit, true, "-42.1"},
		{ReversalDebit, false, "42.1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dc), func(t *testing.T) {
			assert.Equal(t, tt.debit, tt.dc.IsDebit())
			assert.Equal(t, tt.expects, tt.dc.Sign(amount).String())
		})
	}
}

func TestRunStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusParsed.IsTerminal())
	assert.True(t, StatusImported.IsTerminal())
	assert.True(t, StatusPartial.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
