package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRow struct {
	Account string `csv:"Account No"`
	Amount  string `csv:"Amount (INR)"`
}

func TestReadCSV_OrderIndependent(t *testing.T) {
	data := []byte("Amount (INR),Account No\n10.00,ACC1\n20.50,ACC2\n")

	rows, err := ReadCSV[sampleRow](data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sampleRow{Account: "ACC1", Amount: "10.00"}, rows[0])
	assert.Equal(t, "20.50", rows[1].Amount)
}

func TestMissingHeaders(t *testing.T) {
	data := []byte("Account No,Other, Amount (INR)\nA,B,C\n")

	missing, err := MissingHeaders(data, []string{"Account No", "Amount (INR)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Amount (INR)"}, missing, "header names are matched exactly")

	_, err = MissingHeaders(nil, []string{"Account No"})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestRecordLines(t *testing.T) {
	data := []byte("Account No,Amount (INR)\n\nACC1,\"10\n.00\"\nACC2,20.50\n\nACC3,1\n")

	lines, err := RecordLines(data)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 7}, lines)

	rows, err := ReadCSV[sampleRow](data)
	require.NoError(t, err)
	assert.Len(t, rows, len(lines), "one line per bound row")

	_, err = RecordLines(nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}
