package mt940

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func buildZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeFile_TwoMessagesOneBroken(t *testing.T) {
	msgs, err := DecodeFile("two_messages.sta", readTestdata(t, "two_messages.sta"), 1<<20)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	good := msgs[0]
	require.NoError(t, good.Err)
	stmt := good.Statement
	assert.Equal(t, "STMT001", stmt.Reference)
	assert.Equal(t, "BANKDEFF/DE89370400440532013000", stmt.Account)
	assert.Equal(t, "1/1", stmt.Sequence)
	assert.Equal(t, "EUR", stmt.Currency)
	assert.Equal(t, "two_messages.sta", stmt.Source)
	assert.False(t, stmt.Interim)
	require.NotNil(t, stmt.Opening)
	require.NotNil(t, stmt.Closing)
	assert.Equal(t, "1000", stmt.Opening.Amount.Decimal.String())
	assert.Equal(t, "1300", stmt.Closing.Amount.Decimal.String())
	require.Len(t, stmt.Available, 1)
	assert.Len(t, stmt.Balances(), 3)

	require.Len(t, stmt.Transactions, 2)
	credit := stmt.Transactions[0]
	assert.Equal(t, models.Credit, credit.DC)
	assert.Equal(t, "500", credit.SignedAmount().String())
	assert.Equal(t, "EUR", credit.Currency)
	assert.Equal(t, "SEPA CREDIT", credit.EntryReference)
	assert.Equal(t, "BANK1", credit.BankRef)
	assert.Equal(t, "166?00Gutschrift?20Invoice 42\n?21Customer A", credit.Narrative)
	assert.Len(t, credit.Segments, 4)
	assert.Len(t, credit.Fingerprint, 64)

	debit := stmt.Transactions[1]
	assert.Equal(t, "-200", debit.SignedAmount().String())
	assert.Equal(t, "EREF", debit.Segments[0].Key)
	assert.NotEqual(t, credit.Fingerprint, debit.Fingerprint)

	bad := msgs[1]
	require.Error(t, bad.Err)
	var de *parsererror.DecodeError
	require.ErrorAs(t, bad.Err, &de)
	assert.Equal(t, 2, de.Index)
	assert.Equal(t, "two_messages.sta", de.Source)
	assert.Equal(t, 20, de.Line)
	assert.Equal(t, "STMT002", bad.Statement.Reference)
}

func TestDecodeFile_Headerless(t *testing.T) {
	msgs, err := DecodeFile("headerless.mt940", readTestdata(t, "headerless.mt940"), 1<<20)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		require.NoError(t, m.Err)
	}
	assert.Equal(t, models.Debit, msgs[0].Statement.Opening.DC)
	assert.Equal(t, "Salary March", msgs[0].Statement.Transactions[0].Narrative)
	assert.Equal(t, models.ReversalDebit, msgs[1].Statement.Transactions[0].DC)
	assert.Empty(t, msgs[1].Statement.Transactions[0].Narrative)
}

func TestDecodeFile_CRLFAndLatin1(t *testing.T) {
	text := ":20:X\r\n:25:ACC\r\n:60F:C240101EUR0,\r\n:61:240101C1,NTRFNONREF\r\n:86:M\xfcller\r\n:62F:C240101EUR1,\r\n-\r\n"
	msgs, err := DecodeFile("latin1.sta", []byte(text), 1<<20)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NoError(t, msgs[0].Err)
	assert.Equal(t, "Müller", msgs[0].Statement.Transactions[0].Narrative)
}

func TestDecodeFile_NoMessages(t *testing.T) {
	_, err := DecodeFile("empty.sta", nil, 1<<20)
	require.Error(t, err)
	assert.ErrorIs(t, err, parsererror.ErrNoMessages)
}

func TestDecodeFile_Zip(t *testing.T) {
	data := buildZip(t, map[string]string{
		"bank/a.sta":            string(readTestdata(t, "headerless.mt940")),
		"readme.txt":            "not a statement",
		"__MACOSX/bank/._a.sta": "\x00\x05\x16\x07",
	})

	msgs, err := DecodeFile("batch.zip", data, 1<<20)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "bank/a.sta", msgs[0].Source)
	assert.Equal(t, "bank/a.sta", msgs[0].Statement.Source)
}

func TestExtractArchive(t *testing.T) {
	t.Run("no statement members", func(t *testing.T) {
		data := buildZip(t, map[string]string{"readme.txt": "x"})
		_, err := ExtractArchive("batch.zip", data, 1<<20)
		var ae *parsererror.ArchiveError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, parsererror.CodeDecodeError, parsererror.CodeOf(err))
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := ExtractArchive("batch.zip", []byte("plain text"), 1<<20)
		var ae *parsererror.ArchiveError
		require.ErrorAs(t, err, &ae)
	})

	t.Run("uncompressed size limit", func(t *testing.T) {
		data := buildZip(t, map[string]string{"a.sta": string(bytes.Repeat([]byte("x"), 2048))})
		_, err := ExtractArchive("batch.zip", data, 1024)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "size limit")
	})

	t.Run("detected by magic number", func(t *testing.T) {
		data := buildZip(t, map[string]string{"a.mt940": ":20:X\n"})
		assert.True(t, IsArchive("upload.sta", data))
		assert.False(t, IsArchive("upload.sta", []byte(":20:X")))
	})
}
