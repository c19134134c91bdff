package mt940

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessages_Envelope(t *testing.T) {
	text := "preamble from the bank portal\n" +
		"{1:F01XXX}{2:I940}{4:\n:20:A\n-}\n" +
		"{1:F01XXX}{2:I940}{4:\n:20:B\n-}\n"

	msgs := SplitMessages(text)
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].Index)
	assert.Equal(t, 2, msgs[0].StartLine)
	assert.Contains(t, msgs[0].Text, ":20:A")
	assert.NotContains(t, msgs[0].Text, "preamble")
	assert.Equal(t, 2, msgs[1].Index)
	assert.Equal(t, 5, msgs[1].StartLine)
}

func TestSplitMessages_Headerless(t *testing.T) {
	msgs := SplitMessages(":20:A\n:25:X\n-\n:20:B\n:25:Y\n-\n")
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].StartLine)
	assert.Equal(t, 4, msgs[1].StartLine)
	assert.Contains(t, msgs[1].Text, ":25:Y")
}

func TestSplitMessages_Empty(t *testing.T) {
	assert.Empty(t, SplitMessages(""))
	assert.Empty(t, SplitMessages("no statement here\n"))
}

func TestFields(t *testing.T) {
	msg := RawMessage{Index: 1, StartLine: 10, Text: "{1:F01}{2:I940}{4:\n" +
		":20:REF\n" +
		":86:first line\n" +
		"second line\n" +
		":62F:C240101EUR1,00\n" +
		"-}{5:{CHK:123}}"}

	fields := Fields(msg)
	require.Len(t, fields, 3)

	assert.Equal(t, "20", fields[0].Tag)
	assert.Equal(t, 11, fields[0].Line)

	assert.Equal(t, "86", fields[1].Tag)
	assert.Equal(t, "first line\nsecond line", fields[1].Value)
	assert.Equal(t, ":86:first line\nsecond line", fields[1].Raw)
	assert.Equal(t, 12, fields[1].Line)

	assert.Equal(t, "62F", fields[2].Tag)
	assert.Equal(t, "C240101EUR1,00", fields[2].Value)
}

func TestFields_TagOnEnvelopeLine(t *testing.T) {
	fields := Fields(RawMessage{StartLine: 1, Text: "{1:F01}{4::20:REF\n:25:ACC\n-}"})
	require.Len(t, fields, 2)
	assert.Equal(t, "REF", fields[0].Value)
	assert.Equal(t, "ACC", fields[1].Value)
}
