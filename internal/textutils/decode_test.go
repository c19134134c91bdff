package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		text    string
		charset string
	}{
		{
			name:    "plain utf-8 with CRLF",
			input:   []byte(":20:REF\r\n:25:ACC\r\n"),
			text:    ":20:REF\n:25:ACC\n",
			charset: CharsetUTF8,
		},
		{
			name:    "utf-8 BOM is dropped",
			input:   append([]byte{0xEF, 0xBB, 0xBF}, []byte("Main Account Number")...),
			text:    "Main Account Number",
			charset: CharsetUTF8,
		},
		{
			name:    "latin-1 falls back to windows-1252",
			input:   []byte{'M', 0xFC, 'l', 'l', 'e', 'r', ' ', 0x80},
			text:    "Müller €",
			charset: CharsetWindows1252,
		},
		{
			name:    "utf-16 little endian with BOM",
			input:   []byte{0xFF, 0xFE, 'O', 0, 'K', 0},
			text:    "OK",
			charset: CharsetUTF16,
		},
		{
			name:    "decomposed umlaut is composed",
			input:   []byte("Mu\u0308ller"),
			text:    "M\u00fcller",
			charset: CharsetUTF8,
		},
		{
			name:    "lone CR",
			input:   []byte("a\rb"),
			text:    "a\nb",
			charset: CharsetUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, charset, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.charset, charset)
		})
	}
}
