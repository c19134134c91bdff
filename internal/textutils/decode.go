// Package textutils turns raw statement bytes into normalised text.
package textutils

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Charset names reported by Decode.
const (
	CharsetUTF8        = "utf-8"
	CharsetUTF16       = "utf-16"
	CharsetWindows1252 = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Decode converts raw file content to NFC-normalised text with LF line
// endings. A byte order mark selects UTF-8 or UTF-16 and is dropped. Content
// that is not valid UTF-8 is read as Windows-1252, the superset of Latin-1
// most bank exports use. The detected charset is returned alongside.
func Decode(data []byte) (string, string, error) {
	var (
		decoded []byte
		charset string
		err     error
	)

	switch {
	case bytes.HasPrefix(data, bomUTF16BE), bytes.HasPrefix(data, bomUTF16LE):
		charset = CharsetUTF16
		decoded, _, err = transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	case utf8.Valid(bytes.TrimPrefix(data, bomUTF8)):
		charset = CharsetUTF8
		decoded = bytes.TrimPrefix(data, bomUTF8)
	default:
		charset = CharsetWindows1252
		decoded, _, err = transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to decode %s text: %w", charset, err)
	}

	return NormalizeNewlines(norm.NFC.String(string(decoded))), charset, nil
}

// NormalizeNewlines rewrites CRLF and lone CR line endings to LF.
func NormalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
