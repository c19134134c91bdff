package mt940

import (
	"errors"
	"fmt"

	"github.com/rahulcharvekar/reconciliation-service/internal/parsererror"
	"github.com/rahulcharvekar/reconciliation-service/internal/textutils"
)

// DecodedMessage is the outcome for one message. When Err is set, Statement
// holds whatever was decoded before the failure.
type DecodedMessage struct {
	Index     int
	Source    string
	Line      int
	Statement Statement
	Err       error
}

// Decode splits text into messages and decodes each independently; a failing
// message never prevents its siblings from decoding. Only text with no
// message at all is an error.
func Decode(text, source string) ([]DecodedMessage, error) {
	raw := SplitMessages(text)
	if len(raw) == 0 {
		return nil, &parsererror.DecodeError{Format: FormatName, Source: source, Err: parsererror.ErrNoMessages}
	}

	out := make([]DecodedMessage, 0, len(raw))
	for _, msg := range raw {
		stmt, err := DecodeMessage(msg)
		stmt.Source = source
		var de *parsererror.DecodeError
		if errors.As(err, &de) {
			de.Source = source
		}
		out = append(out, DecodedMessage{
			Index:     msg.Index,
			Source:    source,
			Line:      msg.StartLine,
			Statement: stmt,
			Err:       err,
		})
	}
	return out, nil
}

// DecodeFile decodes raw file content, unpacking a zip archive first. limit
// caps the uncompressed size of archive members.
func DecodeFile(name string, data []byte, limit int64) ([]DecodedMessage, error) {
	inputs := []Input{{Name: name, Data: data}}
	if IsArchive(name, data) {
		members, err := ExtractArchive(name, data, limit)
		if err != nil {
			return nil, err
		}
		inputs = members
	}

	var out []DecodedMessage
	for _, in := range inputs {
		text, _, err := textutils.Decode(in.Data)
		if err != nil {
			return nil, &parsererror.DecodeError{Format: FormatName, Source: in.Name, Err: err}
		}
		msgs, err := Decode(text, in.Name)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", in.Name, err)
		}
		out = append(out, msgs...)
	}
	return out, nil
}
