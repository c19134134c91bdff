package mt940

import (
	"regexp"
	"strings"
)

const envelopeStart = "{1:"

// RawMessage is one statement message cut out of a file, with the 1-based
// line of the file it starts on.
type RawMessage struct {
	Index     int
	StartLine int
	Text      string
}

var headerlessStart = regexp.MustCompile(`(?m)^:20:`)

// SplitMessages cuts text into statement messages. A message starts at every
// "{1:" envelope marker. Text before the first marker is not a message and is
// dropped; any later fragment preceding the next marker is kept with the
// message it follows. Text without any envelope is split at each :20: field,
// which is how headerless bank exports separate statements.
func SplitMessages(text string) []RawMessage {
	var starts []int
	if strings.Contains(text, envelopeStart) {
		for i := 0; i < len(text); {
			j := strings.Index(text[i:], envelopeStart)
			if j < 0 {
				break
			}
			starts = append(starts, i+j)
			i += j + len(envelopeStart)
		}
	} else {
		for _, loc := range headerlessStart.FindAllStringIndex(text, -1) {
			starts = append(starts, loc[0])
		}
	}

	messages := make([]RawMessage, 0, len(starts))
	for n, start := range starts {
		end := len(text)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		chunk := text[start:end]
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		messages = append(messages, RawMessage{
			Index:     len(messages) + 1,
			StartLine: strings.Count(text[:start], "\n") + 1,
			Text:      strings.TrimRight(chunk, " \t\n"),
		})
	}
	return messages
}
