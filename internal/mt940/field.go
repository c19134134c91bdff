package mt940

import (
	"regexp"
	"strings"
)

// Field is one tagged field of block 4. Value holds everything after the tag,
// continuation lines joined with "\n"; Raw is the verbatim source text.
type Field struct {
	Tag   string
	Value string
	Line  int
	Raw   string
}

var tagLine = regexp.MustCompile(`^:([0-9]{2}[A-Z]?):(.*)$`)

// Fields tokenises the text block of a message. When the message has a
// "{4:" block only its content is read, up to the "-}" terminator; otherwise
// the whole text is treated as the block.
func Fields(msg RawMessage) []Field {
	lines := strings.Split(msg.Text, "\n")
	inBody := !strings.Contains(msg.Text, "{4:")

	var (
		out []Field
		cur *Field
	)
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for i, line := range lines {
		lineNo := msg.StartLine + i
		if !inBody {
			idx := strings.Index(line, "{4:")
			if idx < 0 {
				continue
			}
			inBody = true
			line = line[idx+len("{4:"):]
		}

		line = strings.TrimRight(line, " \t")
		last := false
		if end := strings.Index(line, "-}"); end >= 0 {
			line, last = line[:end], true
		} else if line == "-" {
			break
		}

		if m := tagLine.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Field{Tag: m[1], Value: m[2], Line: lineNo, Raw: line}
		} else if cur != nil && line != "" {
			cur.Value += "\n" + line
			cur.Raw += "\n" + line
		}

		if last {
			break
		}
	}
	flush()
	return out
}
