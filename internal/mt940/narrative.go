package mt940

import (
	"regexp"
	"strings"

	"github.com/rahulcharvekar/reconciliation-service/internal/models"
)

// Segment is one ordered key/value part of a :86: narrative. Seq starts at 1.
type Segment struct {
	Key   string
	Value string
	Seq   int
}

// SegmentGVC holds the leading three digit business transaction code of a
// ?NN structured narrative.
const SegmentGVC = "GVC"

var (
	subfieldStart = regexp.MustCompile(`^([0-9]{3})?\?[0-9]{2}`)
	subfieldTag   = regexp.MustCompile(`\?([0-9]{2})`)
	slashCode     = regexp.MustCompile(`/([A-Z]{2,7})/`)
)

// slashCodes are the keywords recognised in /CODE/value narratives.
var slashCodes = map[string]bool{
	"EREF": true, "MREF": true, "CRED": true, "REMI": true, "ORDP": true,
	"BENM": true, "NAME": true, "PURP": true, "IBAN": true, "BIC": true,
	"ADDR": true, "ULTD": true, "ULTC": true, "CDTRREF": true, "RTRN": true,
	"ACCW": true, "SVCL": true, "CSID": true, "OCMT": true, "CHGS": true,
	"EXCH": true, "TRCD": true, "BUSP": true, "PREF": true,
}

// ParseNarrative splits a :86: narrative into ordered segments. Two
// conventions are recognised:
//   - "?NN" subfields, optionally preceded by a three digit GVC code
//   - "/CODE/value" keywords from a fixed code list
//
// Anything else is returned as a single FULL segment. An empty narrative has
// no segments.
func ParseNarrative(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	flat := strings.ReplaceAll(text, "\n", "")

	if m := subfieldStart.FindStringSubmatch(flat); m != nil {
		return parseSubfields(flat, m[1])
	}
	if segs := parseSlashCodes(flat); segs != nil {
		return segs
	}
	return []Segment{{Key: models.SegmentFull, Value: text, Seq: 1}}
}

func parseSubfields(flat, gvc string) []Segment {
	var segs []Segment
	add := func(key, value string) {
		segs = append(segs, Segment{Key: key, Value: value, Seq: len(segs) + 1})
	}
	if gvc != "" {
		add(SegmentGVC, gvc)
	}

	tags := subfieldTag.FindAllStringSubmatchIndex(flat, -1)
	for i, loc := range tags {
		end := len(flat)
		if i+1 < len(tags) {
			end = tags[i+1][0]
		}
		add(flat[loc[2]:loc[3]], flat[loc[1]:end])
	}
	return segs
}

func parseSlashCodes(flat string) []Segment {
	if !strings.HasPrefix(flat, "/") {
		return nil
	}

	var known [][]int
	for _, loc := range slashCode.FindAllStringSubmatchIndex(flat, -1) {
		if slashCodes[flat[loc[2]:loc[3]]] {
			known = append(known, loc)
		}
	}
	if len(known) == 0 || known[0][0] != 0 {
		return nil
	}

	segs := make([]Segment, 0, len(known))
	for i, loc := range known {
		end := len(flat)
		if i+1 < len(known) {
			end = known[i+1][0]
		}
		value := strings.TrimSpace(strings.TrimSuffix(flat[loc[1]:end], "/"))
		segs = append(segs, Segment{Key: flat[loc[2]:loc[3]], Value: value, Seq: i + 1})
	}
	return segs
}
