package redact

import (
	"sort"
	"strings"

	"github.com/dlpscan/dlpscan/internal/types"
)

// Text replaces each located finding in text with "[INFO_TYPE]". Overlapping
// or adjacent ranges are merged and take the label of the earliest finding.
// Findings without a location, or with a range outside text, are skipped.
// It returns the redacted text and the number of spans replaced.
func Text(text string, findings []types.Finding) (string, int) {
	type span struct {
		start, end int
		label      string
	}
	var spans []span
	for _, f := range findings {
		if f.Location == nil {
			continue
		}
		s, e := int(f.Location.Start), int(f.Location.End)
		if s < 0 || e > len(text) || s >= e {
			continue
		}
		spans = append(spans, span{s, e, f.InfoType})
	}
	if len(spans) == 0 {
		return text, 0
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, sp := range merged {
		b.WriteString(text[pos:sp.start])
		b.WriteString("[" + sp.label + "]")
		pos = sp.end
	}
	b.WriteString(text[pos:])
	return b.String(), len(merged)
}
