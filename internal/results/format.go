package results

import (
	"strings"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/mapper"
)

const (
	maxLabelLen   = 98
	truncLabelLen = 95
)

// SearchResult is the normalized JSON shape of one search hit.
type SearchResult struct {
	URI     string                `json:"uri"`
	ID      string                `json:"id"`
	Label   string                `json:"label"`
	Context []mapper.ContextEntry `json:"context,omitempty"`
}

// FormatSearch converts assembled records into SearchResults, keeping their
// order and dropping repeated subjects.
func FormatSearch(records []Record, langs []string) []SearchResult {
	out := make([]SearchResult, 0, len(records))
	seen := make(map[graph.Term]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.Subject]; dup {
			continue
		}
		seen[r.Subject] = struct{}{}

		id := r.Subject.Value
		if v := PickValue(r.Values[mapper.FieldID], langs); v.Value != "" {
			id = v.Value
		}
		out = append(out, SearchResult{
			URI:     r.Subject.Value,
			ID:      id,
			Label:   FullLabel(labelValues(r.Values[mapper.FieldLabel], langs), labelValues(r.Values[mapper.FieldAltLabel], langs)),
			Context: r.Context,
		})
	}
	return out
}

// FullLabel joins labels with ", " (bracketed when there is more than one),
// appends " (alt1, alt2)" when altlabels exist, and truncates long results
// to 95 characters plus "...".
func FullLabel(labels, altlabels []string) string {
	lbl := strings.Join(labels, ", ")
	if len(labels) > 1 {
		lbl = "[" + lbl + "]"
	}
	if len(altlabels) > 0 {
		lbl += " (" + strings.Join(altlabels, ", ") + ")"
	}
	if r := []rune(lbl); len(r) > maxLabelLen {
		lbl = string(r[:truncLabelLen]) + "..."
	}
	return strings.TrimSpace(lbl)
}

// labelValues keeps the values in the best available language: those
// matching langs if any do, else the untagged ones, else all of them.
func labelValues(vs []graph.Term, langs []string) []string {
	pick := func(keep func(graph.Term) bool) []string {
		var out []string
		for _, v := range vs {
			if v.Value != "" && keep(v) {
				out = append(out, v.Value)
			}
		}
		return out
	}
	if len(langs) > 0 {
		if out := pick(func(v graph.Term) bool { return v.Lang != "" && graph.LangMatches(v.Lang, langs) }); len(out) > 0 {
			return out
		}
	}
	if out := pick(func(v graph.Term) bool { return v.Lang == "" }); len(out) > 0 {
		return out
	}
	return pick(func(graph.Term) bool { return true })
}
