package sections

import (
	"sort"
	"strings"
)

// Tier records which strategy produced a parse.
type Tier string

const (
	TierMarker      Tier = "marker"
	TierHeuristic   Tier = "heuristic"
	TierUnsectioned Tier = "unsectioned"
)

// Parsed is the result of splitting a document. Sections is keyed by part
// index; an unsectioned document is returned whole under index 0.
type Parsed struct {
	Sections    map[int]string `json:"sections"`
	HasSections bool           `json:"has_sections"`
	Tier        Tier           `json:"tier"`
}

// Named is one section with its registry metadata, in document order.
type Named struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Ordered lists the parsed sections by index with their registry names.
// Unsectioned documents yield a single unnamed entry.
func (p Parsed) Ordered(reg Registry) []Named {
	idx := make([]int, 0, len(p.Sections))
	for i := range p.Sections {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]Named, 0, len(idx))
	for _, i := range idx {
		n := Named{Index: i, Text: p.Sections[i]}
		if p.HasSections && i < reg.Len() {
			n.Name = reg.Sections[i].Name
			n.Label = reg.Sections[i].Label
		}
		out = append(out, n)
	}
	return out
}

// Parse splits doc into the registry's sections: exact marker slicing when
// any marker is present, heading heuristics for legacy documents, and the
// whole document as a single block otherwise. Parse never fails.
func Parse(doc string, reg Registry) Parsed {
	if p, ok := parseMarkers(doc, reg); ok {
		return p
	}
	if p, ok := parseHeuristic(doc, reg); ok {
		return p
	}
	return Unsectioned(doc)
}

// Unsectioned wraps doc as a single pane.
func Unsectioned(doc string) Parsed {
	return Parsed{Sections: map[int]string{0: doc}, HasSections: false, Tier: TierUnsectioned}
}

type boundary struct {
	index int
	start int // first byte of the boundary
	body  int // first byte of the section body
}

func parseMarkers(doc string, reg Registry) (Parsed, bool) {
	var found []boundary
	for i := 0; i < reg.Len(); i++ {
		tok := reg.Marker(i)
		if at := strings.Index(doc, tok); at >= 0 {
			found = append(found, boundary{index: i, start: at, body: at + len(tok)})
		}
	}
	if len(found) == 0 {
		return Parsed{}, false
	}
	sort.Slice(found, func(a, b int) bool { return found[a].start < found[b].start })

	out := make(map[int]string, len(found))
	for k, b := range found {
		end := len(doc)
		if k+1 < len(found) {
			end = found[k+1].start
		}
		out[b.index] = doc[b.body:end]
	}
	// Text ahead of the first marker only exists in hand-edited content;
	// keep it rather than drop it.
	if prefix := doc[:found[0].start]; strings.TrimSpace(prefix) != "" {
		out[found[0].index] = prefix + out[found[0].index]
	}
	return Parsed{Sections: out, HasSections: true, Tier: TierMarker}, true
}
