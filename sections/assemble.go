package sections

import (
	"fmt"
	"sort"
	"strings"
)

// Part is one successful part of a multipart generation.
type Part struct {
	Index int    `json:"index"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

// AssemblyError reports that assembly was attempted without every part.
type AssemblyError struct {
	Expected int
	Got      int
	Missing  []int
	Reason   string
}

func (e *AssemblyError) Error() string {
	msg := fmt.Sprintf("assembly: have %d of %d parts", e.Got, e.Expected)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(", missing indices %v", e.Missing)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Assemble joins parts in canonical index order, each preceded by its
// marker. Arrival order of parts is irrelevant; every index 0..N-1 of the
// registry must be present exactly once. Markers inside part text are
// removed so the document parses back into the same parts.
func Assemble(parts []Part, reg Registry) (string, error) {
	n := reg.Len()
	if n == 0 {
		return "", &AssemblyError{Expected: 0, Got: len(parts), Reason: "empty registry"}
	}

	byIndex := make(map[int]Part, len(parts))
	for _, p := range parts {
		if p.Index < 0 || p.Index >= n {
			return "", &AssemblyError{Expected: n, Got: len(parts), Reason: fmt.Sprintf("part index %d out of range", p.Index)}
		}
		if _, dup := byIndex[p.Index]; dup {
			return "", &AssemblyError{Expected: n, Got: len(parts), Reason: fmt.Sprintf("duplicate part index %d", p.Index)}
		}
		byIndex[p.Index] = p
	}

	var missing []int
	for i := 0; i < n; i++ {
		if _, ok := byIndex[i]; !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return "", &AssemblyError{Expected: n, Got: len(byIndex), Missing: missing}
	}

	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(reg.Marker(i))
		sb.WriteString(reg.StripMarkers(byIndex[i].Text))
	}
	return sb.String(), nil
}

// AssembleTexts is Assemble for texts already in index order.
func AssembleTexts(texts []string, reg Registry) (string, error) {
	parts := make([]Part, len(texts))
	for i, t := range texts {
		parts[i] = Part{Index: i, Text: t}
	}
	return Assemble(parts, reg)
}

// SortParts orders parts by index in place.
func SortParts(parts []Part) {
	sort.Slice(parts, func(i, j int) bool { return parts[i].Index < parts[j].Index })
}
