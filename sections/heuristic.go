package sections

import (
	"regexp"
	"strings"
)

// Legacy documents predate markers. Their section boundaries are guessed
// from heading patterns in English, Portuguese and Spanish. This is
// approximate: a boundary that cannot be found is simply not split on.

// headingPrefix matches the start of a heading-like line: Markdown heading
// hashes, a bold opener, or nothing for plain label lines.
const headingPrefix = `(?im)^[ \t]*(?:#{1,6}[ \t]*|\*\*[ \t]*|__[ \t]*)?`

var familyPatterns = map[Family][]*regexp.Regexp{
	FamilyMessaging: {
		regexp.MustCompile(headingPrefix + `(?:message|email|e-mail|follow-up|whatsapp)[ \t]+sequence`),
		regexp.MustCompile(headingPrefix + `sequ[eê]ncia[ \t]+de[ \t]+(?:mensagens|e-?mails)`),
		regexp.MustCompile(headingPrefix + `mensagens[ \t]+de[ \t]+(?:follow-?up|acompanhamento)`),
		regexp.MustCompile(headingPrefix + `secuencia[ \t]+de[ \t]+(?:mensajes|correos)`),
		regexp.MustCompile(headingPrefix + `(?:message|email|e-mail|mensagem|mensaje)[ \t]*#?[ \t]*0?1(?:[^0-9]|$)`),
	},
	FamilyItems: {
		regexp.MustCompile(headingPrefix + `(?:deliverables|bonuses|bonus[ \t]+stack|what[ \t]+you[ \t]+get)`),
		regexp.MustCompile(headingPrefix + `(?:entreg[aá]veis|b[oô]nus|o[ \t]+que[ \t]+voc[eê][ \t]+recebe)`),
		regexp.MustCompile(headingPrefix + `(?:entregables|lo[ \t]+que[ \t]+recibes)`),
		regexp.MustCompile(headingPrefix + `(?:deliverable|bonus|item)[ \t]*#?[ \t]*0?1(?:[^0-9]|$)`),
	},
}

// earliest returns the offset of the first line matching any of the
// family's patterns, or -1.
func earliest(doc string, fam Family) int {
	best := -1
	for _, re := range familyPatterns[fam] {
		loc := re.FindStringIndex(doc)
		if loc == nil {
			continue
		}
		start := lineStart(doc, loc[0])
		if best < 0 || start < best {
			best = start
		}
	}
	return best
}

func lineStart(doc string, at int) int {
	if i := strings.LastIndexByte(doc[:at], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// parseHeuristic finds one boundary per non-lead section. Boundaries must
// appear in registry order; a match at or before the previous accepted
// boundary is treated as a false positive and dropped.
func parseHeuristic(doc string, reg Registry) (Parsed, bool) {
	if reg.Len() < 2 || strings.TrimSpace(doc) == "" {
		return Parsed{}, false
	}

	var found []boundary
	last := 0
	for i := 1; i < reg.Len(); i++ {
		at := earliest(doc, reg.Sections[i].Family)
		if at <= 0 || at <= last {
			continue
		}
		found = append(found, boundary{index: i, start: at, body: at})
		last = at
	}
	if len(found) == 0 {
		return Parsed{}, false
	}

	out := make(map[int]string, len(found)+1)
	out[0] = doc[:found[0].start]
	for k, b := range found {
		end := len(doc)
		if k+1 < len(found) {
			end = found[k+1].start
		}
		out[b.index] = doc[b.body:end]
	}

	nonEmpty := 0
	for _, text := range out {
		if strings.TrimSpace(text) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return Parsed{}, false
	}
	return Parsed{Sections: out, HasSections: true, Tier: TierHeuristic}, true
}
