package quality

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Feature is a boolean property detected in the document.
type Feature string

const (
	FeatureEmotional     Feature = "emotional"
	FeatureVulnerability Feature = "vulnerability"
	FeatureUrgency       Feature = "urgency"
	FeatureGuarantee     Feature = "guarantee"
	FeatureValueStack    Feature = "value_stack"
	FeatureTestimonial   Feature = "testimonial"
	FeatureTiming        Feature = "timing"
)

var featureOrder = []Feature{
	FeatureEmotional, FeatureVulnerability, FeatureUrgency, FeatureGuarantee,
	FeatureValueStack, FeatureTestimonial, FeatureTiming,
}

var featurePatterns = map[Feature]*regexp.Regexp{
	FeatureEmotional: regexp.MustCompile(`(?i)(\bfeel|\bfelt\b|\bfear|\bdream|frustrat|overwhelm|\bimagine\b|\bpain\b|\bsinto\b|\bmedo\b|\bsonho|frustra|\bdor\b)`),
	FeatureVulnerability: regexp.MustCompile(`(?i)(i was (?:stuck|broke|lost|afraid|ashamed)|i almost gave up|my (?:lowest|darkest) (?:point|moment)|\bi failed\b|eu (?:estava|fiquei) (?:perdid|quebrad|travad|sem)|quase desisti|fundo do po[cç]o)`),
	FeatureUrgency: regexp.MustCompile(`(?i)(only \d+ (?:spots|seats|places|copies)|limited (?:time|spots|availability)|doors close|\bdeadline\b|\bexpires?\b|last chance|ends (?:tonight|today|soon)|vagas limitadas|[uú]ltimas vagas|[uú]ltima chance|\bencerra|\bprazo\b)`),
	FeatureGuarantee: regexp.MustCompile(`(?i)(money[- ]back|\bguarantee|risk[- ]free|\brefund|\bgarantia\b|\breembolso|devolvemos)`),
	FeatureValueStack: regexp.MustCompile(`(?i)(total value|worth \$?\d|valor total|tudo isso por|everything you get|a total of \$?\d|somando tudo)`),
	FeatureTestimonial: regexp.MustCompile(`(?i)(\btestimonial|"[^"\n]{10,}"\s*[-–—]\s*\p{Lu}|\bsaid:|\bdepoimento|case de sucesso|success stor(?:y|ies))`),
	FeatureTiming: regexp.MustCompile(`(?i)\[(?:\d{1,2}:\d{2}(?:\s*-\s*\d{1,2}:\d{2})?|minute \d+|minuto \d+|d\+\d+[^\]\n]*)\]`),
}

func detectFeatures(doc string) map[Feature]bool {
	out := make(map[Feature]bool, len(featurePatterns))
	for _, f := range featureOrder {
		out[f] = featurePatterns[f].MatchString(doc)
	}
	return out
}

var (
	messageHeader     = regexp.MustCompile(`(?i)^(?:message|email|e-mail|mensagem|mensaje)\s*#?\s*\d+`)
	deliverableHeader = regexp.MustCompile(`(?i)^(?:bonus|b[oô]nus|deliverable|entreg[aá]vel|item)\s*#?\s*\d+`)
)

// headerCounts counts Markdown headings, and paragraphs that are a single
// bold line, whose text looks like a numbered message or deliverable.
func headerCounts(doc string) (messages, deliverables int) {
	src := []byte(doc)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	// The walker never returns an error.
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var title []byte
		switch node := n.(type) {
		case *ast.Heading:
			title = inlineText(node, src)
		case *ast.Paragraph:
			if em, ok := node.FirstChild().(*ast.Emphasis); ok && em.Level == 2 {
				title = inlineText(em, src)
			} else {
				return ast.WalkSkipChildren, nil
			}
		default:
			return ast.WalkContinue, nil
		}
		title = bytes.TrimSpace(title)
		switch {
		case messageHeader.Match(title):
			messages++
		case deliverableHeader.Match(title):
			deliverables++
		}
		return ast.WalkSkipChildren, nil
	})
	return messages, deliverables
}

func inlineText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.Write(inlineText(c, src))
	}
	return buf.Bytes()
}
