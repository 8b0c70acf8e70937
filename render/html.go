// Package render turns generated copy into HTML for the web UI and into
// styled text for the terminal.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"funnel_copy_generator/sections"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Pane is one navigable section of a document.
type Pane struct {
	Index    int    `json:"index"`
	Name     string `json:"name,omitempty"`
	Label    string `json:"label,omitempty"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// HTML converts markdown to HTML. Raw HTML in the input, markers
// included, is omitted.
func HTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Panes renders every parsed section in canonical order. Unsectioned
// documents come back as a single pane.
func Panes(parsed sections.Parsed, reg sections.Registry) ([]Pane, error) {
	var out []Pane
	if !parsed.HasSections {
		h, err := HTML(parsed.Sections[0])
		if err != nil {
			return nil, err
		}
		return []Pane{{Index: 0, Markdown: parsed.Sections[0], HTML: normalizeHeadings(h)}}, nil
	}
	for _, s := range parsed.Ordered(reg) {
		h, err := HTML(s.Text)
		if err != nil {
			return nil, fmt.Errorf("render section %s: %w", s.Name, err)
		}
		out = append(out, Pane{
			Index:    s.Index,
			Name:     s.Name,
			Label:    s.Label,
			Markdown: s.Text,
			HTML:     normalizeHeadings(h),
		})
	}
	return out, nil
}

var headingRe = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)

// 预览面板里每个分段自带一级标题，统一降一级，避免和页面标题冲突。
func normalizeHeadings(h string) string {
	return headingRe.ReplaceAllStringFunc(h, func(block string) string {
		parts := headingRe.FindStringSubmatch(block)
		if len(parts) != 3 {
			return block
		}
		level := parts[1][0] - '0' + 1
		if level > 6 {
			level = 6
		}
		return fmt.Sprintf("<h%d>%s</h%d>", level, strings.TrimSpace(parts[2]), level)
	})
}
