package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"funnel_copy_generator/sections"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	tierStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

// Terminal renders sections for a terminal of the given width. Plain mode
// skips ANSI styling for pipes and tests.
type Terminal struct {
	Width int
	Plain bool
}

// Render writes every section with a styled title bar.
func (t Terminal) Render(parsed sections.Parsed, reg sections.Registry) (string, error) {
	width := t.Width
	if width <= 0 {
		width = 80
	}

	var renderer *glamour.TermRenderer
	var err error
	if t.Plain {
		renderer, err = glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(width))
	} else {
		renderer, err = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	}
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(t.style(tierStyle, fmt.Sprintf("parsed via %s tier", parsed.Tier)))
	sb.WriteString("\n")

	if !parsed.HasSections {
		body, err := renderer.Render(parsed.Sections[0])
		if err != nil {
			return "", err
		}
		sb.WriteString(body)
		return sb.String(), nil
	}

	for _, s := range parsed.Ordered(reg) {
		title := s.Label
		if title == "" {
			title = s.Name
		}
		sb.WriteString(t.style(titleStyle, fmt.Sprintf("[%d] %s", s.Index+1, strings.ToUpper(title))))
		sb.WriteString("\n")
		body, err := renderer.Render(s.Text)
		if err != nil {
			return "", fmt.Errorf("render section %s: %w", s.Name, err)
		}
		sb.WriteString(body)
	}
	return sb.String(), nil
}

func (t Terminal) style(s lipgloss.Style, text string) string {
	if t.Plain {
		return text
	}
	return s.Render(text)
}
