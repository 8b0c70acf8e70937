package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// It shapes its output after the kind of copy the prompt asks for.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, req Request) (string, error) {
	var sb strings.Builder
	switch {
	case strings.Contains(req.Prompt, "## Message N"):
		sb.WriteString("# Message Sequence\n\n")
		for i := 1; i <= 5; i++ {
			sb.WriteString(fmt.Sprintf("## Message %d\n[D+%d 09:00] Doors close soon, last chance.\n\n", i, i))
		}
	case strings.Contains(req.Prompt, "## Bonus N"):
		sb.WriteString("# Deliverables\n\n")
		for i := 1; i <= 3; i++ {
			sb.WriteString(fmt.Sprintf("## Bonus %d\nWorth $%d.\n\n", i, i*100))
		}
		sb.WriteString("Total value $600.\n")
	default:
		sb.WriteString("# Mock Sales Copy\n\n")
		sb.WriteString("I was stuck and I almost gave up. Imagine how you would feel.\n\n")
		sb.WriteString("30-day money-back guarantee. Only 20 spots.\n")
	}
	return sb.String(), nil
}
