package prompt

import (
	"fmt"
	"sort"
	"strings"

	"funnel_copy_generator/project"
)

var pillarOrder = []string{"expert", "audience", "persuasion", "product"}

var funnelLabels = map[project.FunnelType]string{
	project.FunnelSalesPage: "long-form sales page",
	project.FunnelVSL:       "video sales letter script",
	project.FunnelWebinar:   "webinar presentation script",
	project.FunnelLaunch:    "product launch sequence",
	project.FunnelChallenge: "multi-day challenge funnel",
}

func funnelLabel(f project.FunnelType) string {
	if l, ok := funnelLabels[f]; ok {
		return l
	}
	return "sales funnel"
}

// writeHeader 写入角色与通用输出约束。
func writeHeader(sb *strings.Builder, role string) {
	sb.WriteString(role)
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Output Markdown only, no commentary before or after the copy.\n")
	sb.WriteString("- Never emit HTML comments or lines starting with <!-- SECTION.\n")
}

// writePillars 按固定顺序写入各支柱数据，保证同一快照得到同一提示词。
func writePillars(sb *strings.Builder, s project.Snapshot) {
	sb.WriteString("\nProject data:\n")
	for _, name := range pillarOrder {
		data := s.PillarJSON(name)
		if data == "" {
			data = "(not provided)"
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, data))
	}
	if len(s.Pillars.Extensions) > 0 {
		keys := make([]string, 0, len(s.Pillars.Extensions))
		for k := range s.Pillars.Extensions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- extension %s: %s\n", k, s.PillarJSON(k)))
		}
	}
}

func writeEntities(sb *strings.Builder, s project.Snapshot) {
	if name := s.Field("expert.name"); name != "" {
		sb.WriteString(fmt.Sprintf("- Refer to the expert by name: %s.\n", name))
	}
	if name := s.Field("product.name"); name != "" {
		sb.WriteString(fmt.Sprintf("- Name the product explicitly: %s.\n", name))
	}
	if promise := s.Field("product.promise"); promise != "" {
		sb.WriteString(fmt.Sprintf("- Repeat the core promise verbatim at least twice: \"%s\".\n", promise))
	}
}

func writePersuasionChecklist(sb *strings.Builder) {
	sb.WriteString("- Include the expert's personal struggle story (vulnerability).\n")
	sb.WriteString("- Include at least two testimonials.\n")
	sb.WriteString("- Stack the offer with a running total value.\n")
	sb.WriteString("- State the guarantee and a real deadline or limited availability.\n")
}

func buildStandard(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, fmt.Sprintf("You are a senior direct-response copywriter. Write a complete %s.", funnelLabel(s.Funnel)))
	writeEntities(&sb, s)
	writePersuasionChecklist(&sb)
	writePillars(&sb, s)
	return sb.String()
}

func buildExpress(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, fmt.Sprintf("You are a direct-response copywriter. Write a concise %s from a short brief.", funnelLabel(s.Funnel)))
	writeEntities(&sb, s)
	sb.WriteString("- Keep it under 1200 words, one clear call to action.\n")
	writePillars(&sb, s)
	return sb.String()
}

func buildAutoBrief(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, fmt.Sprintf("You are a copy strategist. Extract the expert, audience and offer from the brief below, then write a complete %s.", funnelLabel(s.Funnel)))
	writePersuasionChecklist(&sb)
	sb.WriteString("\nBrief:\n")
	brief := strings.TrimSpace(s.Brief)
	if brief == "" {
		brief = "(empty brief; rely on project data)"
	}
	sb.WriteString(brief)
	sb.WriteString("\n")
	writePillars(&sb, s)
	return sb.String()
}

func buildVSL(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, "You are a video sales letter scriptwriter. Write the full spoken script.")
	sb.WriteString("- Annotate each block with its timing, e.g. [00:00-00:45].\n")
	writeEntities(&sb, s)
	writePersuasionChecklist(&sb)
	writePillars(&sb, s)
	return sb.String()
}

func buildWebinar(mode project.Mode) Builder {
	return func(s project.Snapshot) string {
		var sb strings.Builder
		writeHeader(&sb, "You are a webinar scriptwriter. Write the full presentation script with slide cues.")
		switch mode {
		case project.ModeEvergreen:
			sb.WriteString("- The webinar is pre-recorded; avoid references to live interaction.\n")
		default:
			sb.WriteString("- The webinar is live; include moments for chat interaction and Q&A.\n")
		}
		sb.WriteString("- Annotate each segment with its minute mark, e.g. [minute 12].\n")
		writeEntities(&sb, s)
		writePersuasionChecklist(&sb)
		writePillars(&sb, s)
		return sb.String()
	}
}

func buildLaunch(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, "You are a launch strategist. Write the launch copy: pre-launch content, cart-open page and cart-close reminders.")
	if s.Mode == project.ModeEvergreen {
		sb.WriteString("- The launch runs evergreen; deadlines are relative to sign-up.\n")
	}
	writeEntities(&sb, s)
	writePersuasionChecklist(&sb)
	writePillars(&sb, s)
	return sb.String()
}

func buildCampaignPage(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, fmt.Sprintf("You are a senior copywriter. Write only the main page of a %s campaign kit.", funnelLabel(s.Funnel)))
	writeEntities(&sb, s)
	writePersuasionChecklist(&sb)
	writePillars(&sb, s)
	return sb.String()
}

func buildCampaignMessages(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, "You are an email and messaging copywriter. Write the follow-up message sequence of a campaign kit.")
	sb.WriteString("- Start with the heading \"# Message Sequence\".\n")
	sb.WriteString("- Write at least 5 messages, each under a heading \"## Message N\".\n")
	sb.WriteString("- Tag each message with its send time, e.g. [D+1 09:00].\n")
	writeEntities(&sb, s)
	writePillars(&sb, s)
	return sb.String()
}

func buildCampaignDeliverables(s project.Snapshot) string {
	var sb strings.Builder
	writeHeader(&sb, "You are a product designer. Describe the deliverables and bonuses of a campaign kit.")
	sb.WriteString("- Start with the heading \"# Deliverables\".\n")
	sb.WriteString("- Describe at least 3 items, each under a heading \"## Bonus N\" or \"## Deliverable N\", with its value.\n")
	sb.WriteString("- Close with the total value of everything included.\n")
	writeEntities(&sb, s)
	writePillars(&sb, s)
	return sb.String()
}
