// Package quality scores a generated document with fixed heuristics.
package quality

import (
	"math"
	"strings"

	"funnel_copy_generator/project"
)

const (
	baseline       = 50
	maxSuggestions = 5

	minMessageHeaders     = 5
	minDeliverableHeaders = 3
)

// Pillar indexes of ScoreCard.PillarScores.
const (
	PillarExpert = iota
	PillarAudience
	PillarOffer
)

// ScoreCard is the heuristic assessment of a document.
type ScoreCard struct {
	PillarScores [3]int         `json:"pillar_scores"`
	OverallScore int            `json:"overall_score"`
	Grade        string         `json:"grade"`
	Metrics      map[string]int `json:"metrics"`
	Suggestions  []string       `json:"suggestions"`
	Capped       bool           `json:"capped"`
}

// check is one heuristic: when it holds, bonus is added to pillar; when it
// fails, suggestion is offered. Checks are listed in suggestion priority.
type check struct {
	pillar     int
	bonus      int
	ok         bool
	suggestion string
}

// Score assesses doc against the snapshot it was generated from. It only
// reads its inputs; identical inputs always give an identical card.
func Score(doc string, snap project.Snapshot) ScoreCard {
	features := detectFeatures(doc)

	expertName := snap.Field("expert.name")
	productName := snap.Field("product.name")
	promise := snap.Field("product.promise")
	audienceName := snap.Field("audience.name")

	expertCount := countLiteral(doc, expertName)
	productCount := countLiteral(doc, productName)
	promiseCount := countLiteral(doc, promise)
	audienceCount := countLiteral(doc, audienceName)

	metrics := map[string]int{
		"expert_name_count":  expertCount,
		"product_name_count": productCount,
		"promise_count":      promiseCount,
		"audience_count":     audienceCount,
		"words":              len(strings.Fields(doc)),
	}
	for _, f := range featureOrder {
		metrics["has_"+string(f)] = boolInt(features[f])
	}

	checks := []check{
		{PillarExpert, 15, expertCount > 0, "Mention the expert by name so the reader knows who is speaking."},
		{PillarOffer, 10, productCount > 0, "Name the product explicitly in the copy."},
		{PillarOffer, 10, promiseCount > 0, "Repeat the core promise in the reader's words."},
		{PillarOffer, 15, features[FeatureGuarantee], "Add a risk-reversal guarantee."},
		{PillarAudience, 15, features[FeatureUrgency], "Give a real reason to act now: deadline or limited spots."},
		{PillarExpert, 15, features[FeatureVulnerability], "Share a moment where the expert struggled; vulnerability builds trust."},
		{PillarOffer, 15, features[FeatureValueStack], "Stack the offer and show the total value."},
		{PillarExpert, 10, features[FeatureTestimonial], "Include testimonials from real customers."},
		{PillarAudience, 15, features[FeatureEmotional], "Speak to the audience's feelings, not only to facts."},
		{PillarAudience, 10, audienceCount > 0, "Address the target audience directly."},
		{PillarExpert, 10, features[FeatureEmotional], ""},
		{PillarExpert, 5, expertCount >= 3, "Bring the expert's name back throughout the copy."},
		{PillarOffer, 5, features[FeatureUrgency], ""},
	}
	if expectsTiming(snap) {
		checks = append(checks, check{PillarAudience, 10, features[FeatureTiming], "Annotate blocks with production timing marks."})
	} else if features[FeatureTiming] {
		checks = append(checks, check{PillarAudience, 10, true, ""})
	}
	if snap.Variant == project.VariantCampaignKit {
		messages, deliverables := headerCounts(doc)
		metrics["message_headers"] = messages
		metrics["deliverable_headers"] = deliverables
		checks = append(checks,
			check{PillarAudience, 10, messages >= minMessageHeaders, "Write at least 5 numbered messages in the follow-up sequence."},
			check{PillarOffer, 10, deliverables >= minDeliverableHeaders, "Describe at least 3 numbered deliverables or bonuses."},
		)
	}

	scores := [3]int{baseline, baseline, baseline}
	var suggestions []string
	for _, c := range checks {
		if c.ok {
			scores[c.pillar] += c.bonus
			continue
		}
		if c.suggestion != "" {
			suggestions = append(suggestions, c.suggestion)
		}
	}
	for i := range scores {
		scores[i] = clamp(scores[i])
	}

	card := ScoreCard{
		PillarScores: scores,
		OverallScore: overall(scores),
		Metrics:      metrics,
		Suggestions:  suggestions,
	}
	card.Grade = Grade(card.OverallScore)
	if len(card.Suggestions) > maxSuggestions {
		card.Suggestions = card.Suggestions[:maxSuggestions]
		card.Capped = true
	}
	if card.Suggestions == nil {
		card.Suggestions = []string{}
	}
	return card
}

// Grade maps an overall score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	default:
		return "D"
	}
}

func expectsTiming(s project.Snapshot) bool {
	return s.Funnel == project.FunnelVSL || s.Funnel == project.FunnelWebinar
}

func overall(scores [3]int) int {
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return clamp(int(math.Round(float64(sum) / float64(len(scores)))))
}

func countLiteral(doc, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(doc, needle)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
