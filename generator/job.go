package generator

import (
	"strings"

	"github.com/google/uuid"

	"funnel_copy_generator/project"
	"funnel_copy_generator/prompt"
	"funnel_copy_generator/sections"
)

// JobMode selects single-call or multipart generation.
type JobMode string

const (
	ModeSingle    JobMode = "single"
	ModeMultipart JobMode = "multipart"
)

// SingleLabel labels the only part of a single-call job.
const SingleLabel = "document"

// PartSpec describes one independent LLM call.
type PartSpec struct {
	Index     int        `json:"index"`
	Label     string     `json:"label"`
	Builder   prompt.Ref `json:"builder"`
	MaxTokens int        `json:"max_tokens"`
}

// Job is the plan of one generation. It lives for a single orchestration
// call.
type Job struct {
	ID        string             `json:"id"`
	ProjectID string             `json:"project_id"`
	Mode      JobMode            `json:"mode"`
	Parts     []PartSpec         `json:"parts"`
	Sections  *sections.Registry `json:"sections,omitempty"`
}

// Budgets are the token budgets used when planning jobs.
type Budgets struct {
	SingleMaxTokens int
	PartMaxTokens   int
}

// DefaultBudgets fit a long sales page in one call and each campaign kit
// part in its own.
func DefaultBudgets() Budgets {
	return Budgets{SingleMaxTokens: 8000, PartMaxTokens: 6000}
}

// campaignPartRefs maps registry section names to the builders that write
// them; configured registries may reuse these names.
var campaignPartRefs = map[string]prompt.Ref{
	"PAGE":         prompt.RefCampaignPage,
	"MESSAGES":     prompt.RefCampaignMessages,
	"DELIVERABLES": prompt.RefCampaignDeliverable,
}

// PlanJob decides how a snapshot is generated: multipart when its variant
// has a marker registry, one call otherwise.
func PlanJob(snap project.Snapshot, builders *prompt.Registry, registries sections.Set, budgets Budgets) Job {
	job := Job{ID: uuid.NewString(), ProjectID: snap.ProjectID}

	reg, ok := registries.For(snap.Variant)
	if !ok {
		job.Mode = ModeSingle
		job.Parts = []PartSpec{{
			Index:     0,
			Label:     SingleLabel,
			Builder:   builders.ResolveRef(prompt.KeyOf(snap)),
			MaxTokens: budgets.SingleMaxTokens,
		}}
		return job
	}

	job.Mode = ModeMultipart
	job.Sections = &reg
	for i, s := range reg.Sections {
		ref, ok := campaignPartRefs[strings.ToUpper(s.Name)]
		if !ok {
			ref = prompt.Ref(string(snap.Variant) + "." + strings.ToLower(s.Name))
		}
		label := s.Label
		if label == "" {
			label = strings.ToLower(s.Name)
		}
		job.Parts = append(job.Parts, PartSpec{
			Index:     i,
			Label:     label,
			Builder:   ref,
			MaxTokens: budgets.PartMaxTokens,
		})
	}
	return job
}

// Validate rejects jobs that cannot be run or assembled. It makes no calls.
func (j Job) Validate(builders *prompt.Registry) error {
	if strings.TrimSpace(j.ProjectID) == "" {
		return invalid("project_id", "missing")
	}
	if len(j.Parts) == 0 {
		return invalid("parts", "job has no parts")
	}

	switch j.Mode {
	case ModeSingle:
		if len(j.Parts) != 1 {
			return invalid("parts", "single mode needs exactly 1 part, got %d", len(j.Parts))
		}
	case ModeMultipart:
		if j.Sections == nil {
			return invalid("sections", "multipart job without a marker registry")
		}
		if err := j.Sections.Validate(); err != nil {
			return invalid("sections", "%v", err)
		}
		if len(j.Parts) != j.Sections.Len() {
			return invalid("parts", "%d parts for a registry of %d sections", len(j.Parts), j.Sections.Len())
		}
	default:
		return invalid("mode", "unknown mode %q", j.Mode)
	}

	seenIndex := make(map[int]bool, len(j.Parts))
	seenLabel := make(map[string]bool, len(j.Parts))
	for _, p := range j.Parts {
		if p.Index < 0 || p.Index >= len(j.Parts) {
			return invalid("parts", "index %d outside 0..%d", p.Index, len(j.Parts)-1)
		}
		if seenIndex[p.Index] {
			return invalid("parts", "duplicate index %d", p.Index)
		}
		seenIndex[p.Index] = true
		if p.Label == "" {
			return invalid("parts", "part %d has no label", p.Index)
		}
		if seenLabel[p.Label] {
			return invalid("parts", "duplicate label %q", p.Label)
		}
		seenLabel[p.Label] = true
		if p.MaxTokens <= 0 {
			return invalid("parts", "part %q has no token budget", p.Label)
		}
		if _, ok := builders.Lookup(p.Builder); !ok {
			return invalid("parts", "part %q references unknown builder %q", p.Label, p.Builder)
		}
	}
	return nil
}

// Part returns the spec with the given label.
func (j Job) Part(label string) (PartSpec, bool) {
	for _, p := range j.Parts {
		if strings.EqualFold(p.Label, label) {
			return p, true
		}
	}
	return PartSpec{}, false
}

// Labels lists part labels in index order.
func (j Job) Labels() []string {
	out := make([]string, len(j.Parts))
	for _, p := range j.Parts {
		if p.Index >= 0 && p.Index < len(out) {
			out[p.Index] = p.Label
		}
	}
	return out
}

func validateSnapshot(s project.Snapshot) error {
	if strings.TrimSpace(s.ProjectID) == "" {
		return invalid("project_id", "missing")
	}
	if !s.Funnel.Valid() {
		return invalid("funnel_type", "unknown funnel type %q", s.Funnel)
	}
	if !s.Variant.Valid() {
		return invalid("variant", "unknown variant %q", s.Variant)
	}
	return nil
}
