package project

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// FunnelType identifies the kind of funnel a project generates copy for.
type FunnelType string

const (
	FunnelSalesPage FunnelType = "sales_page"
	FunnelVSL       FunnelType = "vsl"
	FunnelWebinar   FunnelType = "webinar"
	FunnelLaunch    FunnelType = "launch"
	FunnelChallenge FunnelType = "challenge"
)

// FunnelTypes lists every known funnel type.
var FunnelTypes = []FunnelType{FunnelSalesPage, FunnelVSL, FunnelWebinar, FunnelLaunch, FunnelChallenge}

// Valid reports whether f is a known funnel type.
func (f FunnelType) Valid() bool {
	for _, known := range FunnelTypes {
		if f == known {
			return true
		}
	}
	return false
}

// SupportsModes reports whether the funnel offers a choice of delivery mode.
func (f FunnelType) SupportsModes() bool {
	return f == FunnelWebinar || f == FunnelLaunch
}

// Variant is the single variant tag carried by a snapshot.
type Variant string

const (
	VariantStandard    Variant = ""
	VariantExpress     Variant = "express"
	VariantAutoBrief   Variant = "auto_brief"
	VariantCampaignKit Variant = "campaign_kit"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantStandard, VariantExpress, VariantAutoBrief, VariantCampaignKit:
		return true
	}
	return false
}

// Mode is the delivery mode of multi-mode funnels.
type Mode string

const (
	ModeDefault   Mode = ""
	ModeLive      Mode = "live"
	ModeEvergreen Mode = "evergreen"
)

// PresetFlags marks which pillars are sourced from reusable presets.
type PresetFlags struct {
	Expert     bool `json:"expert"`
	Audience   bool `json:"audience"`
	Persuasion bool `json:"persuasion"`
	Product    bool `json:"product"`
}

// Pillars holds the structured, caller-owned input data. The core only reads
// a handful of well-known fields; everything else is passed through to
// prompt builders verbatim.
type Pillars struct {
	Expert     json.RawMessage            `json:"expert,omitempty"`
	Audience   json.RawMessage            `json:"audience,omitempty"`
	Persuasion json.RawMessage            `json:"persuasion,omitempty"`
	Product    json.RawMessage            `json:"product,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

// Snapshot describes a project at generation time.
type Snapshot struct {
	ProjectID string      `json:"project_id"`
	Funnel    FunnelType  `json:"funnel_type"`
	Variant   Variant     `json:"variant,omitempty"`
	Mode      Mode        `json:"mode,omitempty"`
	Presets   PresetFlags `json:"presets"`
	Pillars   Pillars     `json:"pillars"`
	Brief     string      `json:"brief,omitempty"`
}

// Field returns the string at a gjson path inside the named pillar
// ("expert.name", "product.promise"). Unknown pillars and missing paths
// yield "".
func (s Snapshot) Field(path string) string {
	pillar, rest, ok := strings.Cut(path, ".")
	if !ok {
		return ""
	}
	raw := s.pillarJSON(pillar)
	if len(raw) == 0 {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(raw, rest).String())
}

// FieldList returns the string values of an array at path.
func (s Snapshot) FieldList(path string) []string {
	pillar, rest, ok := strings.Cut(path, ".")
	if !ok {
		return nil
	}
	raw := s.pillarJSON(pillar)
	if len(raw) == 0 {
		return nil
	}
	var out []string
	gjson.GetBytes(raw, rest).ForEach(func(_, value gjson.Result) bool {
		if v := strings.TrimSpace(value.String()); v != "" {
			out = append(out, v)
		}
		return true
	})
	return out
}

// PillarJSON returns the compacted JSON of a pillar or extension, or "" when
// it is absent.
func (s Snapshot) PillarJSON(name string) string {
	raw := s.pillarJSON(name)
	if len(raw) == 0 {
		return ""
	}
	if !gjson.ValidBytes(raw) {
		return strings.TrimSpace(string(raw))
	}
	return gjson.GetBytes(raw, "@ugly").Raw
}

// Same reports whether two snapshots carry the same project data. Pillars
// compare by content, so whitespace and key order do not matter.
func (s Snapshot) Same(o Snapshot) bool {
	if s.ProjectID != o.ProjectID || s.Funnel != o.Funnel || s.Variant != o.Variant ||
		s.Mode != o.Mode || s.Presets != o.Presets || s.Brief != o.Brief {
		return false
	}
	names := []string{"expert", "audience", "persuasion", "product"}
	for k := range s.Pillars.Extensions {
		names = append(names, k)
	}
	for k := range o.Pillars.Extensions {
		names = append(names, k)
	}
	for _, n := range names {
		if !bytes.Equal(canonicalJSON(s.pillarJSON(n)), canonicalJSON(o.pillarJSON(n))) {
			return false
		}
	}
	return true
}

func canonicalJSON(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return raw
	}
	return pretty.Ugly(pretty.PrettyOptions(raw, &pretty.Options{SortKeys: true}))
}

func (s Snapshot) pillarJSON(name string) json.RawMessage {
	switch name {
	case "expert":
		return s.Pillars.Expert
	case "audience":
		return s.Pillars.Audience
	case "persuasion":
		return s.Pillars.Persuasion
	case "product":
		return s.Pillars.Product
	}
	return s.Pillars.Extensions[name]
}
