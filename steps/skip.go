package steps

import "funnel_copy_generator/project"

// Rule contributes step ids to exclude. Rules only look at the tags they
// are given and compose by union.
type Rule func(funnel project.FunnelType, variant project.Variant, presets project.PresetFlags) []ID

// Rules is the fixed set of skip rules for the general flow.
var Rules = []Rule{
	skipAutoOnly,
	skipModeSelection,
	skipCampaignKitSetup,
	skipPresetPillars,
}

// SkipSet accumulates every rule's exclusions.
func SkipSet(funnel project.FunnelType, variant project.Variant, presets project.PresetFlags) map[ID]struct{} {
	skip := make(map[ID]struct{})
	for _, rule := range Rules {
		for _, id := range rule(funnel, variant, presets) {
			skip[id] = struct{}{}
		}
	}
	return skip
}

func skipAutoOnly(_ project.FunnelType, variant project.Variant, _ project.PresetFlags) []ID {
	if variant == project.VariantAutoBrief {
		return nil
	}
	return []ID{BriefUpload, BriefReview}
}

func skipModeSelection(funnel project.FunnelType, _ project.Variant, _ project.PresetFlags) []ID {
	if funnel.SupportsModes() {
		return nil
	}
	return []ID{GenerationMode}
}

func skipCampaignKitSetup(_ project.FunnelType, variant project.Variant, _ project.PresetFlags) []ID {
	if variant == project.VariantCampaignKit {
		return nil
	}
	return []ID{CampaignKitSetup}
}

func skipPresetPillars(_ project.FunnelType, _ project.Variant, presets project.PresetFlags) []ID {
	var out []ID
	for _, def := range catalogue {
		switch {
		case def.group == groupExpert && presets.Expert,
			def.group == groupAudience && presets.Audience,
			def.group == groupPersuasion && presets.Persuasion,
			def.group == groupProduct && presets.Product:
			out = append(out, def.ID)
		}
	}
	return out
}
