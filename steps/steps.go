// Package steps decides which input-collection steps apply to a project
// configuration.
package steps

import "funnel_copy_generator/project"

// ID names one input step.
type ID string

const (
	FunnelTypeStep     ID = "funnel_type"
	GenerationMode     ID = "generation_mode"
	CampaignKitSetup   ID = "campaign_kit_setup"
	BriefUpload        ID = "brief_upload"
	BriefReview        ID = "brief_review"
	ExpertIdentity     ID = "expert_identity"
	ExpertStory        ID = "expert_story"
	ExpertAuthority    ID = "expert_authority"
	AudienceProfile    ID = "audience_profile"
	AudiencePains      ID = "audience_pains"
	AudienceDesires    ID = "audience_desires"
	AudienceObjections ID = "audience_objections"
	PersuasionHooks    ID = "persuasion_hooks"
	PersuasionProof    ID = "persuasion_proof"
	ProductCore        ID = "product_core"
	ProductOffer       ID = "product_offer"
	ProductBonuses     ID = "product_bonuses"
	ProductGuarantee   ID = "product_guarantee"
	Review             ID = "review"
	ExpressBrief       ID = "express_brief"
	ExpressOffer       ID = "express_offer"
)

// Pillar indexes. Setup and review steps belong to no pillar.
const (
	NoPillar         = -1
	PillarExpert     = 0
	PillarAudience   = 1
	PillarPersuasion = 2
)

type group int

const (
	groupSetup group = iota
	groupExpert
	groupAudience
	groupPersuasion
	groupProduct
)

// Definition is one entry of the master catalogue.
type Definition struct {
	ID          ID  `json:"id"`
	PillarIndex int `json:"pillar_index"`
	group       group
}

var catalogue = []Definition{
	{FunnelTypeStep, NoPillar, groupSetup},
	{GenerationMode, NoPillar, groupSetup},
	{CampaignKitSetup, NoPillar, groupSetup},
	{BriefUpload, NoPillar, groupSetup},
	{BriefReview, NoPillar, groupSetup},
	{ExpertIdentity, PillarExpert, groupExpert},
	{ExpertStory, PillarExpert, groupExpert},
	{ExpertAuthority, PillarExpert, groupExpert},
	{AudienceProfile, PillarAudience, groupAudience},
	{AudiencePains, PillarAudience, groupAudience},
	{AudienceDesires, PillarAudience, groupAudience},
	{AudienceObjections, PillarAudience, groupAudience},
	{PersuasionHooks, PillarPersuasion, groupPersuasion},
	{PersuasionProof, PillarPersuasion, groupPersuasion},
	{ProductCore, PillarPersuasion, groupProduct},
	{ProductOffer, PillarPersuasion, groupProduct},
	{ProductBonuses, PillarPersuasion, groupProduct},
	{ProductGuarantee, PillarPersuasion, groupProduct},
	{Review, NoPillar, groupSetup},
}

var (
	expressFlow = []ID{FunnelTypeStep, ExpressBrief, ExpressOffer, Review}
	autoFlow    = []ID{FunnelTypeStep, BriefUpload, BriefReview, GenerationMode, Review}
)

// Catalogue returns a copy of the master step catalogue in its fixed order.
func Catalogue() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

// Resolve returns the ordered step ids that apply to the configuration.
// Express and automatic flows are distinct pipelines and ignore presets;
// every other configuration is the catalogue minus the skip-set.
func Resolve(funnel project.FunnelType, variant project.Variant, presets project.PresetFlags) []ID {
	switch variant {
	case project.VariantExpress:
		return append([]ID(nil), expressFlow...)
	case project.VariantAutoBrief:
		return append([]ID(nil), autoFlow...)
	}

	skip := SkipSet(funnel, variant, presets)
	out := make([]ID, 0, len(catalogue))
	for _, def := range catalogue {
		if _, ok := skip[def.ID]; ok {
			continue
		}
		out = append(out, def.ID)
	}
	return out
}

// ForSnapshot resolves the steps of a snapshot.
func ForSnapshot(s project.Snapshot) []ID {
	return Resolve(s.Funnel, s.Variant, s.Presets)
}
