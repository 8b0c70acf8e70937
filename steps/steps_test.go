package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel_copy_generator/project"
)

func TestResolve_GeneralFlow(t *testing.T) {
	got := Resolve(project.FunnelSalesPage, project.VariantStandard, project.PresetFlags{})
	want := []ID{
		FunnelTypeStep,
		ExpertIdentity, ExpertStory, ExpertAuthority,
		AudienceProfile, AudiencePains, AudienceDesires, AudienceObjections,
		PersuasionHooks, PersuasionProof,
		ProductCore, ProductOffer, ProductBonuses, ProductGuarantee,
		Review,
	}
	assert.Equal(t, want, got)
}

func TestResolve_ModeStepOnlyForMultiModeFunnels(t *testing.T) {
	for _, funnel := range project.FunnelTypes {
		got := Resolve(funnel, project.VariantStandard, project.PresetFlags{})
		assert.Equal(t, funnel.SupportsModes(), contains(got, GenerationMode), "funnel %s", funnel)
	}
}

func TestResolve_CampaignKitSetup(t *testing.T) {
	got := Resolve(project.FunnelLaunch, project.VariantCampaignKit, project.PresetFlags{})
	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, []ID{FunnelTypeStep, GenerationMode, CampaignKitSetup, ExpertIdentity}, got[:4])
	assert.False(t, contains(got, BriefUpload))

	plain := Resolve(project.FunnelLaunch, project.VariantStandard, project.PresetFlags{})
	assert.False(t, contains(plain, CampaignKitSetup))
}

func TestResolve_ExpertPresetRemovesExactlyExpertSteps(t *testing.T) {
	base := Resolve(project.FunnelVSL, project.VariantStandard, project.PresetFlags{})
	withPreset := Resolve(project.FunnelVSL, project.VariantStandard, project.PresetFlags{Expert: true})

	var removed []ID
	for _, id := range base {
		if !contains(withPreset, id) {
			removed = append(removed, id)
		}
	}
	assert.Equal(t, []ID{ExpertIdentity, ExpertStory, ExpertAuthority}, removed)
	assert.Len(t, withPreset, len(base)-3)
}

func TestResolve_PresetsPerPillar(t *testing.T) {
	got := Resolve(project.FunnelSalesPage, project.VariantStandard, project.PresetFlags{
		Audience: true, Persuasion: true, Product: true,
	})
	assert.Equal(t, []ID{FunnelTypeStep, ExpertIdentity, ExpertStory, ExpertAuthority, Review}, got)
}

func TestResolve_FixedFlowsIgnorePresets(t *testing.T) {
	all := project.PresetFlags{Expert: true, Audience: true, Persuasion: true, Product: true}
	for _, funnel := range project.FunnelTypes {
		assert.Equal(t, []ID{FunnelTypeStep, ExpressBrief, ExpressOffer, Review},
			Resolve(funnel, project.VariantExpress, all))
		assert.Equal(t, []ID{FunnelTypeStep, BriefUpload, BriefReview, GenerationMode, Review},
			Resolve(funnel, project.VariantAutoBrief, all))
	}
}

func TestResolve_Deterministic(t *testing.T) {
	presets := project.PresetFlags{Audience: true}
	first := Resolve(project.FunnelWebinar, project.VariantCampaignKit, presets)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve(project.FunnelWebinar, project.VariantCampaignKit, presets))
	}
}

func TestResolve_SkipSetAbsentAndOrderPreserved(t *testing.T) {
	variants := []project.Variant{project.VariantStandard, project.VariantCampaignKit}
	presetCombos := []project.PresetFlags{
		{}, {Expert: true}, {Audience: true, Product: true}, {Persuasion: true},
	}
	order := make(map[ID]int)
	for i, def := range Catalogue() {
		order[def.ID] = i
	}

	for _, funnel := range project.FunnelTypes {
		for _, variant := range variants {
			for _, presets := range presetCombos {
				got := Resolve(funnel, variant, presets)
				for id := range SkipSet(funnel, variant, presets) {
					assert.False(t, contains(got, id), "%s should be skipped", id)
				}
				for i := 1; i < len(got); i++ {
					assert.Less(t, order[got[i-1]], order[got[i]])
				}
			}
		}
	}
}

func TestCatalogue_ReturnsCopy(t *testing.T) {
	c := Catalogue()
	c[0].ID = "mutated"
	assert.Equal(t, FunnelTypeStep, Catalogue()[0].ID)
}

func TestForSnapshot(t *testing.T) {
	snap := project.Snapshot{Funnel: project.FunnelChallenge, Variant: project.VariantExpress}
	assert.Equal(t, Resolve(project.FunnelChallenge, project.VariantExpress, project.PresetFlags{}), ForSnapshot(snap))
}

func contains(ids []ID, id ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
