// Package prompt selects and runs the prompt builders that turn a project
// snapshot into LLM instructions.
package prompt

import (
	"fmt"

	"funnel_copy_generator/project"
)

// Builder turns a snapshot into a prompt. Builders are total, deterministic
// and never return an empty string.
type Builder func(project.Snapshot) string

// Ref names a registered builder so jobs can reference it without holding
// the function.
type Ref string

const (
	RefDefault             Ref = "default"
	RefExpress             Ref = "express"
	RefAutoBrief           Ref = "auto_brief"
	RefVSL                 Ref = "vsl"
	RefWebinarLive         Ref = "webinar.live"
	RefWebinarEvergreen    Ref = "webinar.evergreen"
	RefLaunch              Ref = "launch"
	RefCampaignPage        Ref = "campaign_kit.page"
	RefCampaignMessages    Ref = "campaign_kit.messages"
	RefCampaignDeliverable Ref = "campaign_kit.deliverables"
)

// Key is the dispatch tuple.
type Key struct {
	Funnel  project.FunnelType
	Variant project.Variant
	Mode    project.Mode
}

// KeyOf extracts the dispatch tuple of a snapshot.
func KeyOf(s project.Snapshot) Key {
	return Key{Funnel: s.Funnel, Variant: s.Variant, Mode: s.Mode}
}

// Rule pairs a predicate with the builder it selects.
type Rule struct {
	Ref   Ref
	Match func(Key) bool
}

// Registry holds builders by ref plus an ordered rule list; the first
// matching rule wins and the fallback matches anything.
type Registry struct {
	builders map[Ref]Builder
	rules    []Rule
	fallback Ref
}

// NewRegistry creates an empty registry whose fallback is the given ref.
// The fallback must be registered before Resolve is used.
func NewRegistry(fallback Ref) *Registry {
	return &Registry{builders: make(map[Ref]Builder), fallback: fallback}
}

// Register adds or replaces a builder.
func (r *Registry) Register(ref Ref, b Builder) {
	r.builders[ref] = b
}

// AddRule appends a dispatch rule at the lowest priority so far.
func (r *Registry) AddRule(ref Ref, match func(Key) bool) {
	r.rules = append(r.rules, Rule{Ref: ref, Match: match})
}

// Lookup returns the builder registered under ref.
func (r *Registry) Lookup(ref Ref) (Builder, bool) {
	b, ok := r.builders[ref]
	return b, ok
}

// ResolveRef returns the ref of the first matching rule, or the fallback.
func (r *Registry) ResolveRef(k Key) Ref {
	for _, rule := range r.rules {
		if rule.Match(k) {
			return rule.Ref
		}
	}
	return r.fallback
}

// Resolve returns the builder selected for the tuple.
func (r *Registry) Resolve(funnel project.FunnelType, variant project.Variant, mode project.Mode) Builder {
	ref := r.ResolveRef(Key{Funnel: funnel, Variant: variant, Mode: mode})
	if b, ok := r.builders[ref]; ok {
		return b
	}
	return r.builders[r.fallback]
}

// Check verifies every rule and the fallback point at registered builders.
func (r *Registry) Check() error {
	if _, ok := r.builders[r.fallback]; !ok {
		return fmt.Errorf("prompt: fallback builder %q not registered", r.fallback)
	}
	for _, rule := range r.rules {
		if _, ok := r.builders[rule.Ref]; !ok {
			return fmt.Errorf("prompt: rule references unknown builder %q", rule.Ref)
		}
	}
	return nil
}

// Default returns the registry wired with every built-in builder, in
// priority order: automatic and express flows first, then per-funnel
// specialisations, then the generic fallback.
func Default() *Registry {
	r := NewRegistry(RefDefault)

	r.Register(RefDefault, buildStandard)
	r.Register(RefExpress, buildExpress)
	r.Register(RefAutoBrief, buildAutoBrief)
	r.Register(RefVSL, buildVSL)
	r.Register(RefWebinarLive, buildWebinar(project.ModeLive))
	r.Register(RefWebinarEvergreen, buildWebinar(project.ModeEvergreen))
	r.Register(RefLaunch, buildLaunch)
	r.Register(RefCampaignPage, buildCampaignPage)
	r.Register(RefCampaignMessages, buildCampaignMessages)
	r.Register(RefCampaignDeliverable, buildCampaignDeliverables)

	r.AddRule(RefAutoBrief, func(k Key) bool { return k.Variant == project.VariantAutoBrief })
	r.AddRule(RefExpress, func(k Key) bool { return k.Variant == project.VariantExpress })
	// Single-call fallback for campaign kits; multipart jobs use the part refs.
	r.AddRule(RefCampaignPage, func(k Key) bool { return k.Variant == project.VariantCampaignKit })
	r.AddRule(RefVSL, func(k Key) bool { return k.Funnel == project.FunnelVSL })
	r.AddRule(RefWebinarEvergreen, func(k Key) bool {
		return k.Funnel == project.FunnelWebinar && k.Mode == project.ModeEvergreen
	})
	r.AddRule(RefWebinarLive, func(k Key) bool { return k.Funnel == project.FunnelWebinar })
	r.AddRule(RefLaunch, func(k Key) bool { return k.Funnel == project.FunnelLaunch })

	return r
}
