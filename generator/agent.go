package generator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"funnel_copy_generator/project"
	"funnel_copy_generator/quality"
	"funnel_copy_generator/sections"
)

// Agent 负责把项目快照生成为完整文档，并对结果评分。
// It holds no per-request state and is safe for concurrent use.
type Agent struct {
	orch       *Orchestrator
	registries sections.Set
	budgets    Budgets
	logger     *zap.Logger
}

// AgentOptions tune an Agent; zero values take the defaults.
type AgentOptions struct {
	Registries sections.Set
	Budgets    Budgets
	Logger     *zap.Logger
}

func NewAgent(orch *Orchestrator, opts AgentOptions) (*Agent, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	regs := opts.Registries
	if regs == nil {
		regs = sections.DefaultSet()
	}
	for _, r := range regs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	budgets := opts.Budgets
	if budgets.SingleMaxTokens <= 0 || budgets.PartMaxTokens <= 0 {
		def := DefaultBudgets()
		if budgets.SingleMaxTokens <= 0 {
			budgets.SingleMaxTokens = def.SingleMaxTokens
		}
		if budgets.PartMaxTokens <= 0 {
			budgets.PartMaxTokens = def.PartMaxTokens
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{orch: orch, registries: regs, budgets: budgets, logger: logger}, nil
}

// Plan returns the job Generate would run for snap.
func (a *Agent) Plan(snap project.Snapshot) (Job, error) {
	if err := validateSnapshot(snap); err != nil {
		return Job{}, err
	}
	job := PlanJob(snap, a.orch.Builders(), a.registries, a.budgets)
	if err := job.Validate(a.orch.Builders()); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Generate runs the whole job, assembles multipart output and scores it.
func (a *Agent) Generate(ctx context.Context, snap project.Snapshot) (GenerationResult, error) {
	job, err := a.Plan(snap)
	if err != nil {
		return GenerationResult{}, err
	}
	parts, err := a.orch.Run(ctx, job, snap)
	if err != nil {
		return GenerationResult{}, err
	}

	content := parts[0].Text
	if job.Mode == ModeMultipart {
		content, err = sections.Assemble(parts, *job.Sections)
		if err != nil {
			return GenerationResult{}, err
		}
	}
	return a.finish(snap, content), nil
}

// GeneratePart produces one labeled part on demand.
func (a *Agent) GeneratePart(ctx context.Context, snap project.Snapshot, label string) (PartResult, error) {
	job, err := a.Plan(snap)
	if err != nil {
		return PartResult{}, err
	}
	return a.orch.RunPart(ctx, job, snap, label)
}

// Save scores content the client assembled itself.
func (a *Agent) Save(snap project.Snapshot, content string) (GenerationResult, error) {
	if err := validateSnapshot(snap); err != nil {
		return GenerationResult{}, err
	}
	if strings.TrimSpace(content) == "" {
		return GenerationResult{}, invalid("content", "empty")
	}
	return a.finish(snap, content), nil
}

// Registry returns the marker registry of a variant, if it is multipart.
func (a *Agent) Registry(v project.Variant) (sections.Registry, bool) {
	return a.registries.For(v)
}

// Sections splits stored content for display. Variants without a registry
// always come back as a single pane.
func (a *Agent) Sections(v project.Variant, content string) (sections.Parsed, sections.Registry) {
	reg, ok := a.registries.For(v)
	if !ok {
		return sections.Unsectioned(content), sections.Registry{}
	}
	return sections.Parse(content, reg), reg
}

func (a *Agent) finish(snap project.Snapshot, content string) GenerationResult {
	card := quality.Score(content, snap)
	a.logger.Info("document scored",
		zap.String("project", snap.ProjectID),
		zap.Int("overall", card.OverallScore),
		zap.String("grade", card.Grade))

	title := extractTitle(content)
	if reg, ok := a.registries.For(snap.Variant); ok {
		if parsed := sections.Parse(content, reg); parsed.HasSections {
			title = extractTitle(parsed.Sections[0])
		}
	}
	return GenerationResult{
		ProjectID:           snap.ProjectID,
		Title:               title,
		Content:             content,
		Validation:          card,
		EstimatedConversion: quality.EstimateConversion(card, snap),
	}
}
