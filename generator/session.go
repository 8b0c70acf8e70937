package generator

import (
	"context"
	"sync"
	"time"

	"funnel_copy_generator/project"
	"funnel_copy_generator/sections"
)

// Session 持有一次项目的分段生成上下文。
// Parts are generated one label at a time (for UI progress); the document
// is only assembled once every part exists.
type Session struct {
	ID       string
	Snapshot project.Snapshot

	mu      sync.Mutex
	agent   *Agent
	job     Job
	parts   map[int]PartResult
	updated time.Time
}

// NewSession plans the snapshot's job; no part is generated yet.
func NewSession(id string, snap project.Snapshot, agent *Agent) (*Session, error) {
	job, err := agent.Plan(snap)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:       id,
		Snapshot: snap,
		agent:    agent,
		job:      job,
		parts:    make(map[int]PartResult),
		updated:  time.Now(),
	}, nil
}

// Labels lists the labels of every part in index order.
func (s *Session) Labels() []string { return s.job.Labels() }

// GeneratePart generates (or regenerates) one labeled part and records it.
func (s *Session) GeneratePart(ctx context.Context, label string) (PartResult, error) {
	res, err := s.agent.orch.RunPart(ctx, s.job, s.Snapshot, label)
	if err != nil {
		return PartResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts[res.Index] = res
	s.updated = time.Now()
	return res, nil
}

// Missing lists labels that have not been generated yet.
func (s *Session) Missing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.job.Parts {
		if _, ok := s.parts[p.Index]; !ok {
			out = append(out, p.Label)
		}
	}
	return out
}

// Assemble joins the recorded parts; it fails with *AssemblyError while
// any part is missing.
func (s *Session) Assemble() (string, error) {
	s.mu.Lock()
	parts := make([]PartResult, 0, len(s.parts))
	for _, p := range s.parts {
		parts = append(parts, p)
	}
	s.mu.Unlock()

	if s.job.Mode == ModeSingle {
		if len(parts) == 0 {
			return "", &AssemblyError{Expected: 1, Got: 0, Missing: []int{0}}
		}
		return parts[0].Text, nil
	}
	return sections.Assemble(parts, *s.job.Sections)
}

// Finish assembles and scores the document.
func (s *Session) Finish() (GenerationResult, error) {
	content, err := s.Assemble()
	if err != nil {
		return GenerationResult{}, err
	}
	return s.agent.finish(s.Snapshot, content), nil
}

// UpdatedAt reports when a part was last recorded.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}
