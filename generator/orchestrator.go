package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"funnel_copy_generator/project"
	"funnel_copy_generator/prompt"
	"funnel_copy_generator/retry"
)

// DefaultCallTimeout bounds one LLM call.
const DefaultCallTimeout = 90 * time.Second

// MaxPartAttempts is the most attempts any part is given.
const MaxPartAttempts = 2

// Orchestrator runs generation jobs against an LLM client.
type Orchestrator struct {
	llm         LLMClient
	builders    *prompt.Registry
	policy      retry.Policy
	callTimeout time.Duration
	logger      *zap.Logger
}

// Options tune an Orchestrator; zero values take the defaults.
type Options struct {
	CallTimeout time.Duration
	Retry       retry.Policy
	Logger      *zap.Logger
}

func NewOrchestrator(llm LLMClient, builders *prompt.Registry, opts Options) (*Orchestrator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if builders == nil {
		return nil, errors.New("prompt registry is required")
	}
	if err := builders.Check(); err != nil {
		return nil, err
	}
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	if policy.MaxAttempts > MaxPartAttempts {
		policy.MaxAttempts = MaxPartAttempts
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		llm:         llm,
		builders:    builders,
		policy:      policy,
		callTimeout: timeout,
		logger:      logger,
	}, nil
}

// Builders exposes the prompt registry jobs are planned against.
func (o *Orchestrator) Builders() *prompt.Registry { return o.builders }

// Run executes every part of job and returns the results in index order.
// Multipart jobs fan out one goroutine per part; the first part to fail for
// good cancels the others and its FatalPartError is returned. No results
// are returned unless every part succeeded.
func (o *Orchestrator) Run(ctx context.Context, job Job, snap project.Snapshot) ([]PartResult, error) {
	if err := job.Validate(o.builders); err != nil {
		return nil, err
	}
	log := o.logger.With(zap.String("job", job.ID), zap.String("project", job.ProjectID), zap.String("mode", string(job.Mode)))
	start := time.Now()

	results := make([]PartResult, len(job.Parts))
	if job.Mode == ModeSingle {
		res, err := o.runPart(ctx, log, job, job.Parts[0], snap)
		if err != nil {
			return nil, err
		}
		results[0] = res
		log.Info("job complete", zap.Duration("elapsed", time.Since(start)))
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range job.Parts {
		g.Go(func() error {
			res, err := o.runPart(gctx, log, job, spec, snap)
			if err != nil {
				return err
			}
			// Each branch owns its own slot.
			results[spec.Index] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("job aborted", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	log.Info("job complete", zap.Int("parts", len(results)), zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// RunPart generates the single part of job with the given label, under the
// same timeout and retry rules as a full run.
func (o *Orchestrator) RunPart(ctx context.Context, job Job, snap project.Snapshot, label string) (PartResult, error) {
	if err := job.Validate(o.builders); err != nil {
		return PartResult{}, err
	}
	spec, ok := job.Part(label)
	if !ok {
		return PartResult{}, invalid("label", "job has no part %q (have %v)", label, job.Labels())
	}
	log := o.logger.With(zap.String("job", job.ID), zap.String("project", job.ProjectID), zap.String("mode", "part"))
	return o.runPart(ctx, log, job, spec, snap)
}

func (o *Orchestrator) runPart(ctx context.Context, log *zap.Logger, job Job, spec PartSpec, snap project.Snapshot) (PartResult, error) {
	builder, _ := o.builders.Lookup(spec.Builder)
	req := Request{Prompt: builder(snap), MaxTokens: spec.MaxTokens}
	log = log.With(zap.String("part", spec.Label), zap.Int("index", spec.Index))

	policy := o.policy
	policy.OnRetry = func(attempt int, err error) {
		log.Warn("part attempt failed, retrying", zap.Int("attempt", attempt), zap.Duration("delay", policy.Delay), zap.Error(err))
	}

	var text string
	start := time.Now()
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		log.Debug("dispatching part", zap.Int("attempt", attempt), zap.Int("prompt_len", len(req.Prompt)))
		out, err := o.call(ctx, req)
		if err != nil {
			return err
		}
		text, err = PostProcess(out, job.Sections)
		return err
	})
	if err != nil {
		// The caller gave up; no part is at fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("part abandoned", zap.Int("attempts", attempts), zap.Error(ctxErr))
			return PartResult{}, ctxErr
		}
		log.Error("part failed", zap.Int("attempts", attempts), zap.Error(err))
		return PartResult{}, &FatalPartError{
			Label:    spec.Label,
			Index:    spec.Index,
			Attempts: attempts,
			Stage:    "generate",
			Err:      err,
		}
	}
	log.Info("part complete", zap.Int("attempts", attempts), zap.Int("len", len(text)), zap.Duration("elapsed", time.Since(start)))
	return PartResult{Index: spec.Index, Label: spec.Label, Text: text}, nil
}

// call performs one attempt bounded by the per-call timeout. A timeout of
// the attempt itself is transient; cancellation by the caller is not.
func (o *Orchestrator) call(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	out, err := o.llm.Complete(callCtx, req)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !IsTransient(err) {
		return "", &TransientProviderError{Provider: "timeout", Message: fmt.Sprintf("call exceeded %s", o.callTimeout), Err: err}
	}
	return "", err
}
