package generator

import (
	"context"
	"errors"
	"time"

	"pitchcraft/logger"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// Agent turns an Idea into a GeneratedPitch: prompt, model call, parse, and
// for the field schema a silent fallback when the call or the parse fails.
type Agent struct {
	llm      LLMClient
	provider string
	kind     SchemaKind
	fallback *Fallback
	timeout  time.Duration
}

// Result is a generated pitch plus how it was obtained.
type Result struct {
	Pitch        GeneratedPitch
	Strategy     ParseStrategy
	UsedFallback bool
	Raw          string
}

type AgentOption func(*Agent)

// WithSchema selects the output schema. The default is SchemaFields.
func WithSchema(kind SchemaKind) AgentOption {
	return func(a *Agent) { a.kind = kind }
}

// WithFallback injects the fallback generator, e.g. one with a fixed seed.
func WithFallback(f *Fallback) AgentOption {
	return func(a *Agent) { a.fallback = f }
}

// WithTimeout bounds each model call. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) AgentOption {
	return func(a *Agent) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithProvider names the provider in errors and logs.
func WithProvider(name string) AgentOption {
	return func(a *Agent) { a.provider = name }
}

func NewAgent(llm LLMClient, opts ...AgentOption) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Agent{
		llm:     llm,
		kind:    SchemaFields,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.kind != SchemaFields && a.kind != SchemaSections {
		return nil, errors.New("unknown schema kind " + string(a.kind))
	}
	if a.fallback == nil {
		a.fallback = NewRandomFallback()
	}
	return a, nil
}

// Schema reports the configured output schema.
func (a *Agent) Schema() SchemaKind { return a.kind }

// Generate validates the idea before any model call. On the field schema a
// failed call or unparseable answer is replaced by the fallback pitch and
// still reported as success; on the section schema it is a GenerationError.
func (a *Agent) Generate(ctx context.Context, idea Idea) (Result, error) {
	prompt, err := BuildPrompt(a.kind, idea)
	if err != nil {
		return Result{}, err
	}
	idea = idea.Normalized()

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	raw, err := a.llm.Complete(callCtx, prompt)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(errors.New("model call timed out after "+a.timeout.String()), err)
		}
		logger.Warn("model call failed", "provider", a.provider, "schema", string(a.kind), "error", err.Error())
		if a.kind == SchemaFields {
			return a.useFallback(idea, ""), nil
		}
		return Result{}, &GenerationError{Provider: a.provider, Err: err}
	}

	pitch, strategy, err := Parse(a.kind, raw)
	if err != nil {
		logger.Warn("model output could not be parsed", "provider", a.provider, "schema", string(a.kind), "error", err.Error())
		if a.kind == SchemaFields {
			return a.useFallback(idea, raw), nil
		}
		return Result{}, &GenerationError{Provider: a.provider, Err: err}
	}

	logger.Debug("pitch parsed", "schema", string(a.kind), "strategy", string(strategy))
	return Result{Pitch: pitch, Strategy: strategy, Raw: raw}, nil
}

func (a *Agent) useFallback(idea Idea, raw string) Result {
	logger.Info("using fallback pitch", "title", idea.Title, "industry", idea.Industry)
	return Result{
		Pitch:        a.fallback.Generate(idea),
		Strategy:     StrategyNone,
		UsedFallback: true,
		Raw:          raw,
	}
}
