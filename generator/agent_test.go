package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	CompleteFunc func(ctx context.Context, prompt Prompt) (string, error)
	calls        int
}

func (f *fakeLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	f.calls++
	return f.CompleteFunc(ctx, prompt)
}

func answer(text string) *fakeLLM {
	return &fakeLLM{CompleteFunc: func(context.Context, Prompt) (string, error) { return text, nil }}
}

func failing(err error) *fakeLLM {
	return &fakeLLM{CompleteFunc: func(context.Context, Prompt) (string, error) { return "", err }}
}

func blocking() *fakeLLM {
	return &fakeLLM{CompleteFunc: func(ctx context.Context, _ Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
}

func TestNewAgent(t *testing.T) {
	_, err := NewAgent(nil)
	assert.Error(t, err)

	_, err = NewAgent(MockLLM{}, WithSchema("xml"))
	assert.Error(t, err)

	a, err := NewAgent(MockLLM{})
	require.NoError(t, err)
	assert.Equal(t, SchemaFields, a.Schema())
	assert.Equal(t, DefaultTimeout, a.timeout)

	a, err = NewAgent(MockLLM{}, WithTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, a.timeout)
}

func TestAgentValidatesBeforeCalling(t *testing.T) {
	llm := answer(novaJSON)
	a, err := NewAgent(llm)
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), Idea{Title: "EcoTrack"})
	require.Error(t, err)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "description", verr.Field)
	assert.Equal(t, 0, llm.calls)
}

func TestAgentParsesModelOutput(t *testing.T) {
	var seen Prompt
	llm := &fakeLLM{CompleteFunc: func(_ context.Context, p Prompt) (string, error) {
		seen = p
		return "Sure! ```json\n" + novaJSON + "\n```", nil
	}}
	a, err := NewAgent(llm)
	require.NoError(t, err)

	res, err := a.Generate(context.Background(), ecoTrack)
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, StrategyFenced, res.Strategy)
	assert.Equal(t, "Nova", res.Pitch.(FieldPitch).StartupName)
	assert.Contains(t, seen.User, "Startup Idea: EcoTrack")
}

func TestAgentFieldSchemaFallsBack(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{name: "call fails", llm: failing(errors.New("quota exceeded"))},
		{name: "unparseable answer", llm: answer("I cannot do that.")},
		{name: "missing startup name", llm: answer(`{"tagline":"x"}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAgent(tc.llm, WithFallback(NewFallback(11)))
			require.NoError(t, err)

			res, err := a.Generate(context.Background(), ecoTrack)
			require.NoError(t, err)
			assert.True(t, res.UsedFallback)
			assert.Equal(t, StrategyNone, res.Strategy)

			pitch, ok := res.Pitch.(FieldPitch)
			require.True(t, ok)
			assert.Equal(t, NewFallback(11).Generate(ecoTrack), pitch)
			assert.Contains(t, TaglinesFor(ToneInnovative), pitch.Tagline)
		})
	}
}

func TestAgentTimeout(t *testing.T) {
	a, err := NewAgent(blocking(), WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	res, err := a.Generate(context.Background(), ecoTrack)
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)

	a, err = NewAgent(blocking(), WithSchema(SchemaSections), WithTimeout(20*time.Millisecond), WithProvider("gemini"))
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), Idea{IdeaText: "a dog walking app"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "gemini")
}

func TestAgentSectionSchemaHasNoFallback(t *testing.T) {
	a, err := NewAgent(failing(errors.New("boom")), WithSchema(SchemaSections))
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), Idea{IdeaText: "a dog walking app"})
	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.EqualError(t, gerr.Err, "boom")

	a, err = NewAgent(answer("no tags here"), WithSchema(SchemaSections))
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), Idea{IdeaText: "a dog walking app"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, ErrParse))
}

func TestAgentWithMockLLM(t *testing.T) {
	for _, kind := range []SchemaKind{SchemaFields, SchemaSections} {
		t.Run(string(kind), func(t *testing.T) {
			a, err := NewAgent(MockLLM{}, WithSchema(kind))
			require.NoError(t, err)

			res, err := a.Generate(context.Background(), ecoTrack)
			require.NoError(t, err)
			assert.False(t, res.UsedFallback)
			assert.Equal(t, kind, res.Pitch.Kind())
			for _, f := range res.Pitch.DisplayFields() {
				assert.NotEmpty(t, f.Text, f.Label)
			}
			assert.Contains(t, res.Pitch.DisplayFields()[0].Text, "EcoTrackly")
		})
	}
}
