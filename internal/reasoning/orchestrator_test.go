package reasoning

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGenerator maps model name to a canned response or error and records the
// order models were tried in.
type fakeGenerator struct {
	responses map[string]string
	errors    map[string]error
	tried     []string
}

func (f *fakeGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.tried = append(f.tried, model)
	if err, ok := f.errors[model]; ok {
		return "", err
	}
	return f.responses[model], nil
}

func TestAnalyzePrimarySucceeds(t *testing.T) {
	gen := &fakeGenerator{
		responses: map[string]string{
			"primary": `{"summary": "All good.", "agent_quality_score": 90}`,
		},
	}

	o, err := NewOrchestrator(gen, []string{"primary", "secondary"}, testLogger())
	require.NoError(t, err)

	judgment, fromModel := o.Analyze(context.Background(), Input{})

	assert.True(t, fromModel)
	assert.Equal(t, "All good.", judgment.Summary)
	assert.Equal(t, []string{"primary"}, gen.tried, "secondary is never consulted")
}

func TestAnalyzeFallsThroughToSecondary(t *testing.T) {
	gen := &fakeGenerator{
		errors: map[string]error{
			"primary": fmt.Errorf("HTTP error 503: overloaded"),
		},
		responses: map[string]string{
			"secondary": `{"summary": "Recovered on fallback model."}`,
		},
	}

	o, err := NewOrchestrator(gen, []string{"primary", "secondary"}, testLogger())
	require.NoError(t, err)

	var attempts []string
	o.SetAttemptHook(func(model, outcome string) {
		attempts = append(attempts, model+":"+outcome)
	})

	judgment, fromModel := o.Analyze(context.Background(), Input{})

	assert.True(t, fromModel)
	assert.Equal(t, "Recovered on fallback model.", judgment.Summary)
	assert.Equal(t, []string{"primary", "secondary"}, gen.tried)
	assert.Equal(t, []string{"primary:error", "secondary:success"}, attempts)
}

func TestAnalyzeParseFailureCountsAsAttemptFailure(t *testing.T) {
	gen := &fakeGenerator{
		responses: map[string]string{
			"primary":   "Sorry, I refuse to produce JSON.",
			"secondary": `{"summary": "Valid output."}`,
		},
	}

	o, err := NewOrchestrator(gen, []string{"primary", "secondary"}, testLogger())
	require.NoError(t, err)

	judgment, fromModel := o.Analyze(context.Background(), Input{})

	assert.True(t, fromModel)
	assert.Equal(t, "Valid output.", judgment.Summary)
	assert.Len(t, gen.tried, 2)
}

func TestAnalyzeAllModelsFail(t *testing.T) {
	gen := &fakeGenerator{
		errors: map[string]error{
			"primary":   fmt.Errorf("connection refused"),
			"secondary": fmt.Errorf("HTTP error 500: boom"),
		},
	}

	o, err := NewOrchestrator(gen, []string{"primary", "secondary"}, testLogger())
	require.NoError(t, err)

	judgment, fromModel := o.Analyze(context.Background(), Input{})

	assert.False(t, fromModel)
	assert.Equal(t, "HTTP error 500: boom", judgment.FailureReason, "fallback carries the last error")
	require.NotNil(t, judgment.IsWithinPolicy)
	assert.True(t, *judgment.IsWithinPolicy)
	assert.Equal(t, "Pending Review", judgment.FinalStatus)
}

func TestAnalyzeStopsOnCancelledContext(t *testing.T) {
	gen := &fakeGenerator{
		responses: map[string]string{"primary": `{"summary": "Never reached."}`},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := NewOrchestrator(gen, []string{"primary"}, testLogger())
	require.NoError(t, err)

	judgment, fromModel := o.Analyze(ctx, Input{})

	assert.False(t, fromModel)
	assert.Empty(t, gen.tried)
	assert.Equal(t, context.Canceled.Error(), judgment.FailureReason)
}

func TestNewOrchestratorValidation(t *testing.T) {
	_, err := NewOrchestrator(nil, []string{"m"}, testLogger())
	assert.Error(t, err)

	_, err = NewOrchestrator(&fakeGenerator{}, nil, testLogger())
	assert.Error(t, err)
}
