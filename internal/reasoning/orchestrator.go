package reasoning

import (
	"context"
	"fmt"
	"log/slog"
)

// Orchestrator runs the compliance reasoning step. It tries each configured
// model in order against the same prompt and falls back to a neutral default
// judgment when all attempts fail, so Analyze never returns an error.
type Orchestrator struct {
	generator   Generator
	models      []string
	logger      *slog.Logger
	attemptHook func(model, outcome string)
}

// NewOrchestrator creates an orchestrator over an ordered model chain. The
// first model is the primary, the rest are fallbacks.
func NewOrchestrator(generator Generator, models []string, logger *slog.Logger) (*Orchestrator, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("at least one model is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		generator: generator,
		models:    models,
		logger:    logger,
	}, nil
}

// SetAttemptHook installs an observer called once per model attempt with the
// outcome: "success", "error" (generation failed) or "rejected" (output failed
// the contract).
func (o *Orchestrator) SetAttemptHook(hook func(model, outcome string)) {
	o.attemptHook = hook
}

func (o *Orchestrator) recordAttempt(model, outcome string) {
	if o.attemptHook != nil {
		o.attemptHook(model, outcome)
	}
}

// Analyze renders the prompt once and walks the model chain. A parse failure
// counts as an attempt failure; the same prompt is reused for every attempt.
// The returned judgment is always total. The second return value reports
// whether a model produced it (true) or the neutral fallback did (false).
func (o *Orchestrator) Analyze(ctx context.Context, in Input) (*Judgment, bool) {
	prompt := BuildPrompt(in)

	var lastErr error
	for _, model := range o.models {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		raw, err := o.generator.Generate(ctx, model, prompt)
		if err != nil {
			lastErr = err
			o.recordAttempt(model, "error")
			o.logger.Warn("reasoning attempt failed",
				slog.String("model", model),
				slog.String("error", err.Error()))
			continue
		}

		judgment, err := parseJudgment(raw)
		if err != nil {
			lastErr = err
			o.recordAttempt(model, "rejected")
			o.logger.Warn("reasoning output rejected",
				slog.String("model", model),
				slog.String("error", err.Error()))
			continue
		}

		o.recordAttempt(model, "success")
		o.logger.Info("reasoning complete",
			slog.String("model", model),
			slog.Int("violations", len(judgment.PolicyViolations)),
			slog.Int("risk_score", judgment.RiskEscalationScore))

		return judgment, true
	}

	reason := "all reasoning attempts failed"
	if lastErr != nil {
		reason = lastErr.Error()
	}

	o.logger.Error("reasoning failed on every model, using fallback judgment",
		slog.Int("models_tried", len(o.models)),
		slog.String("error", reason))

	return Fallback(reason), false
}
