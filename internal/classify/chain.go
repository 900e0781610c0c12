package classify

import (
	"context"
	"errors"
	"log/slog"

	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/services"
	"artify/internal/services/llm"
)

// Chain tries a primary classifier and falls back to rules.
type Chain struct {
	primary  Classifier
	fallback *Rules
	logger   *slog.Logger
}

// NewChain builds a Chain. A nil fallback uses the built-in rules.
func NewChain(primary Classifier, fallback *Rules, logger *slog.Logger) *Chain {
	if fallback == nil {
		fallback = NewRules()
	}
	return &Chain{
		primary:  primary,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "classifier"),
	}
}

// Fallback returns the rules used when the primary cannot answer.
func (c *Chain) Fallback() *Rules {
	return c.fallback
}

// Classify keeps a source-declared category without consulting the primary.
// Any primary failure is logged and answered by the rules.
func (c *Chain) Classify(ctx context.Context, ev event.NormalizedEvent) (Result, error) {
	if Valid(ev.Category) || c.primary == nil {
		return c.fallback.Classify(ctx, ev)
	}
	result, err := c.primary.Classify(ctx, ev)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	hint := "classifier answer unusable; rules used instead"
	switch {
	case llm.IsRateLimited(err):
		hint = "llm quota exhausted; rules used until it resets"
	case errors.Is(err, services.ErrConfiguration):
		hint = "set llm.api_key or switch classifier.mode to rules"
	}
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "classifier fallback",
		"classifier_fallback",
		logging.EventURL(ev.SourceEventURL),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "category assigned by keyword rules"),
	)
	return c.fallback.Classify(ctx, ev)
}
