package classify

import (
	"context"
	"fmt"

	"artify/internal/event"
	"artify/internal/services"
	"artify/internal/services/llm"
	"artify/internal/textutil"
)

// LLM classifies events with a chat model.
type LLM struct {
	client *llm.Client
}

// NewLLM wraps client.
func NewLLM(client *llm.Client) *LLM {
	return &LLM{client: client}
}

// Classify returns an error when the client is unconfigured, the request
// fails, or the model picks a category outside Categories.
func (c *LLM) Classify(ctx context.Context, ev event.NormalizedEvent) (Result, error) {
	if c == nil || !c.client.Configured() {
		return Result{}, services.Wrap(services.ErrConfiguration, "classify", "llm", "no api key configured", llm.ErrNotConfigured)
	}
	answer, err := c.client.ClassifyEvent(ctx, llm.EventInput{
		Title:       ev.Title,
		Description: ev.Description,
		Source:      ev.SourceName,
		Venue:       ev.LocationName,
	})
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternal, "classify", "llm", ev.SourceEventURL, err)
	}
	if !Valid(answer.Category) {
		return Result{}, fmt.Errorf("classify llm: %w %q", ErrUnknownCategory, answer.Category)
	}
	sub := ""
	folded := textutil.Fold(answer.SubCategory)
	for _, known := range subCategories[answer.Category] {
		if textutil.Fold(known) == folded {
			sub = known
			break
		}
	}
	return Result{
		Category:    answer.Category,
		SubCategory: sub,
		Confidence:  answer.Confidence,
		Method:      MethodLLM,
	}, nil
}
