package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"artify/internal/config"
	"artify/internal/event"
	"artify/internal/services"
	"artify/internal/services/llm"
)

// Method records how a category was chosen.
type Method string

const (
	MethodSource Method = "source"
	MethodRules  Method = "rules"
	MethodLLM    Method = "llm"
)

// Result is a category assignment.
type Result struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category,omitempty"`
	Confidence  float64 `json:"confidence"`
	Method      Method  `json:"method"`
}

// Apply copies the assignment onto ev.
func (r Result) Apply(ev *event.NormalizedEvent) {
	ev.Category = r.Category
	ev.SubCategory = r.SubCategory
	ev.ClassifierConfidence = r.Confidence
}

// Classifier assigns a category to one event.
type Classifier interface {
	Classify(ctx context.Context, ev event.NormalizedEvent) (Result, error)
}

// ErrUnknownCategory is returned when a classifier answers outside Categories.
var ErrUnknownCategory = errors.New("unknown category")

// FromConfig builds the classifier selected by cfg.Classifier.Mode. Rules are
// always built so the LLM mode has a fallback.
func FromConfig(cfg *config.Config, logger *slog.Logger) (Classifier, error) {
	rules := NewRules()
	if path := strings.TrimSpace(cfg.Classifier.RulesPath); path != "" {
		loaded, err := LoadRules(path)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	switch cfg.Classifier.Mode {
	case "", "rules":
		return rules, nil
	case "llm":
		return NewChain(NewLLM(llmClient(cfg)), rules, logger), nil
	default:
		return nil, fmt.Errorf("classifier: unsupported mode %q", cfg.Classifier.Mode)
	}
}

// CheckLLM asks the configured chat model for a trivial answer.
func CheckLLM(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.GetLLM().APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "classify", "llm health", "no api key configured", llm.ErrNotConfigured)
	}
	if err := llmClient(cfg).HealthCheck(ctx); err != nil {
		return services.Wrap(services.ErrExternal, "classify", "llm health", "model did not answer", err)
	}
	return nil
}

func llmClient(cfg *config.Config) *llm.Client {
	llmCfg := cfg.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
}
