// Package llm talks to text-generation backends and returns structured JSON.
package llm

import (
	"context"
	"fmt"
	"strings"

	"ainews/internal/config"
)

// Schema describes the JSON object a completion must produce.
// Parameters is a JSON Schema document.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Completer produces a JSON document matching schema.
type Completer interface {
	CompleteJSON(ctx context.Context, system, prompt string, schema Schema) ([]byte, error)
}

// New builds the completer selected by cfg.Provider.
func New(cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAICompat(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

// extractJSON trims prose or code fences some models wrap around a JSON object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
