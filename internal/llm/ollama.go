package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama asks a local model for output constrained to the schema.
type Ollama struct {
	client *api.Client
	model  string
}

func NewOllama(baseURL, model string) (*Ollama, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("ollama model required")
	}
	return &Ollama{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (o *Ollama) CompleteJSON(ctx context.Context, system, prompt string, schema Schema) ([]byte, error) {
	format, err := json.Marshal(schema.Parameters)
	if err != nil {
		return nil, err
	}
	req := &api.GenerateRequest{
		Model:  o.model,
		System: system,
		Prompt: prompt,
		Format: format,
		Stream: new(bool), // false
		Options: map[string]interface{}{
			"temperature": 0.9,
		},
	}

	var fullResponse strings.Builder
	err = o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		fullResponse.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate failed: %w", err)
	}

	text := extractJSON(fullResponse.String())
	if !json.Valid([]byte(text)) {
		return nil, errors.New("ollama returned invalid JSON")
	}
	return []byte(text), nil
}
