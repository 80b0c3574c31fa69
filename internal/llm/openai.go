package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAICompat calls any OpenAI-compatible /chat/completions endpoint and
// forces a single function call whose arguments are the structured result.
type OpenAICompat struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAICompat builds a client. baseURL should include the /v1 prefix.
// apiKey can be empty for local models that do not require authentication.
func NewOpenAICompat(baseURL, apiKey, model string, timeout time.Duration) *OpenAICompat {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAICompat{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *OpenAICompat) CompleteJSON(ctx context.Context, system, prompt string, schema Schema) ([]byte, error) {
	if c.model == "" {
		return nil, errors.New("openai-compat model required")
	}
	messages := make([]oaiMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: system})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: prompt})

	reqBody := oaiChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools: []oaiTool{{
			Type: "function",
			Function: oaiFunction{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		}},
		ToolChoice: &oaiToolChoice{Type: "function", Function: oaiToolChoiceFunction{Name: schema.Name}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai-compat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("openai-compat api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("openai-compat api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("openai-compat decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("empty response from openai-compat api")
	}
	msg := chatResp.Choices[0].Message
	for _, call := range msg.ToolCalls {
		if call.Function.Name == schema.Name && strings.TrimSpace(call.Function.Arguments) != "" {
			return []byte(call.Function.Arguments), nil
		}
	}
	// Some backends ignore tool_choice and answer in plain content.
	if text := extractJSON(msg.Content); strings.HasPrefix(text, "{") {
		return []byte(text), nil
	}
	return nil, errors.New("openai-compat response has no tool call")
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	ToolCalls []oaiToolCall `json:"tool_calls,omitempty"`
}

type oaiFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type oaiTool struct {
	Type     string      `json:"type"`
	Function oaiFunction `json:"function"`
}

type oaiToolChoiceFunction struct {
	Name string `json:"name"`
}

type oaiToolChoice struct {
	Type     string                `json:"type"`
	Function oaiToolChoiceFunction `json:"function"`
}

type oaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type oaiChatRequest struct {
	Model      string         `json:"model"`
	Messages   []oaiMessage   `json:"messages"`
	Tools      []oaiTool      `json:"tools,omitempty"`
	ToolChoice *oaiToolChoice `json:"tool_choice,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
