// Package llmclient is the black-box LLM transport the Agent Executor calls
// once per turn, grounded on pkg/llm/client.go's Client but re-homed on
// net/http: the teacher's gRPC transport depends on a generated protobuf
// package (github.com/codeready-toolchain/tarsy/proto) that was never part
// of the retrieved example pack and cannot be regenerated without running
// protoc — see DESIGN.md.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Role is a conversation message's speaker role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateInput is everything needed for one completion call.
type GenerateInput struct {
	Messages    []Message
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// GenerateOutput is the model's raw text reply plus token accounting.
type GenerateOutput struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client is the narrow interface the Agent Executor depends on — a single
// blocking completion call, matching spec.md §4.8's black-box LLM Client
// contract.
type Client interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error)
}

// HTTPClient implements Client against an OpenAI-compatible chat-completions
// endpoint (the common shape across locally hosted and hosted providers
// alike), grounded on pkg/llm/client.go's configuration-from-environment
// conventions (model name, temperature, max tokens all overridable).
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewHTTPClient constructs an HTTPClient pointed at baseURL (e.g.
// "http://localhost:11434/v1" or a hosted provider's API root).
func NewHTTPClient(baseURL, apiKey, model string) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate issues one chat-completion call and returns the first choice's
// text.
func (c *HTTPClient) Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error) {
	model := input.Model
	if model == "" {
		model = c.model
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    input.Messages,
		Temperature: input.Temperature,
		MaxTokens:   input.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal LLM request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build LLM request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM request returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("LLM response contained no choices")
	}

	return &GenerateOutput{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
