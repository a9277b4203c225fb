package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Chat roles sent to providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of provider context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient produces a completion from conversation context.
type LLMClient interface {
	Complete(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float64) (string, error)
}

// Provider identifiers.
const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

var defaultModels = map[string]string{
	ProviderDeepSeek:  "deepseek-chat",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-haiku-20240307",
	ProviderGemini:    "gemini-2.0-flash",
}

// DefaultModel returns the model used when AI_MODEL is unset.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// NewLLMClient builds the provider client.
func NewLLMClient(provider, apiKey, model string) (LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider %s requires an api key", provider)
	}
	if model == "" {
		model = DefaultModel(provider)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	switch provider {
	case ProviderDeepSeek:
		return &openAICompatClient{http: httpClient, endpoint: "https://api.deepseek.com/chat/completions", apiKey: apiKey, model: model}, nil
	case ProviderOpenAI:
		return &openAICompatClient{http: httpClient, endpoint: "https://api.openai.com/v1/chat/completions", apiKey: apiKey, model: model}, nil
	case ProviderAnthropic:
		return &anthropicClient{http: httpClient, apiKey: apiKey, model: model}, nil
	case ProviderGemini:
		return &geminiClient{http: httpClient, apiKey: apiKey, model: model}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func decodeOrError(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// openAICompatClient covers DeepSeek and OpenAI chat completions.
type openAICompatClient struct {
	http     *http.Client
	endpoint string
	apiKey   string
	model    string
}

func (c *openAICompatClient) Complete(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := decodeOrError(resp, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return out.Choices[0].Message.Content, nil
}

// anthropicClient talks to the Anthropic messages API. The system
// prompt travels in its own field.
type anthropicClient struct {
	http   *http.Client
	apiKey string
	model  string
}

func (c *anthropicClient) Complete(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	var system string
	turns := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = m.Content
			continue
		}
		turns = append(turns, m)
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":       c.model,
		"system":      system,
		"messages":    turns,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := decodeOrError(resp, &out); err != nil {
		return "", err
	}
	if len(out.Content) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return out.Content[0].Text, nil
}

// geminiClient talks to the Gemini generateContent API.
type geminiClient struct {
	http   *http.Client
	apiKey string
	model  string
}

func (c *geminiClient) Complete(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float64) (string, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	var system *content
	contents := make([]content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = &content{Parts: []part{{Text: m.Content}}}
		case RoleAssistant:
			contents = append(contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}

	payload := map[string]interface{}{
		"contents": contents,
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": maxTokens,
			"temperature":     temperature,
		},
	}
	if system != nil {
		payload["systemInstruction"] = system
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := decodeOrError(resp, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
