package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bookrag/bookrag/internal/observability"
)

const openAIProviderName = "openai-compatible"

type OpenAI struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (m *OpenAI) Complete(ctx context.Context, req Request) (Completion, error) {
	completion, err := m.complete(ctx, req)
	observability.ObserveModelRequest(openAIProviderName, err)
	return completion, err
}

func (m *OpenAI) complete(ctx context.Context, req Request) (Completion, error) {
	if err := validateMessages(req.Messages); err != nil {
		return Completion{}, err
	}
	body, err := json.Marshal(buildOpenAIPayload(m.model, m.temperature, req))
	if err != nil {
		return Completion{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return Completion{}, fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Completion{}, &StatusError{Provider: openAIProviderName, StatusCode: resp.StatusCode, Body: string(rawRespBody)}
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Completion{}, fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Completion{}, fmt.Errorf("empty chat completion choices")
	}
	model := parsed.Model
	if model == "" {
		model = m.model
	}
	return Completion{
		Text:     strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model:    model,
		Provider: openAIProviderName,
	}, nil
}

func buildOpenAIPayload(model string, defaultTemperature float64, req Request) map[string]any {
	messages := make([]map[string]string, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, map[string]string{"role": string(msg.Role), "content": msg.Content})
	}
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": req.temperature(defaultTemperature),
	}
	if req.Schema != nil {
		payload["response_format"] = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.Schema.Name,
				"strict": true,
				"schema": req.Schema.JSONSchema(),
			},
		}
	}
	return payload
}
