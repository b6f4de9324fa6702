package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bookrag/bookrag/internal/observability"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash"
)

type Gemini struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func NewGemini(cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (m *Gemini) Complete(ctx context.Context, req Request) (Completion, error) {
	completion, err := m.complete(ctx, req)
	observability.ObserveModelRequest(ProviderGemini, err)
	return completion, err
}

func (m *Gemini) complete(ctx context.Context, req Request) (Completion, error) {
	if err := validateMessages(req.Messages); err != nil {
		return Completion{}, err
	}
	body, err := json.Marshal(buildGeminiPayload(m.temperature, req))
	if err != nil {
		return Completion{}, fmt.Errorf("marshal generate payload: %w", err)
	}

	endpoint := m.baseURL + "/v1beta/models/" + url.PathEscape(m.model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", m.apiKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return Completion{}, fmt.Errorf("request generate content: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("read generate response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Completion{}, &StatusError{Provider: ProviderGemini, StatusCode: resp.StatusCode, Body: string(rawRespBody)}
	}

	var parsed struct {
		ModelVersion string `json:"modelVersion"`
		Candidates   []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Completion{}, fmt.Errorf("decode generate response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		if parsed.PromptFeedback.BlockReason != "" {
			return Completion{}, fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason)
		}
		return Completion{}, fmt.Errorf("empty generate candidates")
	}
	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	model := parsed.ModelVersion
	if model == "" {
		model = m.model
	}
	return Completion{
		Text:     strings.TrimSpace(text.String()),
		Model:    model,
		Provider: ProviderGemini,
	}, nil
}

func buildGeminiPayload(defaultTemperature float64, req Request) map[string]any {
	var systemParts []map[string]string
	contents := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, map[string]string{"text": msg.Content})
		case RoleAssistant:
			contents = append(contents, map[string]any{
				"role":  "model",
				"parts": []map[string]string{{"text": msg.Content}},
			})
		default:
			contents = append(contents, map[string]any{
				"role":  "user",
				"parts": []map[string]string{{"text": msg.Content}},
			})
		}
	}
	generationConfig := map[string]any{"temperature": req.temperature(defaultTemperature)}
	if req.Schema != nil {
		generationConfig["responseMimeType"] = "application/json"
		generationConfig["responseSchema"] = req.Schema.OpenAPISchema()
	}
	payload := map[string]any{
		"contents":         contents,
		"generationConfig": generationConfig,
	}
	if len(systemParts) > 0 {
		payload["systemInstruction"] = map[string]any{"parts": systemParts}
	}
	return payload
}
