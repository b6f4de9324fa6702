package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Message struct {
	Role    Role
	Content string
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Request is a single chat turn. When Schema is set the provider is asked to
// answer with a JSON object matching it; callers still run Decode on the text.
type Request struct {
	Messages []Message
	Schema   *ObjectSchema
	// Temperature overrides the client default when non-nil, including zero.
	Temperature *float64
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(v float64) *float64 { return &v }

func (r Request) temperature(fallback float64) float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return fallback
}

type Completion struct {
	Text     string
	Model    string
	Provider string
}

type Model interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s completion failed status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the provider signalled a transient condition.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// New builds the provider named by cfg.Provider.
func New(cfg Config) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		return NewGemini(cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}

func validateMessages(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d has unsupported role %q", i, msg.Role)
		}
	}
	return nil
}
