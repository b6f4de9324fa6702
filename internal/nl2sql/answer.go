package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/prompt"
	"github.com/bookrag/bookrag/internal/schema"
)

type AnswerInput struct {
	Question  string
	Query     string
	Result    string
	ExecError string
}

// AnswerSynthesizer phrases the final answer from the question, the query and
// either its result or the database error. The model's text is returned as-is.
type AnswerSynthesizer struct {
	Model        llm.Model
	Introspector schema.Introspector
}

func (s *AnswerSynthesizer) Answer(ctx context.Context, in AnswerInput) (string, error) {
	tableInfo, err := s.Introspector.TableInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("introspect schema: %w", err)
	}
	messages, err := prompt.AnswerMessages(prompt.AnswerInput{
		Question:  in.Question,
		Query:     in.Query,
		TableInfo: tableInfo,
		Result:    in.Result,
		Error:     in.ExecError,
		Failed:    in.ExecError != "",
	})
	if err != nil {
		return "", err
	}
	completion, err := s.Model.Complete(ctx, llm.Request{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return strings.TrimSpace(completion.Text), nil
}
