package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/prompt"
	"github.com/bookrag/bookrag/internal/schema"
)

// QueryOutputSchema is the structured output requested for SQL synthesis.
var QueryOutputSchema = llm.ObjectSchema{
	Name:        "QueryOutput",
	Description: "Generated SQL query.",
	Fields: []llm.Field{
		{Name: "query", Type: llm.FieldString, Description: "Syntactically valid SQL query."},
	},
}

type queryOutput struct {
	Query string `json:"query"`
}

// QuerySynthesizer turns a question into one SQL statement for the live schema.
// The statement is not checked for syntax or safety before it is returned.
type QuerySynthesizer struct {
	Model        llm.Model
	Introspector schema.Introspector
	TopK         int
}

func (s *QuerySynthesizer) Translate(ctx context.Context, req Request) (Result, error) {
	tableInfo, err := s.Introspector.TableInfo(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("introspect schema: %w", err)
	}
	messages, err := prompt.QueryMessages(prompt.QueryInput{
		Question:  strings.TrimSpace(req.Question),
		Dialect:   s.Introspector.Dialect(),
		TopK:      s.TopK,
		TableInfo: tableInfo,
	})
	if err != nil {
		return Result{}, err
	}

	completion, err := s.Model.Complete(ctx, llm.Request{Messages: messages, Schema: &QueryOutputSchema})
	if err != nil {
		return Result{}, fmt.Errorf("synthesize query: %w", err)
	}

	var out queryOutput
	if err := llm.Decode(completion.Text, QueryOutputSchema, &out); err != nil {
		return Result{}, err
	}
	sql := strings.TrimSpace(llm.StripCodeFence(out.Query))
	if sql == "" {
		return Result{}, ErrEmptyQuery
	}
	return Result{
		SQL:      sql,
		Provider: completion.Provider,
		Model:    completion.Model,
	}, nil
}
