package eval

import (
	"context"
	"fmt"

	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/prompt"
)

var (
	CorrectnessSchema = llm.ObjectSchema{
		Name: "CorrectnessGrade",
		Fields: []llm.Field{
			{Name: "explanation", Type: llm.FieldString, Description: "Explain your reasoning for the score"},
			{Name: "correct", Type: llm.FieldBoolean, Description: "True if the answer is correct, False otherwise."},
		},
	}
	RelevanceSchema = llm.ObjectSchema{
		Name: "RelevanceGrade",
		Fields: []llm.Field{
			{Name: "explanation", Type: llm.FieldString, Description: "Explain your reasoning for the score"},
			{Name: "relevant", Type: llm.FieldBoolean, Description: "Provide the score on whether the answer addresses the question"},
		},
	}
)

type CorrectnessGrade struct {
	Explanation string `json:"explanation"`
	Correct     bool   `json:"correct"`
}

type RelevanceGrade struct {
	Explanation string `json:"explanation"`
	Relevant    bool   `json:"relevant"`
}

// Judge grades answers with a language model using structured output. Grading
// always runs at temperature zero so reruns of a dataset are comparable.
type Judge struct {
	Model llm.Model
}

func (j *Judge) Correctness(ctx context.Context, question, reference, answer string) (CorrectnessGrade, error) {
	completion, err := j.Model.Complete(ctx, llm.Request{
		Messages:    prompt.CorrectnessMessages(question, reference, answer),
		Schema:      &CorrectnessSchema,
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return CorrectnessGrade{}, fmt.Errorf("grade correctness: %w", err)
	}
	var grade CorrectnessGrade
	if err := llm.Decode(completion.Text, CorrectnessSchema, &grade); err != nil {
		return CorrectnessGrade{}, err
	}
	return grade, nil
}

func (j *Judge) Relevance(ctx context.Context, question, answer string) (RelevanceGrade, error) {
	completion, err := j.Model.Complete(ctx, llm.Request{
		Messages:    prompt.RelevanceMessages(question, answer),
		Schema:      &RelevanceSchema,
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return RelevanceGrade{}, fmt.Errorf("grade relevance: %w", err)
	}
	var grade RelevanceGrade
	if err := llm.Decode(completion.Text, RelevanceSchema, &grade); err != nil {
		return RelevanceGrade{}, err
	}
	return grade, nil
}
