package nl2sql

import (
	"context"
	"errors"
)

// ErrEmptyQuery is returned when the model produced a blank SQL statement.
var ErrEmptyQuery = errors.New("model returned empty SQL")

type Request struct {
	Question string `json:"question"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
