package nl2sql

import (
	"context"

	"github.com/bookrag/bookrag/internal/llm"
)

type fakeModel struct {
	completion llm.Completion
	err        error
	requests   []llm.Request
}

func (m *fakeModel) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	m.requests = append(m.requests, req)
	return m.completion, m.err
}

type fakeIntrospector struct {
	info  string
	err   error
	calls int
}

func (f *fakeIntrospector) Dialect() string { return "postgresql" }

func (f *fakeIntrospector) TableInfo(context.Context) (string, error) {
	f.calls++
	return f.info, f.err
}
