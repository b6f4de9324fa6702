package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookrag/bookrag/internal/nl2sql"
	"github.com/bookrag/bookrag/internal/observability"
	"github.com/bookrag/bookrag/internal/sqlexec"
)

const (
	StageQueryConstruction = "query_construction"
	StageQueryExecution    = "query_execution"
	StageGenerateAnswer    = "generate_answer"
)

// ErrEmptyQuestion is returned before any stage runs.
var ErrEmptyQuestion = errors.New("question is required")

// State is filled in stage order and lives for a single question.
type State struct {
	Question string
	Query    string
	// Result is set when the statement ran; ExecError when the database rejected it.
	Result    *sqlexec.Result
	ExecError string
	Answer    string
}

type Stage interface {
	Name() string
	Run(ctx context.Context, state *State) error
}

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Graph runs its stages strictly in order. There is no branching and no retry:
// the first failing stage ends the run.
type Graph struct {
	stages []Stage
	logger *slog.Logger
}

func NewGraph(logger *slog.Logger, stages ...Stage) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{stages: stages, logger: logger}
}

func (g *Graph) Stages() []string {
	names := make([]string, 0, len(g.stages))
	for _, stage := range g.stages {
		names = append(names, stage.Name())
	}
	return names
}

func (g *Graph) Invoke(ctx context.Context, question string) (*State, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	state := &State{Question: question}
	for _, stage := range g.stages {
		start := time.Now()
		err := stage.Run(ctx, state)
		elapsed := time.Since(start)
		observability.ObserveStage(stage.Name(), err, elapsed)
		if err != nil {
			g.logger.ErrorContext(ctx, "pipeline_stage_failed",
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
				slog.String("stage", stage.Name()),
				slog.Int64("duration_ms", elapsed.Milliseconds()),
				slog.Any("error", err),
			)
			return state, &StageError{Stage: stage.Name(), Err: err}
		}
		g.logger.DebugContext(ctx, "pipeline_stage_completed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("stage", stage.Name()),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
	}
	return state, nil
}

func (g *Graph) Run(ctx context.Context, question string) (string, error) {
	state, err := g.Invoke(ctx, question)
	if err != nil {
		return "", err
	}
	return state.Answer, nil
}

type Executor interface {
	Execute(ctx context.Context, query string) (sqlexec.Result, error)
}

type Answerer interface {
	Answer(ctx context.Context, in nl2sql.AnswerInput) (string, error)
}

type Config struct {
	Translator nl2sql.Translator
	Executor   Executor
	Answerer   Answerer
	Logger     *slog.Logger
}

// New wires the three fixed stages: query construction, execution and answer.
func New(cfg Config) *Graph {
	return NewGraph(cfg.Logger,
		&constructionStage{translator: cfg.Translator},
		&executionStage{executor: cfg.Executor},
		&answerStage{answerer: cfg.Answerer},
	)
}

type constructionStage struct {
	translator nl2sql.Translator
}

func (s *constructionStage) Name() string { return StageQueryConstruction }

func (s *constructionStage) Run(ctx context.Context, state *State) error {
	result, err := s.translator.Translate(ctx, nl2sql.Request{Question: state.Question})
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.SQL) == "" {
		return nl2sql.ErrEmptyQuery
	}
	state.Query = result.SQL
	return nil
}

type executionStage struct {
	executor Executor
}

func (s *executionStage) Name() string { return StageQueryExecution }

func (s *executionStage) Run(ctx context.Context, state *State) error {
	result, err := s.executor.Execute(ctx, state.Query)
	if err != nil {
		var stmtErr *sqlexec.StatementError
		if errors.As(err, &stmtErr) {
			observability.IncrementStatementErrors()
			state.ExecError = stmtErr.Message()
			return nil
		}
		return err
	}
	state.Result = &result
	return nil
}

type answerStage struct {
	answerer Answerer
}

func (s *answerStage) Name() string { return StageGenerateAnswer }

func (s *answerStage) Run(ctx context.Context, state *State) error {
	in := nl2sql.AnswerInput{
		Question:  state.Question,
		Query:     state.Query,
		ExecError: state.ExecError,
	}
	if state.Result != nil {
		in.Result = state.Result.Text()
	}
	answer, err := s.answerer.Answer(ctx, in)
	if err != nil {
		return err
	}
	state.Answer = answer
	return nil
}
