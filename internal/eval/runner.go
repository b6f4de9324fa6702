package eval

import (
	"context"
	"log/slog"
	"time"
)

// Target answers a question; the pipeline graph satisfies it.
type Target interface {
	Run(ctx context.Context, question string) (string, error)
}

type Row struct {
	Question               string `parquet:"question"`
	ReferenceAnswer        string `parquet:"reference_answer"`
	Answer                 string `parquet:"answer"`
	Correct                bool   `parquet:"correct"`
	CorrectnessExplanation string `parquet:"correctness_explanation"`
	Relevant               bool   `parquet:"relevant"`
	RelevanceExplanation   string `parquet:"relevance_explanation"`
	Error                  string `parquet:"error"`
	LatencyMS              int64  `parquet:"latency_ms"`
}

type Report struct {
	RunID string
	Rows  []Row
}

func (r Report) Accuracy() float64 {
	return rate(r.Rows, func(row Row) bool { return row.Correct })
}

func (r Report) RelevanceRate() float64 {
	return rate(r.Rows, func(row Row) bool { return row.Relevant })
}

func rate(rows []Row, ok func(Row) bool) float64 {
	if len(rows) == 0 {
		return 0
	}
	hits := 0
	for _, row := range rows {
		if ok(row) {
			hits++
		}
	}
	return float64(hits) / float64(len(rows))
}

type Runner struct {
	Target Target
	Judge  *Judge
	Logger *slog.Logger
}

// Run answers and grades every example sequentially. A failing example is
// recorded with its error and counted as neither correct nor relevant; only
// context cancellation stops the run.
func (r *Runner) Run(ctx context.Context, runID string, examples []Example) (Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := Report{RunID: runID, Rows: make([]Row, 0, len(examples))}
	for i, example := range examples {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		row := r.evaluate(ctx, example)
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Rows = append(report.Rows, row)
		logger.InfoContext(ctx, "eval_example_graded",
			slog.String("run_id", runID),
			slog.Int("index", i+1),
			slog.Int("total", len(examples)),
			slog.Bool("correct", row.Correct),
			slog.Bool("relevant", row.Relevant),
			slog.String("error", row.Error),
		)
	}
	logger.InfoContext(ctx, "eval_run_completed",
		slog.String("run_id", runID),
		slog.Int("examples", len(report.Rows)),
		slog.Float64("accuracy", report.Accuracy()),
		slog.Float64("relevance_rate", report.RelevanceRate()),
	)
	return report, nil
}

func (r *Runner) evaluate(ctx context.Context, example Example) Row {
	row := Row{Question: example.Question, ReferenceAnswer: example.Answer}
	start := time.Now()
	answer, err := r.Target.Run(ctx, example.Question)
	row.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Answer = answer

	correctness, err := r.Judge.Correctness(ctx, example.Question, example.Answer, answer)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Correct = correctness.Correct
	row.CorrectnessExplanation = correctness.Explanation

	relevance, err := r.Judge.Relevance(ctx, example.Question, answer)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Relevant = relevance.Relevant
	row.RelevanceExplanation = relevance.Explanation
	return row
}
