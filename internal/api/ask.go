package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bookrag/bookrag/internal/llm"
	"github.com/bookrag/bookrag/internal/nl2sql"
	"github.com/bookrag/bookrag/internal/observability"
	"github.com/bookrag/bookrag/internal/pipeline"
	"github.com/bookrag/bookrag/internal/schema"
	"github.com/bookrag/bookrag/internal/sqlexec"
)

// maxQuestionBytes bounds the /ask request body.
const maxQuestionBytes = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes))
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	start := time.Now()
	state, err := deps.Pipeline.Invoke(r.Context(), request.Question)
	observability.ObserveAsk(err, time.Since(start))
	if err != nil {
		status, code, retryable := classifyPipelineError(err)
		writeError(r.Context(), w, status, code, "failed to answer question", retryable, pipelineErrorContext(err))
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: state.Answer})
}

// classifyPipelineError maps a failed run to an HTTP status. Model failures are
// upstream (502). Database failures make the service unavailable (503)
// whichever stage hit them: introspection fails first when the database is down.
func classifyPipelineError(err error) (int, string, bool) {
	var statusErr *llm.StatusError
	var decodeErr *llm.DecodeError
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuestion):
		return http.StatusBadRequest, "QUESTION_REQUIRED", false
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "PIPELINE_TIMEOUT", true
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "MODEL_ERROR", statusErr.Retryable()
	case errors.As(err, &decodeErr), errors.Is(err, nl2sql.ErrEmptyQuery):
		return http.StatusBadGateway, "MODEL_OUTPUT_INVALID", true
	case errors.Is(err, schema.ErrUnavailable), errors.Is(err, sqlexec.ErrUnavailable):
		return http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", true
	default:
		return http.StatusInternalServerError, "PIPELINE_FAILED", false
	}
}

func pipelineErrorContext(err error) map[string]any {
	extra := map[string]any{"details": err.Error()}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		extra["stage"] = stageErr.Stage
	}
	return extra
}
