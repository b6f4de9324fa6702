package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bookrag/bookrag/internal/nl2sql"
)

type translateRequest struct {
	Question string `json:"question"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Introspector == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema introspection is not configured", false, nil)
		return
	}
	info, err := deps.Introspector.TableInfo(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_FETCH_FAILED", "failed to load schema context", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dialect":    deps.Introspector.Dialect(),
		"table_info": info,
	})
}

// handleTranslateQuery returns the synthesized SQL without executing it.
func handleTranslateQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryTranslator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "query translation is not configured", false, nil)
		return
	}

	var req translateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	result, err := deps.QueryTranslator.Translate(r.Context(), nl2sql.Request{Question: req.Question})
	if err != nil {
		status, code, retryable := classifyPipelineError(err)
		if status == http.StatusInternalServerError {
			status, code, retryable = http.StatusBadGateway, "TRANSLATE_FAILED", true
		}
		writeError(r.Context(), w, status, code, "failed to translate question", retryable, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sql":      result.SQL,
		"provider": result.Provider,
		"model":    result.Model,
	})
}
