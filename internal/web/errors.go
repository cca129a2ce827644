package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/tablechat/internal/ai"
	"github.com/KaramelBytes/tablechat/internal/engine"
	"github.com/KaramelBytes/tablechat/internal/ingest"
)

// ErrNoDataset is returned when a request names a dataset id that was never
// uploaded, or whose upload failed. The UI treats it as "upload first".
var ErrNoDataset = errors.New("no data")

// errDegraded marks requests refused because the startup health check (or the
// last explicit probe) found the model endpoint unreachable.
var errDegraded = errors.New("model endpoint marked unavailable")

// badRequestError covers malformed inputs the handlers reject before any
// domain code runs: bad JSON, missing multipart parts.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) *badRequestError {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// mapError converts a handler error into the status, stable code, and
// user-visible message of the error envelope. model names the configured
// model inside the connection-failure and pull-hint messages.
func mapError(err error, model string) (status int, code string, message string) {
	var (
		badReq      *badRequestError
		loadFailed  *ingest.LoadError
		unreachable *ai.UnreachableError
		notFound    *ai.ModelNotFoundError
		planErr     *engine.PlanError
		execErr     *engine.ExecError
		apiErr      *ai.APIError
		serverErr   *ai.ServerError
		clientErr   *ai.BadRequestError
	)

	switch {
	case errors.Is(err, engine.ErrEmptyPrompt):
		return http.StatusBadRequest, "empty_prompt", engine.EmptyPromptMessage
	case errors.Is(err, ErrNoDataset):
		return http.StatusNotFound, "no_data", "No dataset loaded. Upload a file first."
	case errors.As(err, &badReq):
		return http.StatusBadRequest, "bad_request", badReq.msg
	case errors.As(err, &loadFailed):
		return http.StatusUnprocessableEntity, "load_failed", loadFailed.Error()
	case errors.As(err, &unreachable):
		return http.StatusServiceUnavailable, "ollama_unreachable", ai.ConnectionFailedMessage(model)
	case errors.As(err, &notFound):
		return http.StatusBadGateway, "model_not_found",
			fmt.Sprintf("Model '%s' is not available. Run 'ollama pull %s' and retry.", model, model)
	case errors.As(err, &planErr):
		return http.StatusUnprocessableEntity, "plan_invalid", planErr.Error()
	case errors.As(err, &execErr):
		return http.StatusUnprocessableEntity, "analysis_failed", execErr.Error()
	case errors.As(err, &serverErr), errors.As(err, &clientErr), errors.As(err, &apiErr):
		return http.StatusBadGateway, "model_error", err.Error()
	}
	return http.StatusInternalServerError, "internal", "internal server error"
}
