package apierr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wdm0006/datasweeper/internal/logging"
	"github.com/wdm0006/datasweeper/pkg/convert"
	sw "github.com/wdm0006/datasweeper/pkg/sweeper"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger *slog.Logger
}

func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger.With(slog.String("component", "error_handler"))}
}

// HandleError logs err and responds with its problem details.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	problem := h.ErrorToProblem(err, r)
	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	Write(w, problem)
}

// ErrorToProblem maps domain and transport errors onto problem details.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var (
		problem *ProblemDetails
		apiErr  *APIError
		maxErr  *http.MaxBytesError
	)
	path := r.URL.Path
	switch {
	case errors.As(err, &apiErr):
		problem = NewProblemDetails(apiErr.StatusCode, problemType(apiErr.StatusCode), http.StatusText(apiErr.StatusCode), apiErr.Message, path).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
	case errors.As(err, &maxErr):
		problem = NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			fmt.Sprintf("The request body exceeds the limit of %d bytes", maxErr.Limit), path)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		problem = NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path)
	case errors.Is(err, convert.ErrUnsupportedFormat):
		problem = NewProblemDetails(http.StatusUnsupportedMediaType, TypeUnsupportedFormat, "Unsupported File Type", err.Error(), path)
	case errors.Is(err, convert.ErrEmptyFile):
		problem = NewProblemDetails(http.StatusUnprocessableEntity, TypeEmptyFile, "Empty File", err.Error(), path)
	case errors.Is(err, convert.ErrMalformedFile):
		problem = NewProblemDetails(http.StatusUnprocessableEntity, TypeMalformedFile, "Malformed File", err.Error(), path)
	case errors.Is(err, sw.ErrUnknownColumn):
		problem = NewProblemDetails(http.StatusBadRequest, TypeUnknownColumn, "Unknown Column", err.Error(), path)
	case errors.Is(err, convert.ErrUnknownTarget):
		problem = NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", err.Error(), path)
	default:
		problem = NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
			"An unexpected error occurred while processing your request", path)
	}
	if _, ok := problem.Extensions["error_code"]; !ok {
		problem.WithExtension("error_code", convert.Outcome(err))
	}
	if id := logging.RequestID(r.Context()); id != "" {
		problem.WithExtension("request_id", id)
	}
	return problem
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return TypeValidation
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusMethodNotAllowed:
		return TypeMethodNotAllowed
	case http.StatusTooManyRequests:
		return TypeRateLimit
	case http.StatusUnprocessableEntity:
		return TypeBatchFailed
	}
	return TypeInternal
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, New(http.StatusNotFound, "NOT_FOUND", "The requested resource was not found"))
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.HandleError(w, r, New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method)))
}
