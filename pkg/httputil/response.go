package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/coursehub/wishlist/pkg/errors"
	"github.com/coursehub/wishlist/pkg/logger"
	"github.com/coursehub/wishlist/pkg/validator"
)

// Response is the JSON envelope returned by every API endpoint.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// sentinelKinds maps bare sentinel errors (not wrapped in an AppError) onto
// client-facing codes and messages.
var sentinelKinds = []struct {
	target  error
	code    string
	message string
}{
	{apperrors.ErrNotFound, "NOT_FOUND", "resource not found"},
	{apperrors.ErrInvalidInput, "INVALID_INPUT", ""},
	{apperrors.ErrUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{apperrors.ErrConflict, "CONFLICT", "conflict"},
	{apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE", "service temporarily unavailable"},
	{apperrors.ErrUpstream, "UPSTREAM_ERROR", "course catalog request failed"},
}

// WriteError maps err onto an error envelope. AppErrors keep their code and
// message; bare sentinels get a generic message (invalid input keeps the
// error text) and anything else is an internal error. Every 5xx is logged
// with the request-scoped logger when one is available.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status := apperrors.HTTPStatus(err)
	body := &ErrorResponse{
		Code:      "INTERNAL_ERROR",
		Message:   "an internal error occurred",
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code, body.Message = appErr.Code, appErr.Message
	} else {
		for _, k := range sentinelKinds {
			if errors.Is(err, k.target) {
				body.Code, body.Message = k.code, k.message
				if body.Message == "" {
					body.Message = err.Error()
				}
				break
			}
		}
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

// WriteValidationError writes a 400 with per-field messages when err is a
// validator.ValidationError, or a plain INVALID_INPUT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}
