package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/coursehub/wishlist/pkg/errors"
)

// upstreamErrorBody covers the two error shapes course APIs return: the
// {"error":{"code","message"}} envelope and the {"detail": "..."} form.
type upstreamErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// error. The body is consumed and closed.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}

	var parsed upstreamErrorBody
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Error != nil:
			return mapUpstreamError(resp.StatusCode, parsed.Error.Code, parsed.Error.Message, upstream)
		case parsed.Detail != "":
			return mapUpstreamError(resp.StatusCode, "", parsed.Detail, upstream)
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NotFound(upstream, requestPath(resp))
	}
	msg := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 500 {
		return apperrors.Upstream(upstream, msg)
	}
	return fmt.Errorf("%s returned %s", upstream, msg)
}

func mapUpstreamError(status int, code, message, upstream string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return apperrors.Upstream(upstream, fmt.Sprintf("server error (%d/%s): %s", status, code, message))
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

func requestPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return "unknown"
	}
	return resp.Request.URL.Path
}
