package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a response with a non-2xx status.
type APIError struct {
	StatusCode int
	// Detail is the server-provided message, if any.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unauthorized reports a rejected bearer token or login.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Detail extracts the server-provided detail message from err, if any.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Detail: parseDetail(body)}
}

// parseDetail understands {"detail": "..."}, {"detail": [{"msg": ...}]} and
// {"error": ..., "message": ...} bodies.
func parseDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
