package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"carpool/internal/repositories/interfaces"
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: status %d: %s", e.Operation, e.StatusCode, truncate(e.Body, 200))
}

// Is lets callers test a 404 with errors.Is(err, interfaces.ErrNotFound).
func (e *Error) Is(target error) bool {
	return target == interfaces.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client reports whether the backend rejected the request itself.
func (e *Error) Client() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Message extracts the backend's error message from a JSON body, if any.
func (e *Error) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(e.StatusCode)
}

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
