package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is matched by any backend 401 answer.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrNotFound is matched by any backend 404 answer.
	ErrNotFound = errors.New("api: not found")
	// ErrUnavailable wraps transport failures where no answer was received.
	ErrUnavailable = errors.New("api: backend unreachable")
)

// Error is a non-2xx answer from the Favo backend.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Detail)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// newError builds an Error from a response body. FastAPI puts the reason in
// "detail", either as a string or as a list of validation entries.
func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		e.Detail = strings.TrimSpace(string(body))
		return e
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		e.Detail = s
		return e
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, l := range list {
			if l.Msg != "" {
				msgs = append(msgs, l.Msg)
			}
		}
		e.Detail = strings.Join(msgs, "; ")
		return e
	}
	e.Detail = string(payload.Detail)
	return e
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// DetailOf returns the backend detail carried by err, or "".
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
