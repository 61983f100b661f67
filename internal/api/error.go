package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized is wrapped by every 401 response. The session has already
// been torn down when a caller sees it.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Detail  string
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	if reason := e.Reason(); reason != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, reason)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// Reason is the human-readable cause the backend gave: detail first, then message.
func (e *Error) Reason() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Reason extracts the backend's reason from err, or returns fallback.
func Reason(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if reason := apiErr.Reason(); reason != "" {
			return reason
		}
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0 for transport errors.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status, Body: body}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	e.Message = payload.Message
	e.Detail = flattenDetail(payload.Detail)
	return e
}

// flattenDetail accepts FastAPI's detail shapes: a string, a validation
// array of {msg}, or an object carrying msg/message.
func flattenDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	type item struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	var list []item
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, it := range list {
			if it.Msg != "" {
				return it.Msg
			}
			if it.Message != "" {
				return it.Message
			}
		}
		return ""
	}

	var obj item
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Msg != "" {
			return obj.Msg
		}
		return obj.Message
	}
	return ""
}
