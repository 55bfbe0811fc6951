package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindNetwork covers transport failures: refused connections, timeouts,
	// cancelled contexts.
	KindNetwork Kind = iota + 1
	// KindDecode means a 2xx response whose body did not decode.
	KindDecode
	// KindStatus is a non-2xx response.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Error is the failure result of every Client method.
type Error struct {
	Kind   Kind
	Method string
	Path   string
	Status int    // HTTP status, KindStatus only
	Detail string // server supplied message, may be empty
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Detail != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Detail)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	default:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is a non-2xx response with the given code.
func IsStatus(err error, code int) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindStatus && apiErr.Status == code
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == k
}

// DetailOr returns the server's detail message when err carries one and
// fallback otherwise.
func DetailOr(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Kind == KindStatus && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// parseDetail extracts the detail field of an error body. The backend sends
// either {"detail": "..."} or a validation list
// {"detail": [{"loc": [...], "msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
