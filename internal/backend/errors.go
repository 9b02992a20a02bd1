package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed backend call.
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindAuth        ErrorKind = "auth"
	KindRateLimited ErrorKind = "rate_limited"
	KindNotFound    ErrorKind = "not_found"
	KindValidation  ErrorKind = "validation"
	KindServer      ErrorKind = "server"
	KindUnknown     ErrorKind = "unknown"
)

// Error is the single record returned when a call fails, carrying the kind
// and message of the last observed failure plus the number of attempts that
// were made. Intermediate failures are never aggregated.
type Error struct {
	Kind     ErrorKind
	Message  string
	Status   int
	Attempts int
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d after %d attempt(s))", e.Kind, e.Message, e.Status, e.Attempts)
	}
	return fmt.Sprintf("%s: %s (after %d attempt(s))", e.Kind, e.Message, e.Attempts)
}

// classifyStatus maps an HTTP status to the error taxonomy. Statuses below
// 400 never reach it.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// errorMessage digs a human-readable message out of an error response body.
// The wrapped products answer either {"message": ...}, {"error": ...}, or a
// validation array [{"errorMessage": ...}].
func errorMessage(status int, body []byte) string {
	var single struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &single); err == nil {
		if single.Message != "" {
			return single.Message
		}
		if single.Error != "" {
			return single.Error
		}
	}
	var multi []struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &multi); err == nil && len(multi) > 0 && multi[0].ErrorMessage != "" {
		return multi[0].ErrorMessage
	}
	return http.StatusText(status)
}
