package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind classifies a failed Jira call.
type ErrorKind int

const (
	// KindClientRejected is a 4xx answer; the request itself was refused.
	KindClientRejected ErrorKind = iota + 1
	// KindUnavailable covers transport failures, timeouts and 5xx answers.
	KindUnavailable
	// KindMalformedResponse is a 2xx answer the client could not use.
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindClientRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that talks to Jira.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response arrived
	Message string // upstream message, safe to show to the user
	Field   string // first Jira field named by a rejection, if any
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("jira %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("jira %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// errorBody is the envelope Jira uses for REST errors.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// maxRawMessage bounds how many characters of a non-JSON error body are
// echoed back.
const maxRawMessage = 200

// errorFromResponse builds an Error for a non-2xx answer, flattening Jira's
// errorMessages and per-field errors into one message.
func errorFromResponse(status int, body []byte) *Error {
	e := &Error{Kind: KindClientRejected, Status: status}
	if status >= http.StatusInternalServerError {
		e.Kind = KindUnavailable
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		var parts []string
		for _, m := range parsed.ErrorMessages {
			if m = strings.TrimSpace(m); m != "" {
				parts = append(parts, m)
			}
		}

		fields := make([]string, 0, len(parsed.Errors))
		for f := range parsed.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f, parsed.Errors[f]))
		}
		if len(fields) > 0 {
			e.Field = fields[0]
		}
		e.Message = strings.Join(parts, "; ")
	}

	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
		if r := []rune(e.Message); len(r) > maxRawMessage {
			e.Message = string(r[:maxRawMessage])
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
