// Package interactive decodes Slack interactivity payloads (modal submissions
// and external-select suggestion requests) and renders the responses Slack
// expects back on the same HTTP round trip.
package interactive

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/slack-go/slack"
)

const payloadPrefix = "payload="

// Kind classifies a decoded envelope.
type Kind int

const (
	// KindIgnored is any event the bridge acknowledges and drops.
	KindIgnored Kind = iota
	// KindSubmission is a view_submission of the ticket modal.
	KindSubmission
	// KindSuggestion is a block_suggestion for an external select.
	KindSuggestion
)

func (k Kind) String() string {
	switch k {
	case KindSubmission:
		return "submission"
	case KindSuggestion:
		return "suggestion"
	default:
		return "ignored"
	}
}

// Event is the typed form of an inbound envelope.
type Event struct {
	Kind Kind
	Type slack.InteractionType

	TeamID string
	UserID string

	// Submission
	CallbackID string
	ViewID     string
	ViewHash   string
	Fields     FieldMap

	// Suggestion
	ActionID          string
	BlockID           string
	Query             string
	ContextProjectKey string
}

// DecodeError reports an envelope that could not be unwrapped or parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed interaction payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder turns raw request bodies into Events.
type Decoder struct {
	// CallbackID is the callback_id of the ticket modal; other submissions are ignored.
	CallbackID string
	// ProjectField locates the project select inside a view state, used as
	// suggestion context.
	ProjectField FieldKey
}

// Unwrap returns the JSON document carried by body. A form-encoded body has
// its leading "payload=" removed once and is then URL-decoded; a literal JSON
// object is returned untouched.
func Unwrap(body []byte) (string, error) {
	raw := strings.TrimSpace(string(body))
	switch {
	case strings.HasPrefix(raw, payloadPrefix):
		raw = strings.TrimPrefix(raw, payloadPrefix)
	case strings.HasPrefix(raw, "{"):
		return raw, nil
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	return decoded, nil
}

// Decode unwraps, parses and classifies an envelope.
func (d Decoder) Decode(body []byte) (Event, error) {
	doc, err := Unwrap(body)
	if err != nil {
		return Event{}, err
	}
	if doc == "" {
		return Event{}, &DecodeError{Err: fmt.Errorf("empty body")}
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(doc), &cb); err != nil {
		return Event{}, &DecodeError{Err: err}
	}

	ev := Event{
		Kind:   KindIgnored,
		Type:   cb.Type,
		TeamID: cb.Team.ID,
		UserID: cb.User.ID,
	}

	switch cb.Type {
	case slack.InteractionTypeViewSubmission:
		ev.CallbackID = cb.View.CallbackID
		if ev.CallbackID != d.CallbackID {
			return ev, nil
		}
		ev.Kind = KindSubmission
		ev.ViewID = cb.View.ID
		ev.ViewHash = cb.View.Hash
		ev.Fields = FieldsFromState(cb.View.State)
	case slack.InteractionTypeBlockSuggestion:
		ev.Kind = KindSuggestion
		ev.ActionID = cb.ActionID
		ev.BlockID = cb.BlockID
		ev.Query = cb.Value
		if d.ProjectField.ActionID != "" {
			ev.ContextProjectKey = FieldsFromState(cb.View.State).Get(d.ProjectField).String()
		}
	}
	return ev, nil
}
