package interactive

import (
	"strings"

	"github.com/slack-go/slack"

	log "github.com/tuannvm/jira-slack-bridge/internal/logging"
)

// FieldKey addresses one input element of a modal.
type FieldKey struct {
	BlockID  string
	ActionID string
}

// ValueKind is the shape of a submitted element value.
type ValueKind int

const (
	// Absent means the element was not submitted or had no value.
	Absent ValueKind = iota
	// Text is a plain_text_input value.
	Text
	// SelectedOption is the value of a single select.
	SelectedOption
	// SelectedOptions are the values of a multi-select.
	SelectedOptions
	// SelectedUser is a Slack user id from a users_select.
	SelectedUser
	// SelectedDate is an ISO 8601 date from a datepicker.
	SelectedDate
)

// FieldValue holds exactly one shape of submitted value. Single-valued kinds
// use Str, SelectedOptions uses List.
type FieldValue struct {
	Kind ValueKind
	Str  string
	List []string
}

// TextValue returns a Text value.
func TextValue(s string) FieldValue { return FieldValue{Kind: Text, Str: s} }

// OptionValue returns a SelectedOption value.
func OptionValue(v string) FieldValue { return FieldValue{Kind: SelectedOption, Str: v} }

// UserValue returns a SelectedUser value.
func UserValue(id string) FieldValue { return FieldValue{Kind: SelectedUser, Str: id} }

// DateValue returns a SelectedDate value.
func DateValue(date string) FieldValue { return FieldValue{Kind: SelectedDate, Str: date} }

// OptionsValue returns a SelectedOptions value.
func OptionsValue(v ...string) FieldValue { return FieldValue{Kind: SelectedOptions, List: v} }

// IsEmpty reports whether the element carries no usable value.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case Absent:
		return true
	case SelectedOptions:
		return len(v.List) == 0
	default:
		return v.Str == ""
	}
}

// String renders the value; multi-selects are joined with commas.
func (v FieldValue) String() string {
	if v.Kind == SelectedOptions {
		return strings.Join(v.List, ",")
	}
	return v.Str
}

// FieldMap is the decoded state of a modal.
type FieldMap map[FieldKey]FieldValue

// Get returns the value at key, Absent when missing.
func (m FieldMap) Get(key FieldKey) FieldValue {
	if v, ok := m[key]; ok {
		return v
	}
	return FieldValue{}
}

// FieldsFromState converts a Slack view state into a FieldMap.
func FieldsFromState(state *slack.ViewState) FieldMap {
	fields := make(FieldMap)
	if state == nil {
		return fields
	}
	for blockID, actions := range state.Values {
		for actionID, action := range actions {
			fields[FieldKey{BlockID: blockID, ActionID: actionID}] = valueOf(action)
		}
	}
	return fields
}

// valueOf picks the variant from the element type Slack reports. Element
// types the bridge does not know are probed in a fixed order.
func valueOf(a slack.BlockAction) FieldValue {
	switch string(a.Type) {
	case string(slack.METPlainTextInput), "email_text_input", "url_text_input", "number_input":
		return TextValue(a.Value)
	case slack.OptTypeStatic, slack.OptTypeExternal, "radio_buttons":
		return OptionValue(a.SelectedOption.Value)
	case slack.MultiOptTypeStatic, slack.MultiOptTypeExternal, "checkboxes":
		return OptionsValue(optionValues(a.SelectedOptions)...)
	case slack.OptTypeUser:
		return UserValue(a.SelectedUser)
	case string(slack.METDatepicker):
		return DateValue(a.SelectedDate)
	}

	switch {
	case a.SelectedOption.Value != "":
		return OptionValue(a.SelectedOption.Value)
	case a.Value != "":
		return TextValue(a.Value)
	case a.SelectedDate != "":
		return DateValue(a.SelectedDate)
	case a.SelectedUser != "":
		return UserValue(a.SelectedUser)
	case len(a.SelectedOptions) > 0:
		return OptionsValue(optionValues(a.SelectedOptions)...)
	}
	return FieldValue{}
}

func optionValues(opts []slack.OptionBlockObject) []string {
	values := make([]string, 0, len(opts))
	for _, o := range opts {
		values = append(values, o.Value)
	}
	return values
}

// Extract returns the value at blockID/actionID as a string, or def when the
// element is missing or empty. Missing required elements are logged.
func Extract(fields FieldMap, blockID, actionID, def string, required bool) string {
	v := fields.Get(FieldKey{BlockID: blockID, ActionID: actionID})
	if v.IsEmpty() {
		if required {
			log.Warnf("Missing required field: %s/%s", blockID, actionID)
		}
		return def
	}
	return v.String()
}

// ExtractList returns the selected options of a multi-select in source order.
func ExtractList(fields FieldMap, blockID, actionID string) []string {
	v := fields.Get(FieldKey{BlockID: blockID, ActionID: actionID})
	if v.Kind != SelectedOptions || len(v.List) == 0 {
		return nil
	}
	out := make([]string, len(v.List))
	copy(out, v.List)
	return out
}

// ExtractLabels reads a labels element that is either comma separated free
// text or a multi-select, trimming entries and dropping empties and repeats.
// First-seen order is kept.
func ExtractLabels(fields FieldMap, blockID, actionID string) []string {
	v := fields.Get(FieldKey{BlockID: blockID, ActionID: actionID})
	var parts []string
	switch v.Kind {
	case Absent:
		return nil
	case SelectedOptions:
		parts = v.List
	default:
		parts = strings.Split(v.Str, ",")
	}

	var labels []string
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" && !seen[p] {
			seen[p] = true
			labels = append(labels, p)
		}
	}
	return labels
}
