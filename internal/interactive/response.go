package interactive

import (
	"fmt"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// maxOptionText is Slack's limit for the text of a select option.
const maxOptionText = 75

// Acknowledgement is the body returned for events the bridge does not act on.
var Acknowledgement = []byte("{}")

// OptionsResponse is the block_suggestion reply. Unlike slack.OptionsResponse
// it always renders the options key, even for an empty list.
type OptionsResponse struct {
	Options []*slack.OptionBlockObject `json:"options"`
}

// SubmissionSuccess replaces the modal with a confirmation linking the ticket.
func SubmissionSuccess(ticketURL string) *slack.ViewSubmissionResponse {
	view := SuccessView(ticketURL)
	return slack.NewUpdateViewSubmissionResponse(&view)
}

// SubmissionError points Slack at a single invalid block.
func SubmissionError(blockID, message string) *slack.ViewSubmissionResponse {
	return slack.NewErrorsViewSubmissionResponse(map[string]string{blockID: message})
}

// SubmissionPending acknowledges a submission whose ticket is created later.
func SubmissionPending() *slack.ViewSubmissionResponse {
	view := PendingView()
	return slack.NewUpdateViewSubmissionResponse(&view)
}

// Suggestions renders options in the given order.
func Suggestions(opts []models.Option) OptionsResponse {
	out := OptionsResponse{Options: make([]*slack.OptionBlockObject, 0, len(opts))}
	for _, o := range opts {
		out.Options = append(out.Options, &slack.OptionBlockObject{
			Text:  &slack.TextBlockObject{Type: slack.PlainTextType, Text: truncate(o.Label, maxOptionText)},
			Value: o.Value,
		})
	}
	return out
}

// SuccessView is the modal shown once the ticket exists.
func SuccessView(ticketURL string) slack.ModalViewRequest {
	return resultView("Ticket Created", fmt.Sprintf("Your ticket is ready: <%s|View Ticket>", ticketURL))
}

// FailureView is the modal shown when a deferred creation failed.
func FailureView(message string) slack.ModalViewRequest {
	return resultView("Ticket Not Created", fmt.Sprintf(":warning: Failed to create ticket: %s", message))
}

// PendingView is the placeholder shown while a deferred creation runs.
func PendingView() slack.ModalViewRequest {
	return resultView("Creating Ticket", ":hourglass_flowing_sand: Creating your Jira ticket...")
}

func resultView(title, text string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject(slack.PlainTextType, title, false, false),
		Close: slack.NewTextBlockObject(slack.PlainTextType, "Close", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
			},
		},
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
