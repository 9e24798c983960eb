package interactive

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

func TestSuggestionsEchoLabel(t *testing.T) {
	body, err := json.Marshal(Suggestions([]models.Option{{Label: "perf", Value: "perf"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"options":[{"text":{"type":"plain_text","text":"perf"},"value":"perf"}]}`, string(body))
}

func TestSuggestionsKeepOrderAndRenderEmpty(t *testing.T) {
	resp := Suggestions([]models.Option{{Label: "b", Value: "2"}, {Label: "a", Value: "1"}})
	require.Len(t, resp.Options, 2)
	assert.Equal(t, "2", resp.Options[0].Value)
	assert.Equal(t, "1", resp.Options[1].Value)

	body, err := json.Marshal(Suggestions(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"options":[]}`, string(body))
}

func TestSuggestionsTruncateLongLabels(t *testing.T) {
	resp := Suggestions([]models.Option{{Label: strings.Repeat("x", 120), Value: "v"}})
	assert.Equal(t, maxOptionText, len([]rune(resp.Options[0].Text.Text)))
	assert.Equal(t, "v", resp.Options[0].Value)
}

func TestSubmissionError(t *testing.T) {
	body, err := json.Marshal(SubmissionError("summary_block", "Summary is required"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"response_action":"errors","errors":{"summary_block":"Summary is required"}}`, string(body))
}

func TestSubmissionSuccess(t *testing.T) {
	body, err := json.Marshal(SubmissionSuccess("https://example.atlassian.net/browse/BDP-7"))
	require.NoError(t, err)

	var got struct {
		ResponseAction string `json:"response_action"`
		View           struct {
			Type  string `json:"type"`
			Title struct {
				Text string `json:"text"`
			} `json:"title"`
			Blocks []struct {
				Type string `json:"type"`
				Text struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"text"`
			} `json:"blocks"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(body, &got))

	assert.Equal(t, "update", got.ResponseAction)
	assert.Equal(t, "modal", got.View.Type)
	assert.Equal(t, "Ticket Created", got.View.Title.Text)
	require.Len(t, got.View.Blocks, 1)
	assert.Equal(t, "section", got.View.Blocks[0].Type)
	assert.Equal(t, "mrkdwn", got.View.Blocks[0].Text.Type)
	assert.Equal(t, "Your ticket is ready: <https://example.atlassian.net/browse/BDP-7|View Ticket>", got.View.Blocks[0].Text.Text)
}
