package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jira-slack-bridge/internal/config"
	"github.com/tuannvm/jira-slack-bridge/internal/jira"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// submission renders a view_submission of the ticket modal. values holds
// raw JSON element states keyed by block id; each block uses the action id
// of its block.
func submission(values map[string]string) string {
	var blocks []string
	for block, state := range values {
		action := strings.TrimSuffix(block, "_block")
		blocks = append(blocks, fmt.Sprintf(`%q:{%q:%s}`, block, action, state))
	}
	return fmt.Sprintf(`{
	  "type": "view_submission",
	  "team": {"id": "T1"},
	  "user": {"id": "U1"},
	  "view": {
	    "id": "V1",
	    "hash": "h1",
	    "callback_id": "jira_ticket_modal",
	    "state": {"values": {%s}}
	  }
	}`, strings.Join(blocks, ","))
}

func text(v string) string   { return fmt.Sprintf(`{"type":"plain_text_input","value":%q}`, v) }
func option(v string) string { return fmt.Sprintf(`{"type":"static_select","selected_option":{"value":%q}}`, v) }

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("payload="+url.QueryEscape(body)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type submissionResponse struct {
	ResponseAction string            `json:"response_action"`
	Errors         map[string]string `json:"errors"`
	View           struct {
		Title struct {
			Text string `json:"text"`
		} `json:"title"`
		Blocks []struct {
			Text struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"blocks"`
	} `json:"view"`
}

func decodeSubmission(t *testing.T, rec *httptest.ResponseRecorder) submissionResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp submissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmissionEmptySummary(t *testing.T) {
	h := newHarness(t, nil)

	rec := post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text(""),
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response_action":"errors","errors":{"summary_block":"Summary is required"}}`, rec.Body.String())
	assert.Zero(t, h.jira.calls())
}

func TestSubmissionMissingProjectReportedFirst(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.JiraProjectKey = ""
		c.JiraProjects = []string{"BDP", "OPS"}
	})

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"summary_block": text(""),
	})))

	assert.Equal(t, "errors", resp.ResponseAction)
	assert.Equal(t, map[string]string{"project_block": "Project is required"}, resp.Errors)
	assert.Zero(t, h.jira.calls())
}

func TestSubmissionCreatesTicket(t *testing.T) {
	h := newHarness(t, nil)

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block":    option("BDP"),
		"issue_type_block": option("Bug"),
		"summary_block":    text("Login fails"),
		"priority_block":   option("High"),
		"labels_block":     text("bug, urgent"),
		"assignee_block":   `{"type":"users_select","selected_user":"U42"}`,
	})))

	assert.Equal(t, "update", resp.ResponseAction)
	assert.Equal(t, "Ticket Created", resp.View.Title.Text)
	require.Len(t, resp.View.Blocks, 1)
	assert.Contains(t, resp.View.Blocks[0].Text.Text, "https://example.atlassian.net/browse/BDP-7")

	require.Equal(t, 1, h.jira.calls())
	fields := h.jira.payloads[0]["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"key": "BDP"}, fields["project"])
	assert.Equal(t, map[string]any{"name": "Bug"}, fields["issuetype"])
	assert.Equal(t, "Login fails", fields["summary"])
	assert.Equal(t, map[string]any{"name": "High"}, fields["priority"])
	assert.Equal(t, []string{"bug", "urgent"}, fields["labels"])
	assert.Equal(t, map[string]any{"accountId": "acc-42"}, fields["assignee"])
	for _, absent := range []string{"description", "parent", "components", "duedate", "customfield_10015", "customfield_10001"} {
		assert.NotContains(t, fields, absent)
	}
}

func TestSubmissionJiraRejection(t *testing.T) {
	fakeJira := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":{"summary":"too long"}}`))
	}))
	defer fakeJira.Close()

	h := newHarness(t, nil)
	client, err := jira.NewClient(&config.Config{
		JiraBaseURL:  fakeJira.URL,
		JiraEmail:    "bot@example.com",
		JiraAPIToken: "token",
		HTTPTimeout:  time.Second,
	})
	require.NoError(t, err)
	h.server.jira = client

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text(strings.Repeat("x", 300)),
	})))

	assert.Equal(t, "errors", resp.ResponseAction)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors["summary_block"], "too long")
	assert.True(t, strings.HasPrefix(resp.Errors["summary_block"], "Failed to create ticket: "))
}

func TestSubmissionJiraFieldErrorTargetsBlock(t *testing.T) {
	h := newHarness(t, nil)
	h.jira.err = &jira.Error{Kind: jira.KindClientRejected, Status: 400, Message: "customfield_10001: invalid team", Field: "customfield_10001"}

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("s"),
	})))

	assert.Equal(t, map[string]string{"team_block": "Failed to create ticket: customfield_10001: invalid team"}, resp.Errors)
}

func TestSubmissionTimeout(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.SubmissionTimeout = 50 * time.Millisecond })
	h.jira.block = true

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))

	assert.Equal(t, "errors", resp.ResponseAction)
	assert.Contains(t, resp.Errors["summary_block"], "did not answer in time")
}

func TestSubmissionPanicIsReported(t *testing.T) {
	h := newHarness(t, nil)
	h.identity.panics = true

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))

	assert.Equal(t, map[string]string{"summary_block": "Failed to create ticket: unexpected error"}, resp.Errors)
	assert.Zero(t, h.jira.calls())
}

func TestSubmissionWithoutTicketIsReported(t *testing.T) {
	h := newHarness(t, nil)
	h.jira.ticket = nil

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))

	assert.Equal(t, map[string]string{"summary_block": "Failed to create ticket: unexpected error"}, resp.Errors)
}

func TestSubmissionPanicOutsideCreationIsReported(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.DeferredUpdate = true })
	h.views.panics = true
	require.NoError(t, h.tokens.Put(context.Background(), "T1", "xoxb-1"))

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))

	assert.Equal(t, "errors", resp.ResponseAction)
	assert.Equal(t, map[string]string{"summary_block": "Failed to create ticket: unexpected error"}, resp.Errors)
	assert.Zero(t, h.jira.calls())
}

func TestSubmissionDeferred(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.DeferredUpdate = true })
	require.NoError(t, h.tokens.Put(context.Background(), "T1", "xoxb-1"))

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))
	assert.Equal(t, "update", resp.ResponseAction)
	assert.Equal(t, "Creating Ticket", resp.View.Title.Text)

	select {
	case call := <-h.views.updates:
		assert.Equal(t, "xoxb-1", call.token)
		assert.Equal(t, "V1", call.viewID)
		assert.Equal(t, "Ticket Created", call.view.Title.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("view was not updated")
	}
	h.server.background.Wait()
	assert.Equal(t, 1, h.jira.calls())
}

func TestSubmissionDeferredUpdateAfterCreationDeadline(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.DeferredUpdate = true
		c.DeferredTimeout = 50 * time.Millisecond
	})
	h.jira.block = true
	require.NoError(t, h.tokens.Put(context.Background(), "T1", "xoxb-1"))

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))
	assert.Equal(t, "Creating Ticket", resp.View.Title.Text)

	select {
	case call := <-h.views.updates:
		assert.NoError(t, call.ctxErr)
		assert.Equal(t, "V1", call.viewID)
		assert.Equal(t, "Ticket Not Created", call.view.Title.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("view was not updated")
	}
	h.server.background.Wait()
}

func TestSubmissionDeferredWithoutTokenRunsInline(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.DeferredUpdate = true })

	resp := decodeSubmission(t, post(t, h.server.Handler(), "/slack/interactive", submission(map[string]string{
		"project_block": option("BDP"),
		"summary_block": text("Login fails"),
	})))

	assert.Equal(t, "Ticket Created", resp.View.Title.Text)
	assert.Equal(t, 1, h.jira.calls())
}

func TestInteractiveIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t, nil)

	for _, body := range []string{
		`{"type":"view_submission","team":{"id":"T1"},"view":{"callback_id":"another_modal","state":{"values":{}}}}`,
		`{"type":"block_actions","team":{"id":"T1"}}`,
	} {
		rec := post(t, h.server.Handler(), "/slack/interactive", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "{}", rec.Body.String())
	}
	assert.Zero(t, h.jira.calls())
}

func TestInteractiveMalformedPayload(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/interactive", strings.NewReader("payload=%7Bnot-json"))
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed interaction payload")
}

func TestInteractiveRejectsGet(t *testing.T) {
	h := newHarness(t, nil)

	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/interactive", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func suggestion(actionID, query string) string {
	return fmt.Sprintf(`{
	  "type": "block_suggestion",
	  "team": {"id": "T1"},
	  "action_id": %q,
	  "block_id": %q,
	  "value": %q,
	  "view": {"state": {"values": {"project_block": {"project": {"type": "static_select", "selected_option": {"value": "OPS"}}}}}}
	}`, actionID, actionID+"_block", query)
}

func TestSuggestionLabels(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/slack/options", "/slack/interactive"} {
		rec := post(t, h.server.Handler(), path, suggestion(models.LabelsAction, "perf"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"options":[{"text":{"type":"plain_text","text":"perf"},"value":"perf"}]}`, rec.Body.String())
	}
	assert.Equal(t, "OPS", h.options.last.ProjectKey)
}

func TestSuggestionTimeout(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.SuggestionTimeout = 20 * time.Millisecond })
	h.options.delay = 200 * time.Millisecond

	rec := post(t, h.server.Handler(), "/slack/options", suggestion(models.LabelsAction, "perf"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"options":[]}`, rec.Body.String())
}

func TestOptionsEndpointAcknowledgesSubmissions(t *testing.T) {
	h := newHarness(t, nil)

	rec := post(t, h.server.Handler(), "/slack/options", submission(map[string]string{"summary_block": text("x")}))
	assert.Equal(t, "{}", rec.Body.String())
	assert.Zero(t, h.jira.calls())
}
