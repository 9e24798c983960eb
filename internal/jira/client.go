package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	v3 "github.com/ctreminiom/go-atlassian/v2/jira/v3"
	"github.com/tidwall/gjson"

	"github.com/tuannvm/jira-slack-bridge/internal/config"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// Client represents a Jira API client
type Client struct {
	api     *v3.Client
	baseURL string
}

// NewClient creates a new Jira client authenticated with email and API token.
func NewClient(cfg *config.Config) (*Client, error) {
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	api, err := v3.New(httpClient, cfg.JiraBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}
	api.Auth.SetBasicAuth(cfg.JiraEmail, cfg.JiraAPIToken)

	return &Client{api: api, baseURL: cfg.JiraBaseURL}, nil
}

// CreateIssue creates an issue from a payload built by BuildIssuePayload.
func (c *Client) CreateIssue(ctx context.Context, payload map[string]any) (*models.CreatedTicket, error) {
	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := c.call(ctx, http.MethodPost, "rest/api/3/issue", payload, &created); err != nil {
		return nil, err
	}
	if created.Key == "" {
		return nil, &Error{Kind: KindMalformedResponse, Status: http.StatusCreated, Message: "response has no issue key"}
	}

	return &models.CreatedTicket{
		Key: created.Key,
		URL: fmt.Sprintf("%s/browse/%s", c.baseURL, created.Key),
	}, nil
}

// FindAccountIDByEmail returns the account id of the first user matching
// email, or "" when nobody matches.
func (c *Client) FindAccountIDByEmail(ctx context.Context, email string) (string, error) {
	var users []struct {
		AccountID string `json:"accountId"`
	}
	path := "rest/api/3/user/search?query=" + url.QueryEscape(email)
	if err := c.call(ctx, http.MethodGet, path, nil, &users); err != nil {
		return "", err
	}
	for _, u := range users {
		if u.AccountID != "" {
			return u.AccountID, nil
		}
	}
	return "", nil
}

// ProjectComponents lists the component names of a project.
func (c *Client) ProjectComponents(ctx context.Context, projectKey string) ([]string, error) {
	var components []struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("rest/api/3/project/%s/components", url.PathEscape(projectKey))
	if err := c.call(ctx, http.MethodGet, path, nil, &components); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(components))
	for _, comp := range components {
		if comp.Name != "" {
			names = append(names, comp.Name)
		}
	}
	return names, nil
}

// SearchIssues runs a JQL search and returns the raw response document.
func (c *Client) SearchIssues(ctx context.Context, jql string, fields []string, maxResults int) ([]byte, error) {
	body := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
		"fields":     fields,
	}

	raw, err := c.send(ctx, http.MethodPost, "rest/api/3/search/jql", body)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, &Error{Kind: KindMalformedResponse, Status: http.StatusOK, Message: "search response is not valid JSON"}
	}
	return raw, nil
}

// call sends a request and decodes a 2xx answer into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindMalformedResponse, Status: http.StatusOK, Message: "failed to decode response", Err: err}
	}
	return nil
}

// send performs the request and returns the body of a 2xx answer. Every
// failure is reported as an *Error.
func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	req, err := c.api.NewRequest(ctx, method, path, "", body)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Message: "failed to create request", Err: err}
	}

	res, err := c.api.Call(req, nil)
	if res == nil || res.Code == 0 {
		if err == nil {
			err = errors.New("no response")
		}
		msg := "Jira is unreachable"
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			msg = "Jira did not answer in time"
		}
		return nil, &Error{Kind: KindUnavailable, Message: msg, Err: err}
	}

	raw := res.Bytes.Bytes()
	if res.Code < http.StatusOK || res.Code >= http.StatusMultipleChoices {
		e := errorFromResponse(res.Code, raw)
		e.Err = err
		return nil, e
	}
	return raw, nil
}
