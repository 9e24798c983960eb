// Package slackapi wraps the Slack Web API calls the bridge makes on behalf of
// an installed workspace.
package slackapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
)

// Factory builds per-workspace clients sharing one HTTP client.
type Factory struct {
	apiURL     string
	httpClient *http.Client
}

// NewFactory returns a Factory. apiURL overrides the Slack endpoint and is
// empty in production.
func NewFactory(apiURL string, httpClient *http.Client) *Factory {
	if apiURL != "" && !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Factory{apiURL: apiURL, httpClient: httpClient}
}

// ForToken returns a client authenticated with a bot token.
func (f *Factory) ForToken(token string) *Client {
	opts := []slack.Option{slack.OptionHTTPClient(f.httpClient)}
	if f.apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(f.apiURL))
	}
	return &Client{api: slack.New(token, opts...)}
}

// Client is a Slack Web API client bound to one workspace token.
type Client struct {
	api *slack.Client
}

// UserEmail returns the profile email of a user, "" when the profile has none.
func (c *Client) UserEmail(ctx context.Context, userID string) (string, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("users.info %s: %w", userID, err)
	}
	return user.Profile.Email, nil
}

// OpenView opens a modal for the user behind triggerID.
func (c *Client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("views.open: %w", describe(err))
	}
	return nil
}

// UpdateView replaces an open modal. hash guards against overwriting a view
// the user changed in the meantime.
func (c *Client) UpdateView(ctx context.Context, viewID, hash string, view slack.ModalViewRequest) error {
	if _, err := c.api.UpdateViewContext(ctx, view, "", hash, viewID); err != nil {
		return fmt.Errorf("views.update: %w", describe(err))
	}
	return nil
}

// describe appends Slack's per-field messages, which the plain error omits.
func describe(err error) error {
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) && len(slackErr.ResponseMetadata.Messages) > 0 {
		return fmt.Errorf("%w (%s)", err, strings.Join(slackErr.ResponseMetadata.Messages, "; "))
	}
	return err
}

// Installation is the result of an OAuth v2 exchange.
type Installation struct {
	TeamID   string
	TeamName string
	BotToken string
}

// ExchangeCode trades an OAuth authorization code for a bot token.
func (f *Factory) ExchangeCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*Installation, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, f.httpClient, clientID, clientSecret, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("oauth.v2.access: %w", err)
	}
	if resp.Team.ID == "" || resp.AccessToken == "" {
		return nil, errors.New("oauth.v2.access: response has no team or token")
	}
	return &Installation{
		TeamID:   resp.Team.ID,
		TeamName: resp.Team.Name,
		BotToken: resp.AccessToken,
	}, nil
}
