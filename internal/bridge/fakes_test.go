package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/tuannvm/jira-slack-bridge/internal/config"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
	"github.com/tuannvm/jira-slack-bridge/internal/options"
	"github.com/tuannvm/jira-slack-bridge/internal/slackapi"
	"github.com/tuannvm/jira-slack-bridge/internal/tokenstore"
)

type fakeJira struct {
	mu       sync.Mutex
	payloads []map[string]any
	ticket   *models.CreatedTicket
	err      error
	block    bool
}

func (f *fakeJira) CreateIssue(ctx context.Context, payload map[string]any) (*models.CreatedTicket, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.ticket, nil
}

func (f *fakeJira) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeIdentity struct {
	accounts map[string]string
	panics   bool
}

func (f *fakeIdentity) Resolve(ctx context.Context, teamID, userID string) string {
	if f.panics {
		panic("identity exploded")
	}
	return f.accounts[userID]
}

type fakeOptions struct {
	delay time.Duration
	last  options.Request
}

func (f *fakeOptions) Search(ctx context.Context, req options.Request) []models.Option {
	f.last = req
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if req.ActionID == models.LabelsAction && req.Query != "" {
		return []models.Option{{Label: req.Query, Value: req.Query}}
	}
	return []models.Option{}
}

type viewCall struct {
	token     string
	triggerID string
	viewID    string
	view      slack.ModalViewRequest
	ctxErr    error
}

type fakeViews struct {
	mu      sync.Mutex
	opened  []viewCall
	updates chan viewCall
	openErr error
	panics  bool
}

func newFakeViews() *fakeViews {
	return &fakeViews{updates: make(chan viewCall, 4)}
}

func (f *fakeViews) forToken(token string) ViewClient {
	if f.panics {
		panic("view client exploded")
	}
	return &tokenViews{fakeViews: f, token: token}
}

type tokenViews struct {
	*fakeViews
	token string
}

func (v *tokenViews) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.opened = append(v.opened, viewCall{token: v.token, triggerID: triggerID, view: view})
	return v.openErr
}

func (v *tokenViews) UpdateView(ctx context.Context, viewID, hash string, view slack.ModalViewRequest) error {
	v.updates <- viewCall{token: v.token, viewID: viewID, view: view, ctxErr: ctx.Err()}
	return nil
}

type fakeOAuth struct {
	inst *slackapi.Installation
	err  error
	code string
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*slackapi.Installation, error) {
	f.code = code
	if f.err != nil {
		return nil, f.err
	}
	return f.inst, nil
}

type harness struct {
	server   *Server
	cfg      *config.Config
	tokens   *tokenstore.MemoryStore
	jira     *fakeJira
	identity *fakeIdentity
	options  *fakeOptions
	views    *fakeViews
	oauth    *fakeOAuth
}

func testConfig() *config.Config {
	return &config.Config{
		SlackModalCallbackID: config.DefaultModalCallbackID,
		JiraBaseURL:          "https://example.atlassian.net",
		JiraProjectKey:       "BDP",
		JiraStartDateField:   "customfield_10015",
		JiraTeamField:        "customfield_10001",
		HTTPTimeout:          time.Second,
		SubmissionTimeout:    time.Second,
		SuggestionTimeout:    time.Second,
		DeferredTimeout:      time.Second,
	}
}

func newHarness(t *testing.T, configure func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	if configure != nil {
		configure(cfg)
	}

	h := &harness{
		cfg:    cfg,
		tokens: tokenstore.NewMemoryStore(),
		jira: &fakeJira{ticket: &models.CreatedTicket{
			Key: "BDP-7",
			URL: "https://example.atlassian.net/browse/BDP-7",
		}},
		identity: &fakeIdentity{accounts: map[string]string{"U42": "acc-42"}},
		options:  &fakeOptions{},
		views:    newFakeViews(),
		oauth:    &fakeOAuth{err: errors.New("not configured")},
	}
	h.server = NewServer(Deps{
		Config:   cfg,
		Tokens:   h.tokens,
		Jira:     h.jira,
		Identity: h.identity,
		Options:  h.options,
		Views:    h.views.forToken,
		OAuth:    h.oauth,
	})
	return h
}
