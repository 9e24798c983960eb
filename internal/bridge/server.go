// Package bridge serves the Slack endpoints: modal submissions, option
// searches, the slash command and the OAuth install callback.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"github.com/tuannvm/jira-slack-bridge/internal/config"
	"github.com/tuannvm/jira-slack-bridge/internal/interactive"
	"github.com/tuannvm/jira-slack-bridge/internal/jira"
	log "github.com/tuannvm/jira-slack-bridge/internal/logging"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
	"github.com/tuannvm/jira-slack-bridge/internal/options"
	"github.com/tuannvm/jira-slack-bridge/internal/slackapi"
	"github.com/tuannvm/jira-slack-bridge/internal/ticket"
	"github.com/tuannvm/jira-slack-bridge/internal/tokenstore"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// TicketCreator creates Jira issues.
type TicketCreator interface {
	CreateIssue(ctx context.Context, payload map[string]any) (*models.CreatedTicket, error)
}

// AssigneeResolver maps a Slack user to a Jira account id.
type AssigneeResolver interface {
	Resolve(ctx context.Context, teamID, userID string) string
}

// OptionSearcher answers external select searches.
type OptionSearcher interface {
	Search(ctx context.Context, req options.Request) []models.Option
}

// ViewClient opens and updates modals with a workspace token.
type ViewClient interface {
	OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
	UpdateView(ctx context.Context, viewID, hash string, view slack.ModalViewRequest) error
}

// Installer completes the OAuth install flow.
type Installer interface {
	ExchangeCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*slackapi.Installation, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Config   *config.Config
	Tokens   tokenstore.Store
	Jira     TicketCreator
	Identity AssigneeResolver
	Options  OptionSearcher
	Views    func(token string) ViewClient
	OAuth    Installer
}

// Server handles Slack's HTTP callbacks.
type Server struct {
	cfg      *config.Config
	tokens   tokenstore.Store
	decoder  interactive.Decoder
	builder  ticket.Builder
	fieldIDs jira.FieldIDs
	jira     TicketCreator
	identity AssigneeResolver
	options  OptionSearcher
	views    func(token string) ViewClient
	oauth    Installer

	// background tracks deferred ticket creations still running.
	background sync.WaitGroup
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	cfg := deps.Config
	return &Server{
		cfg:    cfg,
		tokens: deps.Tokens,
		decoder: interactive.Decoder{
			CallbackID:   cfg.SlackModalCallbackID,
			ProjectField: interactive.FieldKey{BlockID: models.ProjectBlock, ActionID: models.ProjectAction},
		},
		builder: ticket.Builder{
			DefaultProject:  cfg.JiraProjectKey,
			DefaultPriority: cfg.JiraDefaultPriority,
		},
		fieldIDs: jira.FieldIDs{
			StartDate: cfg.JiraStartDateField,
			Team:      cfg.JiraTeamField,
		},
		jira:     deps.Jira,
		identity: deps.Identity,
		options:  deps.Options,
		views:    deps.Views,
		oauth:    deps.OAuth,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/interactive", s.HandleInteractive)
	mux.HandleFunc("/slack/options", s.HandleOptions)
	mux.HandleFunc("/slack/command", s.HandleCommand)
	mux.HandleFunc("/slack/oauth/callback", s.HandleOAuthCallback)
	mux.HandleFunc("/healthz", s.HandleHealth)

	var h http.Handler = mux
	h = SignatureMiddleware(s.cfg.SlackSigningSecret, h)
	h = RecoverMiddleware(h)
	h = RequestIDMiddleware(h)
	return h
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
// and waits for deferred ticket creations.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Slack bridge on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Infof("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warnf("Deferred ticket creations still running at shutdown")
	}
	return nil
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
