// Package identity maps a Slack user to the Jira account used as assignee.
package identity

import (
	"context"
	"time"

	log "github.com/tuannvm/jira-slack-bridge/internal/logging"
	"github.com/tuannvm/jira-slack-bridge/internal/tokenstore"
)

// UserDirectory looks up Slack profiles.
type UserDirectory interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}

// AccountFinder looks up Jira accounts.
type AccountFinder interface {
	FindAccountIDByEmail(ctx context.Context, email string) (string, error)
}

// Resolver resolves Slack user ids to Jira account ids. Resolution never
// fails: every problem degrades to an unassigned ticket.
type Resolver struct {
	tokens      tokenstore.Store
	directory   func(token string) UserDirectory
	accounts    AccountFinder
	stepTimeout time.Duration
}

// NewResolver creates a Resolver. directory returns a Slack client for a bot
// token; stepTimeout bounds each lookup.
func NewResolver(tokens tokenstore.Store, directory func(token string) UserDirectory, accounts AccountFinder, stepTimeout time.Duration) *Resolver {
	return &Resolver{
		tokens:      tokens,
		directory:   directory,
		accounts:    accounts,
		stepTimeout: stepTimeout,
	}
}

// Resolve returns the Jira account id of a Slack user, or "" when any step
// yields nothing.
func (r *Resolver) Resolve(ctx context.Context, teamID, userID string) string {
	if userID == "" {
		return ""
	}

	token, ok, err := r.tokens.Get(ctx, teamID)
	if err != nil {
		log.Warnf("Token lookup for team %s failed: %v", teamID, err)
		return ""
	}
	if !ok {
		log.Warnf("No bot token for team %s, leaving ticket unassigned", teamID)
		return ""
	}

	email, err := r.email(ctx, token, userID)
	if err != nil {
		log.Warnf("Failed to fetch email for Slack user %s: %v", userID, err)
		return ""
	}
	if email == "" {
		log.Warnf("Slack user %s has no email on their profile", userID)
		return ""
	}

	accountID, err := r.account(ctx, email)
	if err != nil {
		log.Warnf("Jira user search for %s failed: %v", email, err)
		return ""
	}
	if accountID == "" {
		log.Warnf("No Jira account matches %s", email)
	}
	return accountID
}

func (r *Resolver) email(ctx context.Context, token, userID string) (string, error) {
	ctx, cancel := r.step(ctx)
	defer cancel()
	return r.directory(token).UserEmail(ctx, userID)
}

func (r *Resolver) account(ctx context.Context, email string) (string, error) {
	ctx, cancel := r.step(ctx)
	defer cancel()
	return r.accounts.FindAccountIDByEmail(ctx, email)
}

func (r *Resolver) step(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.stepTimeout)
}
