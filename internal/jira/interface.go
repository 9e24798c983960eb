package jira

import (
	"context"

	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// JiraClientInterface defines the operations a Jira client should implement
type JiraClientInterface interface {
	CreateIssue(ctx context.Context, payload map[string]any) (*models.CreatedTicket, error)
	FindAccountIDByEmail(ctx context.Context, email string) (string, error)
	ProjectComponents(ctx context.Context, projectKey string) ([]string, error)
	SearchIssues(ctx context.Context, jql string, fields []string, maxResults int) ([]byte, error)
}

var _ JiraClientInterface = (*Client)(nil)
