package jira

import (
	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// FieldIDs names the instance specific custom fields.
type FieldIDs struct {
	StartDate string // e.g. customfield_10015
	Team      string // e.g. customfield_10001
}

// BuildIssuePayload renders the create-issue body. Optional fields are only
// present when they carry a value.
func BuildIssuePayload(req models.TicketRequest, ids FieldIDs) map[string]any {
	fields := map[string]any{
		"project":   map[string]any{"key": req.ProjectKey},
		"summary":   req.Summary,
		"issuetype": map[string]any{"name": req.IssueType},
	}

	// Jira rejects an ADF document whose only text node is empty.
	if req.Description != "" {
		fields["description"] = adfDocument(req.Description)
	}
	if req.Priority != "" {
		fields["priority"] = map[string]any{"name": req.Priority}
	}
	if req.AssigneeAccountID != "" {
		fields["assignee"] = map[string]any{"accountId": req.AssigneeAccountID}
	}
	if req.ParentEpicKey != "" {
		fields["parent"] = map[string]any{"key": req.ParentEpicKey}
	}
	if len(req.Components) > 0 {
		components := make([]map[string]any, 0, len(req.Components))
		for _, name := range req.Components {
			components = append(components, map[string]any{"name": name})
		}
		fields["components"] = components
	}
	if len(req.Labels) > 0 {
		fields["labels"] = append([]string(nil), req.Labels...)
	}
	if req.DueDate != "" {
		fields["duedate"] = req.DueDate
	}
	if req.StartDate != "" && ids.StartDate != "" {
		fields[ids.StartDate] = req.StartDate
	}
	if req.TeamID != "" && ids.Team != "" {
		fields[ids.Team] = req.TeamID
	}

	return map[string]any{"fields": fields}
}

// adfDocument wraps plain text in a single-paragraph Atlassian Document.
func adfDocument(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}
