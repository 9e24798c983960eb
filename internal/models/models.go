package models

// TicketRequest is the canonical ticket-creation request assembled from a
// modal submission. Optional fields left empty are never sent to Jira.
type TicketRequest struct {
	ProjectKey        string   `json:"projectKey"`
	IssueType         string   `json:"issueType"`
	Summary           string   `json:"summary"`
	Description       string   `json:"description,omitempty"`
	Priority          string   `json:"priority,omitempty"`
	AssigneeAccountID string   `json:"assigneeAccountId,omitempty"` // resolved, never user supplied
	ParentEpicKey     string   `json:"parentEpicKey,omitempty"`
	Components        []string `json:"components,omitempty"`
	Labels            []string `json:"labels,omitempty"`
	StartDate         string   `json:"startDate,omitempty"` // ISO 8601 date
	DueDate           string   `json:"dueDate,omitempty"`   // ISO 8601 date
	TeamID            string   `json:"teamId,omitempty"`    // Jira team, not the Slack workspace
}

// Option is a label/value pair offered to a dynamic select field.
// Two options with the same Value are the same option.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CreatedTicket is what the bridge reports back once Jira accepted the issue.
type CreatedTicket struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
