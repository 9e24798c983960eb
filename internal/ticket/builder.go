// Package ticket turns a submitted modal into a validated ticket request.
package ticket

import (
	"github.com/tuannvm/jira-slack-bridge/internal/interactive"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// Builder assembles TicketRequests from modal fields.
type Builder struct {
	DefaultProject  string
	DefaultPriority string
}

// FromFields reads every form element. The assignee is left empty; it is a
// Slack user until the identity resolver maps it to a Jira account.
func (b Builder) FromFields(fields interactive.FieldMap) models.TicketRequest {
	return models.TicketRequest{
		ProjectKey:    interactive.Extract(fields, models.ProjectBlock, models.ProjectAction, b.DefaultProject, true),
		IssueType:     interactive.Extract(fields, models.IssueTypeBlock, models.IssueTypeAction, models.DefaultIssueType, false),
		Summary:       interactive.Extract(fields, models.SummaryBlock, models.SummaryAction, "", true),
		Description:   interactive.Extract(fields, models.DescriptionBlock, models.DescriptionAction, "", false),
		Priority:      interactive.Extract(fields, models.PriorityBlock, models.PriorityAction, b.DefaultPriority, false),
		ParentEpicKey: interactive.Extract(fields, models.ParentEpicBlock, models.ParentEpicAction, "", false),
		Components:    interactive.ExtractList(fields, models.ComponentsBlock, models.ComponentsAction),
		Labels:        interactive.ExtractLabels(fields, models.LabelsBlock, models.LabelsAction),
		StartDate:     interactive.Extract(fields, models.StartDateBlock, models.StartDateAction, "", false),
		DueDate:       interactive.Extract(fields, models.DueDateBlock, models.DueDateAction, "", false),
		TeamID:        interactive.Extract(fields, models.TeamBlock, models.TeamAction, "", false),
	}
}

// AssigneeUser returns the Slack user picked as assignee, "" when none.
func AssigneeUser(fields interactive.FieldMap) string {
	return interactive.Extract(fields, models.AssigneeBlock, models.AssigneeAction, "", false)
}
