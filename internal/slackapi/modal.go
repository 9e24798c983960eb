package slackapi

import (
	"github.com/slack-go/slack"

	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// TicketModal builds the ticket creation form. The project select is left
// out when there is nothing to choose from, in which case submissions fall
// back to the configured project. summary pre-fills the summary input.
func TicketModal(callbackID string, projects []string, summary string) slack.ModalViewRequest {
	var blocks []slack.Block

	if len(projects) > 0 {
		project := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("Select a project"), models.ProjectAction, staticOptions(projects)...)
		if len(projects) == 1 {
			project.WithInitialOption(staticOptions(projects)[0])
		}
		blocks = append(blocks, slack.NewInputBlock(models.ProjectBlock, plain("Project"), nil, project))
	}

	issueTypes := staticOptions(models.IssueTypes)
	issueType := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, nil, models.IssueTypeAction, issueTypes...).
		WithInitialOption(issueTypes[0])
	blocks = append(blocks, slack.NewInputBlock(models.IssueTypeBlock, plain("Issue Type"), nil, issueType))

	summaryInput := slack.NewPlainTextInputBlockElement(nil, models.SummaryAction)
	if summary != "" {
		summaryInput.WithInitialValue(summary)
	}
	blocks = append(blocks, slack.NewInputBlock(models.SummaryBlock, plain("Summary"), nil, summaryInput))

	description := slack.NewPlainTextInputBlockElement(nil, models.DescriptionAction)
	description.Multiline = true
	blocks = append(blocks,
		optional(models.DescriptionBlock, "Description", description),
		optional(models.PriorityBlock, "Priority",
			slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, nil, models.PriorityAction, staticOptions(models.Priorities)...)),
		optional(models.AssigneeBlock, "Assignee",
			slack.NewOptionsSelectBlockElement(slack.OptTypeUser, plain("Select a user"), models.AssigneeAction)),
		optional(models.ParentEpicBlock, "Parent Epic", external(models.ParentEpicAction, "Search epics", 0)),
		optional(models.ComponentsBlock, "Components", multiExternal(models.ComponentsAction, "Select components", 0)),
		optional(models.LabelsBlock, "Labels", multiExternal(models.LabelsAction, "Type a label", 1)),
		optional(models.StartDateBlock, "Start Date", slack.NewDatePickerBlockElement(models.StartDateAction)),
		optional(models.DueDateBlock, "Due Date", slack.NewDatePickerBlockElement(models.DueDateAction)),
		optional(models.TeamBlock, "Team", external(models.TeamAction, "Search teams", 0)),
	)

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: callbackID,
		Title:      plain("Create Jira Ticket"),
		Submit:     plain("Submit"),
		Close:      plain("Cancel"),
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

func optional(blockID, label string, element slack.BlockElement) *slack.InputBlock {
	return slack.NewInputBlock(blockID, plain(label), nil, element).WithOptional(true)
}

func staticOptions(values []string) []*slack.OptionBlockObject {
	opts := make([]*slack.OptionBlockObject, 0, len(values))
	for _, v := range values {
		opts = append(opts, slack.NewOptionBlockObject(v, plain(v), nil))
	}
	return opts
}

func external(actionID, placeholder string, minQuery int) *slack.SelectBlockElement {
	el := slack.NewOptionsSelectBlockElement(slack.OptTypeExternal, plain(placeholder), actionID)
	el.MinQueryLength = &minQuery
	return el
}

func multiExternal(actionID, placeholder string, minQuery int) *slack.MultiSelectBlockElement {
	el := slack.NewOptionsMultiSelectBlockElement(slack.MultiOptTypeExternal, plain(placeholder), actionID)
	el.MinQueryLength = &minQuery
	return el
}
