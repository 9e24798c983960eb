package models

// Block and action ids of the ticket modal. The modal builder, the request
// builder and the option dispatcher all address elements through these.
const (
	ProjectBlock      = "project_block"
	ProjectAction     = "project"
	IssueTypeBlock    = "issue_type_block"
	IssueTypeAction   = "issue_type"
	SummaryBlock      = "summary_block"
	SummaryAction     = "summary"
	DescriptionBlock  = "description_block"
	DescriptionAction = "description"
	PriorityBlock     = "priority_block"
	PriorityAction    = "priority"
	AssigneeBlock     = "assignee_block"
	AssigneeAction    = "assignee"
	ParentEpicBlock   = "parent_epic_block"
	ParentEpicAction  = "parent_epic"
	ComponentsBlock   = "components_block"
	ComponentsAction  = "components"
	LabelsBlock       = "labels_block"
	LabelsAction      = "labels"
	StartDateBlock    = "start_date_block"
	StartDateAction   = "start_date"
	DueDateBlock      = "due_date_block"
	DueDateAction     = "due_date"
	TeamBlock         = "team_block"
	TeamAction        = "team"
)

// DefaultIssueType is used when the modal carries no issue type.
const DefaultIssueType = "Bug"

// IssueTypes and Priorities are the static choices offered by the modal.
var (
	IssueTypes = []string{"Bug", "Task", "Story"}
	Priorities = []string{"High", "Medium", "Low"}
)
