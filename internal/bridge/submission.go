package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/tuannvm/jira-slack-bridge/internal/interactive"
	"github.com/tuannvm/jira-slack-bridge/internal/jira"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
	"github.com/tuannvm/jira-slack-bridge/internal/ticket"
)

const createFailedPrefix = "Failed to create ticket: "

type creation struct {
	ticket *models.CreatedTicket
	err    error
}

// submit validates a submission and creates its ticket, either within the
// submission deadline or, in deferred mode, in the background. A panic is
// reported on the summary block like any other failure.
func (s *Server) submit(ctx context.Context, ev interactive.Event) (resp *slack.ViewSubmissionResponse) {
	logger := requestLogger(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("Panic handling submission: %v", rec)
			resp = interactive.SubmissionError(models.SummaryBlock, createFailedPrefix+"unexpected error")
		}
	}()

	req := s.builder.FromFields(ev.Fields)
	if verr := ticket.Validate(req); verr != nil {
		logger.Infof("Submission rejected: %v", verr)
		return interactive.SubmissionError(verr.BlockID, verr.Message)
	}

	if s.cfg.DeferredUpdate {
		if views, ok := s.viewsFor(ctx, ev.TeamID); ok && ev.ViewID != "" {
			s.createDeferred(ctx, ev, req, views)
			return interactive.SubmissionPending()
		}
		logger.Warnf("Deferred update unavailable for team %s, creating ticket inline", ev.TeamID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SubmissionTimeout)
	defer cancel()

	result := make(chan creation, 1)
	go func() {
		t, err := s.create(ctx, ev, req)
		result <- creation{ticket: t, err: err}
	}()

	select {
	case res := <-result:
		if res.err != nil {
			logger.Errorf("Ticket creation failed: %v", res.err)
			return s.failure(res.err)
		}
		logger.Infof("Created ticket %s", res.ticket.Key)
		return interactive.SubmissionSuccess(res.ticket.URL)
	case <-ctx.Done():
		logger.Errorf("Ticket creation did not finish within %s", s.cfg.SubmissionTimeout)
		return interactive.SubmissionError(models.SummaryBlock, createFailedPrefix+"Jira did not answer in time")
	}
}

// create resolves the assignee and creates the issue. A panic is returned as
// an error.
func (s *Server) create(ctx context.Context, ev interactive.Event, req models.TicketRequest) (t *models.CreatedTicket, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic creating ticket: %v", rec)
		}
	}()

	req.AssigneeAccountID = s.identity.Resolve(ctx, ev.TeamID, ticket.AssigneeUser(ev.Fields))
	t, err = s.jira.CreateIssue(ctx, jira.BuildIssuePayload(req, s.fieldIDs))
	if err != nil {
		return nil, fmt.Errorf("create issue in %s: %w", req.ProjectKey, err)
	}
	if t == nil {
		return nil, fmt.Errorf("create issue in %s: no ticket returned", req.ProjectKey)
	}
	return t, nil
}

// createDeferred creates the ticket detached from the request and replaces
// the pending view with the outcome.
func (s *Server) createDeferred(ctx context.Context, ev interactive.Event, req models.TicketRequest, views ViewClient) {
	logger := requestLogger(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DeferredTimeout)
		defer cancel()

		var view slack.ModalViewRequest
		t, err := s.create(ctx, ev, req)
		if err != nil {
			logger.Errorf("Deferred ticket creation failed: %v", err)
			view = interactive.FailureView(failureMessage(err))
		} else {
			logger.Infof("Created ticket %s", t.Key)
			view = interactive.SuccessView(t.URL)
		}

		// Creation may have used up its deadline; the update gets its own.
		updateCtx, updateCancel := context.WithTimeout(context.Background(), s.cfg.HTTPTimeout)
		defer updateCancel()

		// The submission hash is stale once the pending view replaced it.
		if err := views.UpdateView(updateCtx, ev.ViewID, "", view); err != nil {
			logger.Errorf("Failed to update view %s: %v", ev.ViewID, err)
		}
	}()
}

func (s *Server) viewsFor(ctx context.Context, teamID string) (ViewClient, bool) {
	if s.views == nil {
		return nil, false
	}
	token, ok, err := s.tokens.Get(ctx, teamID)
	if err != nil || !ok {
		return nil, false
	}
	return s.views(token), true
}

// failure renders a creation error next to the element Jira complained
// about, or next to the summary.
func (s *Server) failure(err error) *slack.ViewSubmissionResponse {
	blockID := models.SummaryBlock
	var jiraErr *jira.Error
	if errors.As(err, &jiraErr) {
		if b, ok := s.blockForJiraField(jiraErr.Field); ok {
			blockID = b
		}
	}
	return interactive.SubmissionError(blockID, createFailedPrefix+failureMessage(err))
}

func failureMessage(err error) string {
	var jiraErr *jira.Error
	if errors.As(err, &jiraErr) {
		return jiraErr.Message
	}
	return "unexpected error"
}

// blockForJiraField maps a Jira field named in a rejection to the modal
// block that edits it.
func (s *Server) blockForJiraField(field string) (string, bool) {
	switch field {
	case "":
		return "", false
	case "summary":
		return models.SummaryBlock, true
	case "description":
		return models.DescriptionBlock, true
	case "issuetype":
		return models.IssueTypeBlock, true
	case "priority":
		return models.PriorityBlock, true
	case "assignee":
		return models.AssigneeBlock, true
	case "parent":
		return models.ParentEpicBlock, true
	case "components":
		return models.ComponentsBlock, true
	case "labels":
		return models.LabelsBlock, true
	case "duedate":
		return models.DueDateBlock, true
	case "project":
		// the project select is only rendered when there is a choice
		if len(s.cfg.ProjectChoices()) > 0 {
			return models.ProjectBlock, true
		}
		return "", false
	case s.cfg.JiraStartDateField:
		return models.StartDateBlock, true
	case s.cfg.JiraTeamField:
		return models.TeamBlock, true
	}
	return "", false
}
