package ticket

import (
	"fmt"

	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// ValidationError is a problem with one form element, reported back to
// Slack next to that element.
type ValidationError struct {
	BlockID string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.BlockID, e.Message)
}

// Validate checks the required fields. The project is checked before the
// summary, so a form missing both points at the project.
func Validate(req models.TicketRequest) *ValidationError {
	if req.ProjectKey == "" {
		return &ValidationError{BlockID: models.ProjectBlock, Message: "Project is required"}
	}
	if req.Summary == "" {
		return &ValidationError{BlockID: models.SummaryBlock, Message: "Summary is required"}
	}
	return nil
}
