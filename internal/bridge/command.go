package bridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/tuannvm/jira-slack-bridge/internal/slackapi"
)

// Command is a parsed slash command verb.
type Command int

const (
	CommandUnknown Command = iota
	CommandHelp
	CommandCreate
)

func (c Command) String() string {
	switch c {
	case CommandHelp:
		return "help"
	case CommandCreate:
		return "create"
	default:
		return "unknown"
	}
}

// ParseCommand splits slash command text into its verb and the remaining
// text. Empty text asks for help.
func ParseCommand(text string) (Command, string) {
	text = strings.TrimSpace(text)
	verb, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(verb) {
	case "", "help":
		return CommandHelp, rest
	case "create":
		return CommandCreate, rest
	default:
		return CommandUnknown, text
	}
}

const (
	msgNotAuthorized = "Bot not authorized. Please install via OAuth first."
	msgOpening       = "Opening Jira ticket form..."
)

// commandReply is an ephemeral slash command answer.
type commandReply struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func ephemeral(text string) commandReply {
	return commandReply{ResponseType: slack.ResponseTypeEphemeral, Text: text}
}

// HandleCommand serves the slash command. "create" opens the ticket modal,
// pre-filling the summary with the rest of the text.
func (s *Server) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		returnJSONError(w, http.StatusMethodNotAllowed, "Method not allowed: Only POST requests are accepted")
		return
	}

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "malformed slash command", http.StatusBadRequest)
		return
	}

	verb, rest := ParseCommand(cmd.Text)
	requestLogger(r.Context()).Infof("Slash command %s %s from team %s user %s", cmd.Command, verb, cmd.TeamID, cmd.UserID)

	switch verb {
	case CommandCreate:
		writeJSON(w, http.StatusOK, ephemeral(s.openTicketForm(r.Context(), cmd, rest)))
	case CommandHelp:
		writeJSON(w, http.StatusOK, ephemeral(usage(cmd.Command)))
	default:
		writeJSON(w, http.StatusOK, ephemeral("Unknown command: "+rest))
	}
}

func (s *Server) openTicketForm(ctx context.Context, cmd slack.SlashCommand, summary string) string {
	logger := requestLogger(ctx)

	token, ok, err := s.tokens.Get(ctx, cmd.TeamID)
	if err != nil {
		logger.Errorf("Token lookup for team %s failed: %v", cmd.TeamID, err)
		return msgNotAuthorized
	}
	if !ok || s.views == nil {
		logger.Warnf("No bot token for team %s", cmd.TeamID)
		return msgNotAuthorized
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.HTTPTimeout)
	defer cancel()

	modal := slackapi.TicketModal(s.cfg.SlackModalCallbackID, s.cfg.ProjectChoices(), summary)
	if err := s.views(token).OpenView(ctx, cmd.TriggerID, modal); err != nil {
		logger.Errorf("Failed to open ticket form: %v", err)
		return fmt.Sprintf("Failed to open Jira ticket form: %v", err)
	}
	return msgOpening
}

func usage(command string) string {
	if command == "" {
		command = "/jira"
	}
	return fmt.Sprintf("Usage:\n• `%[1]s create [summary]` opens the Jira ticket form\n• `%[1]s help` shows this message", command)
}
