// Package options answers type-ahead searches of the modal's external selects.
package options

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	log "github.com/tuannvm/jira-slack-bridge/internal/logging"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

const (
	maxEpics          = 10
	teamSearchResults = 100
	maxTeams          = 50
)

// Searcher is the part of the Jira client the dispatcher needs.
type Searcher interface {
	ProjectComponents(ctx context.Context, projectKey string) ([]string, error)
	SearchIssues(ctx context.Context, jql string, fields []string, maxResults int) ([]byte, error)
}

// Request is one block_suggestion.
type Request struct {
	ActionID   string
	Query      string
	ProjectKey string // project selected in the modal, if any
}

type strategy func(ctx context.Context, req Request) ([]models.Option, error)

// Dispatcher routes a suggestion to the search strategy of its action id.
type Dispatcher struct {
	jira           Searcher
	defaultProject string
	teamField      string

	teams      singleflight.Group
	strategies map[string]strategy
}

// NewDispatcher creates a Dispatcher. teamField is the custom field holding
// the Jira team of an issue.
func NewDispatcher(jira Searcher, defaultProject, teamField string) *Dispatcher {
	d := &Dispatcher{
		jira:           jira,
		defaultProject: defaultProject,
		teamField:      teamField,
	}
	d.strategies = map[string]strategy{
		models.ParentEpicAction: d.epics,
		models.ComponentsAction: d.components,
		models.LabelsAction:     d.labels,
		models.TeamAction:       d.teamOptions,
	}
	return d
}

// Search returns the options for req. It never fails: unknown action ids and
// upstream errors yield an empty list.
func (d *Dispatcher) Search(ctx context.Context, req Request) []models.Option {
	search, ok := d.strategies[req.ActionID]
	if !ok {
		log.Warnf("No option search for action id %q", req.ActionID)
		return []models.Option{}
	}

	opts, err := search(ctx, req)
	if err != nil {
		log.Warnf("Option search for %s (query %q) failed: %v", req.ActionID, req.Query, err)
		return []models.Option{}
	}
	if opts == nil {
		return []models.Option{}
	}
	return opts
}

func (d *Dispatcher) epics(ctx context.Context, req Request) ([]models.Option, error) {
	raw, err := d.jira.SearchIssues(ctx, epicJQL(req.Query), []string{"summary"}, maxEpics)
	if err != nil {
		return nil, fmt.Errorf("epic search: %w", err)
	}

	var opts []models.Option
	gjson.GetBytes(raw, "issues").ForEach(func(_, issue gjson.Result) bool {
		key := issue.Get("key").String()
		if key != "" {
			opts = append(opts, models.Option{
				Label: fmt.Sprintf("%s (%s)", issue.Get("fields.summary").String(), key),
				Value: key,
			})
		}
		return true
	})
	return opts, nil
}

// epicJQL searches epics by summary, newest first. An empty query lists
// every epic.
func epicJQL(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "issuetype = Epic ORDER BY created DESC"
	}
	return fmt.Sprintf(`issuetype = Epic AND summary ~ "%s" ORDER BY created DESC`, escapeJQL(query))
}

var jqlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeJQL(s string) string { return jqlEscaper.Replace(s) }

func (d *Dispatcher) components(ctx context.Context, req Request) ([]models.Option, error) {
	project := req.ProjectKey
	if project == "" {
		project = d.defaultProject
	}
	if project == "" {
		log.Warnf("No project selected and no default project, cannot list components")
		return nil, nil
	}

	names, err := d.jira.ProjectComponents(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("components of %s: %w", project, err)
	}
	opts := make([]models.Option, 0, len(names))
	for _, name := range names {
		opts = append(opts, models.Option{Label: name, Value: name})
	}
	return opts, nil
}

func (d *Dispatcher) labels(_ context.Context, req Request) ([]models.Option, error) {
	label := strings.TrimSpace(req.Query)
	if label == "" {
		return nil, nil
	}
	return []models.Option{{Label: label, Value: label}}, nil
}
