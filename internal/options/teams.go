package options

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tuannvm/jira-slack-bridge/internal/models"
)

// teamOptions lists the teams seen on recent issues whose name contains the
// query, sorted by name.
func (d *Dispatcher) teamOptions(ctx context.Context, req Request) ([]models.Option, error) {
	candidates, err := d.teamCandidates(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var opts []models.Option
	for _, team := range candidates {
		if query == "" || strings.Contains(strings.ToLower(team.Label), query) {
			opts = append(opts, team)
		}
	}

	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].Label < opts[j].Label
	})
	if len(opts) > maxTeams {
		opts = opts[:maxTeams]
	}
	return opts, nil
}

// teamCandidates collects unique teams from issues that have one. Concurrent
// callers share a single Jira search. The returned slice must not be modified.
func (d *Dispatcher) teamCandidates(ctx context.Context) ([]models.Option, error) {
	v, err, _ := d.teams.Do("teams", func() (interface{}, error) {
		jql := teamFieldName(d.teamField) + " IS NOT EMPTY ORDER BY created DESC"
		raw, err := d.jira.SearchIssues(ctx, jql, []string{d.teamField}, teamSearchResults)
		if err != nil {
			return nil, fmt.Errorf("team search: %w", err)
		}
		return parseTeams(raw, d.teamField), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Option), nil
}

// teamFieldName is the JQL name of the team field. Custom fields are
// addressed as cf[NNNNN], anything else is quoted.
func teamFieldName(field string) string {
	if id, ok := strings.CutPrefix(field, "customfield_"); ok {
		return fmt.Sprintf("cf[%s]", id)
	}
	return `"` + escapeJQL(field) + `"`
}

// parseTeams reads the team field of every issue, keeping the first
// occurrence of each team id. A team is either an {id, name} object or a
// bare string.
func parseTeams(raw []byte, field string) []models.Option {
	seen := make(map[string]bool)
	var teams []models.Option
	gjson.GetBytes(raw, "issues").ForEach(func(_, issue gjson.Result) bool {
		value := issue.Get("fields").Get(gjson.Escape(field))

		var id, name string
		switch {
		case value.IsObject():
			id = value.Get("id").String()
			name = value.Get("name").String()
			if name == "" {
				name = value.Get("title").String()
			}
		case value.Type == gjson.String:
			id = value.String()
		}
		if id == "" || seen[id] {
			return true
		}
		if name == "" {
			name = id
		}
		seen[id] = true
		teams = append(teams, models.Option{Label: name, Value: id})
		return true
	})
	return teams
}
