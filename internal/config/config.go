package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultModalCallbackID is the callback_id of the ticket modal opened by the slash command.
const DefaultModalCallbackID = "jira_ticket_modal"

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerHost string
	ServerPort int

	// Slack configuration
	SlackSigningSecret   string
	SlackClientID        string
	SlackClientSecret    string
	SlackRedirectURI     string
	SlackBotToken        string // optional static token, stored for SlackTeamID at startup
	SlackTeamID          string
	SlackAPIURL          string
	SlackModalCallbackID string

	// Jira configuration
	JiraBaseURL         string
	JiraEmail           string
	JiraAPIToken        string
	JiraProjectKey      string   // fallback when the modal has no project
	JiraProjects        []string // choices of the modal project select
	JiraDefaultPriority string
	JiraStartDateField  string
	JiraTeamField       string

	// Timeouts
	HTTPTimeout       time.Duration
	SubmissionTimeout time.Duration
	SuggestionTimeout time.Duration
	DeferredTimeout   time.Duration
	DeferredUpdate    bool

	// Token storage
	TokenStore     string // "memory" or "redis"
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Logging
	LogLevel  string
	LogFormat string
}

// loadDotEnv loads environment variables from a .env file, searching the
// working directory and up to two parents.
func loadDotEnv() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded configuration from %s file", path)
			return
		}
	}
	log.Println("No .env file found or error loading it. Using environment variables or defaults.")
}

// setDefaults registers the default value of every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)

	v.SetDefault("slack_api_url", "")
	v.SetDefault("slack_modal_callback_id", DefaultModalCallbackID)

	v.SetDefault("jira_base_url", "https://your-jira-instance.atlassian.net")
	v.SetDefault("jira_project_key", "")
	v.SetDefault("jira_projects", "")
	v.SetDefault("jira_default_priority", "")
	v.SetDefault("jira_start_date_field", "customfield_10015")
	v.SetDefault("jira_team_field", "customfield_10001")

	v.SetDefault("http_timeout", "2s")
	v.SetDefault("submission_timeout", "2500ms")
	v.SetDefault("suggestion_timeout", "2500ms")
	v.SetDefault("deferred_timeout", "25s")
	v.SetDefault("deferred_update", false)

	v.SetDefault("token_store", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "jirabridge:token:")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// NewViper returns a viper instance bound to the environment with every
// default registered. An optional config file is read from CONFIG_FILE.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return v, nil
}

// Load reads .env, the environment and the optional config file.
func Load() (*Config, error) {
	loadDotEnv()
	v, err := NewViper()
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		ServerHost: v.GetString("server_host"),
		ServerPort: v.GetInt("server_port"),

		SlackSigningSecret:   v.GetString("slack_signing_secret"),
		SlackClientID:        v.GetString("slack_client_id"),
		SlackClientSecret:    v.GetString("slack_client_secret"),
		SlackRedirectURI:     v.GetString("slack_redirect_uri"),
		SlackBotToken:        v.GetString("slack_bot_token"),
		SlackTeamID:          v.GetString("slack_team_id"),
		SlackAPIURL:          v.GetString("slack_api_url"),
		SlackModalCallbackID: v.GetString("slack_modal_callback_id"),

		JiraBaseURL:         strings.TrimRight(v.GetString("jira_base_url"), "/"),
		JiraEmail:           v.GetString("jira_email"),
		JiraAPIToken:        v.GetString("jira_api_token"),
		JiraProjectKey:      v.GetString("jira_project_key"),
		JiraProjects:        splitList(v.GetString("jira_projects")),
		JiraDefaultPriority: v.GetString("jira_default_priority"),
		JiraStartDateField:  v.GetString("jira_start_date_field"),
		JiraTeamField:       v.GetString("jira_team_field"),

		HTTPTimeout:       v.GetDuration("http_timeout"),
		SubmissionTimeout: v.GetDuration("submission_timeout"),
		SuggestionTimeout: v.GetDuration("suggestion_timeout"),
		DeferredTimeout:   v.GetDuration("deferred_timeout"),
		DeferredUpdate:    v.GetBool("deferred_update"),

		TokenStore:     strings.ToLower(v.GetString("token_store")),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		RedisKeyPrefix: v.GetString("redis_key_prefix"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}
}

// splitList parses a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ProjectChoices returns the projects offered by the modal. The fallback
// project is always included.
func (c *Config) ProjectChoices() []string {
	choices := append([]string(nil), c.JiraProjects...)
	if c.JiraProjectKey == "" {
		return choices
	}
	for _, p := range choices {
		if p == c.JiraProjectKey {
			return choices
		}
	}
	return append([]string{c.JiraProjectKey}, choices...)
}

// Validate reports configuration that would make the bridge unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.JiraBaseURL == "" {
		errs = append(errs, errors.New("JIRA_BASE_URL is required"))
	}
	if c.JiraEmail == "" || c.JiraAPIToken == "" {
		errs = append(errs, errors.New("JIRA_EMAIL and JIRA_API_TOKEN are required"))
	}
	if len(c.ProjectChoices()) == 0 {
		errs = append(errs, errors.New("JIRA_PROJECT_KEY or JIRA_PROJECTS is required"))
	}
	if c.SlackBotToken != "" && c.SlackTeamID == "" {
		errs = append(errs, errors.New("SLACK_TEAM_ID is required when SLACK_BOT_TOKEN is set"))
	}
	switch c.TokenStore {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported TOKEN_STORE %q", c.TokenStore))
	}
	for name, d := range map[string]time.Duration{
		"HTTP_TIMEOUT":       c.HTTPTimeout,
		"SUBMISSION_TIMEOUT": c.SubmissionTimeout,
		"SUGGESTION_TIMEOUT": c.SuggestionTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.DeferredUpdate && c.DeferredTimeout <= 0 {
		errs = append(errs, errors.New("DEFERRED_TIMEOUT must be positive when DEFERRED_UPDATE is set"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
