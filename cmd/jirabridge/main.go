package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/tuannvm/jira-slack-bridge/internal/bridge"
	"github.com/tuannvm/jira-slack-bridge/internal/config"
	"github.com/tuannvm/jira-slack-bridge/internal/identity"
	"github.com/tuannvm/jira-slack-bridge/internal/jira"
	log "github.com/tuannvm/jira-slack-bridge/internal/logging"
	"github.com/tuannvm/jira-slack-bridge/internal/options"
	"github.com/tuannvm/jira-slack-bridge/internal/slackapi"
	"github.com/tuannvm/jira-slack-bridge/internal/tokenstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create a context that will be canceled on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, closeTokens, err := newTokenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up token store: %v", err)
	}
	defer closeTokens()

	jiraClient, err := jira.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create Jira client: %v", err)
	}

	slackFactory := slackapi.NewFactory(cfg.SlackAPIURL, &http.Client{Timeout: cfg.HTTPTimeout})

	resolver := identity.NewResolver(tokens, func(token string) identity.UserDirectory {
		return slackFactory.ForToken(token)
	}, jiraClient, cfg.HTTPTimeout)

	server := bridge.NewServer(bridge.Deps{
		Config:   cfg,
		Tokens:   tokens,
		Jira:     jiraClient,
		Identity: resolver,
		Options:  options.NewDispatcher(jiraClient, cfg.JiraProjectKey, cfg.JiraTeamField),
		Views: func(token string) bridge.ViewClient {
			return slackFactory.ForToken(token)
		},
		OAuth: slackFactory,
	})

	log.Infof("Jira base URL: %s, projects: %v, deferred update: %t", cfg.JiraBaseURL, cfg.ProjectChoices(), cfg.DeferredUpdate)
	if cfg.SlackSigningSecret == "" {
		log.Warnf("SLACK_SIGNING_SECRET is not set, requests are not verified")
	}

	if err := server.Start(ctx, cfg.Addr()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Infof("Server shutdown complete")
}

// newTokenStore builds the configured store and seeds it with the static
// bot token, if any.
func newTokenStore(ctx context.Context, cfg *config.Config) (tokenstore.Store, func(), error) {
	var (
		store   tokenstore.Store
		closeFn = func() {}
	)

	switch cfg.TokenStore {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Infof("Storing Slack tokens in redis at %s", cfg.RedisAddr)
		store = tokenstore.NewRedisStore(client, cfg.RedisKeyPrefix)
		closeFn = func() { _ = client.Close() }
	default:
		log.Infof("Storing Slack tokens in memory")
		store = tokenstore.NewMemoryStore()
	}

	if cfg.SlackBotToken != "" {
		if err := store.Put(ctx, cfg.SlackTeamID, cfg.SlackBotToken); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to store static bot token: %w", err)
		}
		log.Infof("Using static bot token for team %s", cfg.SlackTeamID)
	}
	return store, closeFn, nil
}
