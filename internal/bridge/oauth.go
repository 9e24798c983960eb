package bridge

import (
	"context"
	"fmt"
	"net/http"
)

// HandleOAuthCallback completes a workspace install and stores its bot token.
func (s *Server) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		returnJSONError(w, http.StatusMethodNotAllowed, "Method not allowed: Only GET requests are accepted")
		return
	}
	logger := requestLogger(r.Context())

	if reason := r.URL.Query().Get("error"); reason != "" {
		logger.Warnf("OAuth install declined: %s", reason)
		http.Error(w, "Installation was not completed: "+reason, http.StatusBadRequest)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing OAuth code", http.StatusBadRequest)
		return
	}
	if s.oauth == nil {
		http.Error(w, "OAuth is not configured", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HTTPTimeout)
	defer cancel()

	inst, err := s.oauth.ExchangeCode(ctx, s.cfg.SlackClientID, s.cfg.SlackClientSecret, code, s.cfg.SlackRedirectURI)
	if err != nil {
		logger.Errorf("OAuth exchange failed: %v", err)
		http.Error(w, "OAuth exchange failed", http.StatusInternalServerError)
		return
	}
	if err := s.tokens.Put(ctx, inst.TeamID, inst.BotToken); err != nil {
		logger.Errorf("Failed to store token for team %s: %v", inst.TeamID, err)
		http.Error(w, "Failed to store installation", http.StatusInternalServerError)
		return
	}

	logger.Infof("Installed for team %s (%s)", inst.TeamID, inst.TeamName)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Installed for %s. You can now use the slash command.", teamLabel(inst.TeamName, inst.TeamID))
}

func teamLabel(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
