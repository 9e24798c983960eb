package bridge

import (
	"context"
	"errors"
	"net/http"

	"github.com/tuannvm/jira-slack-bridge/internal/interactive"
	"github.com/tuannvm/jira-slack-bridge/internal/models"
	"github.com/tuannvm/jira-slack-bridge/internal/options"
)

// HandleInteractive receives Slack's interactivity payloads: modal
// submissions and, when the same URL is configured for options, suggestion
// requests.
func (s *Server) HandleInteractive(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.decode(w, r)
	if !ok {
		return
	}

	logger := requestLogger(r.Context())
	switch ev.Kind {
	case interactive.KindSubmission:
		logger.Infof("View submission from team %s user %s", ev.TeamID, ev.UserID)
		writeJSON(w, http.StatusOK, s.submit(r.Context(), ev))
	case interactive.KindSuggestion:
		writeJSON(w, http.StatusOK, s.suggest(r.Context(), ev))
	default:
		logger.Debugf("Ignoring interaction %q (callback %q)", ev.Type, ev.CallbackID)
		acknowledge(w)
	}
}

// HandleOptions is Slack's options load URL. Only suggestions are served.
func (s *Server) HandleOptions(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.decode(w, r)
	if !ok {
		return
	}
	if ev.Kind != interactive.KindSuggestion {
		acknowledge(w)
		return
	}
	writeJSON(w, http.StatusOK, s.suggest(r.Context(), ev))
}

// decode reads and decodes an envelope, answering the request itself when
// that fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (interactive.Event, bool) {
	if r.Method != http.MethodPost {
		returnJSONError(w, http.StatusMethodNotAllowed, "Method not allowed: Only POST requests are accepted")
		return interactive.Event{}, false
	}

	body, err := readBody(w, r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return interactive.Event{}, false
	}

	ev, err := s.decoder.Decode(body)
	if err != nil {
		var decodeErr *interactive.DecodeError
		if errors.As(err, &decodeErr) {
			requestLogger(r.Context()).Warnf("Rejected interaction payload: %v", err)
			http.Error(w, decodeErr.Error(), http.StatusBadRequest)
			return interactive.Event{}, false
		}
		requestLogger(r.Context()).Errorf("Failed to decode interaction: %v", err)
		http.Error(w, "failed to decode payload", http.StatusBadRequest)
		return interactive.Event{}, false
	}
	return ev, true
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(interactive.Acknowledgement)
}

// suggest runs the option search under the suggestion deadline. A search
// that misses it yields no options.
func (s *Server) suggest(ctx context.Context, ev interactive.Event) interactive.OptionsResponse {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SuggestionTimeout)
	defer cancel()

	req := options.Request{ActionID: ev.ActionID, Query: ev.Query, ProjectKey: ev.ContextProjectKey}
	result := make(chan []models.Option, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				requestLogger(ctx).Errorf("Panic in option search for %s: %v", ev.ActionID, rec)
				result <- nil
			}
		}()
		result <- s.options.Search(ctx, req)
	}()

	select {
	case opts := <-result:
		return interactive.Suggestions(opts)
	case <-ctx.Done():
		requestLogger(ctx).Warnf("Option search for %s timed out", ev.ActionID)
		return interactive.Suggestions(nil)
	}
}
