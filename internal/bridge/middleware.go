package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	log "github.com/tuannvm/jira-slack-bridge/internal/logging"
)

type requestIDKey struct{}

// RequestIDMiddleware tags each request with an id, reusing X-Request-ID
// when the caller sent one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger returns the logger carrying the request id of ctx.
func requestLogger(ctx context.Context) *zap.SugaredLogger {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return log.With("request_id", id)
	}
	return log.Logger
}

// RecoverMiddleware turns a handler panic into a 500.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestLogger(r.Context()).Errorf("Panic serving %s: %v", r.URL.Path, rec)
				returnJSONError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SignatureMiddleware rejects /slack/ POSTs that do not carry a valid Slack
// request signature. An empty secret disables verification.
func SignatureMiddleware(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret == "" || r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/slack/") {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			returnJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
			return
		}

		if err := verifySignature(r.Header, body, secret); err != nil {
			requestLogger(r.Context()).Warnf("Rejected request to %s: %v", r.URL.Path, err)
			returnJSONError(w, http.StatusUnauthorized, "Unauthorized: invalid Slack signature")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func verifySignature(header http.Header, body []byte, secret string) error {
	sv, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

// returnJSONError writes a JSON error response with the given status code and message
func returnJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// readBody reads a request body, bounded to maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}
