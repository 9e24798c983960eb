// Package tokenstore keeps the Slack bot token of every workspace that
// installed the app. Entries are whole-value replacements keyed by team id.
package tokenstore

import (
	"context"
	"sync"
)

// Store is the token capability shared by every outbound Slack call.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the bot token for teamID and whether one is stored.
	Get(ctx context.Context, teamID string) (string, bool, error)
	// Put stores or replaces the bot token for teamID.
	Put(ctx context.Context, teamID, token string) error
}

// MemoryStore is a process-lifetime Store backed by sync.Map.
type MemoryStore struct {
	tokens sync.Map
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, teamID string) (string, bool, error) {
	v, ok := s.tokens.Load(teamID)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, teamID, token string) error {
	s.tokens.Store(teamID, token)
	return nil
}
