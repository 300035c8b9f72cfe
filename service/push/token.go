package push

import (
	"context"
	"sync"
	"time"
)

// TokenBinding ties one device token to a user. A user can hold one
// token per platform; a refreshed token replaces the old binding, the
// two are never kept side by side.
type TokenBinding struct {
	UserID    string    `bson:"user_id" json:"userId"`
	Token     string    `bson:"token" json:"token"`
	Platform  string    `bson:"platform" json:"platform"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// TokenStore persists device token bindings.
type TokenStore interface {
	// Save replaces the binding for (UserID, Platform).
	Save(ctx context.Context, b TokenBinding) error
	// List returns all bindings of one user.
	List(ctx context.Context, userID string) ([]TokenBinding, error)
	// Delete removes a single token, typically after the sender
	// reported it as no longer registered.
	Delete(ctx context.Context, userID, token string) error
}

// MemoryTokenStore keeps bindings in process memory. It backs tests
// and degraded boots where mongo is unavailable.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	byID map[string]map[string]TokenBinding // userID -> platform -> binding
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{byID: make(map[string]map[string]TokenBinding)}
}

func (s *MemoryTokenStore) Save(_ context.Context, b TokenBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[b.UserID]
	if !ok {
		m = make(map[string]TokenBinding)
		s.byID[b.UserID] = m
	}
	m[b.Platform] = b
	return nil
}

func (s *MemoryTokenStore) List(_ context.Context, userID string) ([]TokenBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.byID[userID]
	out := make([]TokenBinding, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for platform, b := range s.byID[userID] {
		if b.Token == token {
			delete(s.byID[userID], platform)
		}
	}
	return nil
}
