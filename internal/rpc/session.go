package rpc

import (
	"sync"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// Session holds the signed-in user of the single local client.
type Session struct {
	mu   sync.RWMutex
	user *types.User
}

// NewSession returns a signed-out session.
func NewSession() *Session {
	return &Session{}
}

// SetUser records u as the current user.
func (s *Session) SetUser(u types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

// User returns a copy of the current user, or nil when signed out.
func (s *Session) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Clear signs the user out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}
