package telegram

import (
	"sync"

	"github.com/vadimtrunov/cinescope/internal/catalog"
)

// sessionManager manages per-chat browse sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*catalog.Session
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*catalog.Session),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns the chat's session, creating it on first use.
func (sm *sessionManager) getOrCreate(chatID int64) *catalog.Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[chatID]; ok {
		return s
	}
	s := catalog.NewSession()
	sm.sessions[chatID] = s
	return s
}

// reset drops a chat's session, canceling its in-flight request.
func (sm *sessionManager) reset(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[chatID]; ok {
		s.Close()
		delete(sm.sessions, chatID)
	}
}

// closeAll cancels every in-flight request.
func (sm *sessionManager) closeAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, s := range sm.sessions {
		s.Close()
		delete(sm.sessions, id)
	}
}
