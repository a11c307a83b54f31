package state

import (
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clientdesk/internal/logger"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	handlers map[State]tele.HandlerFunc
}

// NewMemoryManager constructs the in-memory Manager implementation. Session
// access is mutex-guarded, so different users' conversations may be handled
// concurrently by the host runtime.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// Register binds a handler to a state.
func (m *memoryManager) Register(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.handlers[st] = h
}

// Get returns a copy of the session, or a default idle session.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		out := *sess
		out.Draft.PhotoURLs = append([]string(nil), sess.Draft.PhotoURLs...)
		out.Draft.Encoding = append([]float64(nil), sess.Draft.Encoding...)
		return out
	}
	return Session{State: StateIdle}
}

// SetState sets the FSM state, creating the session if necessary.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{}
		m.sessions[userID] = sess
	}
	sess.State = st
}

// GetState returns the current FSM state, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// UpdateDraft mutates the draft under the lock.
func (m *memoryManager) UpdateDraft(userID int64, fn func(*Draft)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{State: StateIdle}
		m.sessions[userID] = sess
	}
	fn(&sess.Draft)
}

// Clear removes the session entirely, discarding drafted data.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// HandleCurrent executes the handler registered for the user's current state.
func (m *memoryManager) HandleCurrent(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	logger.Debug(logger.Background(), "tg", "fsm.dispatch",
		slog.Int64("user_id", userID),
		slog.String("state", string(current)),
	)
	if handler, ok := m.handlers[current]; ok {
		return handler(c)
	}
	return nil
}
