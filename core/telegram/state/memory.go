package state

import (
	"log/slog"
	"sync"

	"esimbot/core/logger"
	tghelpers "esimbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewMemoryManager constructs an in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Get returns a copy of the session for a user, or a default idle session.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		copied := Session{State: session.State, Fields: make(map[string]any, len(session.Fields))}
		for k, v := range session.Fields {
			copied.Fields[k] = v
		}
		return copied
	}
	return Session{State: StateIdle, Fields: make(map[string]any)}
}

func (m *memoryManager) session(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{State: StateIdle, Fields: make(map[string]any)}
		m.sessions[userID] = sess
	}
	return sess
}

// SetState sets the FSM state for the given user, creating a session if needed.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// ClearState resets the FSM state to idle without removing accumulated fields.
func (m *memoryManager) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.State = StateIdle
	}
}

// SetField stores an accumulated field value for the given user session.
func (m *memoryManager) SetField(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).Fields[key] = value
}

// Field retrieves an accumulated field value by key.
func (m *memoryManager) Field(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	val, ok := sess.Fields[key]
	return val, ok
}

// FieldString retrieves a field value and asserts it as string.
func (m *memoryManager) FieldString(userID int64, key string) (string, bool) {
	val, found := m.Field(userID, key)
	if !found {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// FieldInt64 retrieves a field value and asserts it as int64.
func (m *memoryManager) FieldInt64(userID int64, key string) (int64, bool) {
	val, found := m.Field(userID, key)
	if !found {
		return 0, false
	}
	v, ok := val.(int64)
	return v, ok
}

// FieldFloat64 retrieves a field value and asserts it as float64.
func (m *memoryManager) FieldFloat64(userID int64, key string) (float64, bool) {
	val, found := m.Field(userID, key)
	if !found {
		return 0, false
	}
	v, ok := val.(float64)
	return v, ok
}

// ClearFields discards all accumulated fields for a user.
func (m *memoryManager) ClearFields(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.Fields = make(map[string]any)
	}
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

func (m *memoryManager) userLock(userID int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Serialize runs fn while holding the user's session lock.
func (m *memoryManager) Serialize(userID int64, fn func() error) error {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// ManagerHandler executes the handler registered for the user's current state,
// if any, under the session lock.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	return m.Serialize(userID, func() error {
		current := m.GetState(userID)
		ctx := tghelpers.BuildContext(c)
		logger.Debug(ctx, "tg", "fsm.manager",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
			slog.String("state", string(current)),
		)

		if handler, ok := fsmHandlers[current]; ok {
			return handler(c)
		}
		return nil
	})
}
