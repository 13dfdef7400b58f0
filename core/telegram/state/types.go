package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores the conversation state and accumulated validated field
// values for a user.
type Session struct {
	State  State
	Fields map[string]any
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Get returns a copy of the user's session, or an idle session if none exists.
	Get(userID int64) Session

	SetState(userID int64, st State)
	GetState(userID int64) State
	ClearState(userID int64)

	// Accumulated fields survive state transitions until ClearFields or Clear.
	SetField(userID int64, key string, value any)
	Field(userID int64, key string) (any, bool)
	FieldString(userID int64, key string) (string, bool)
	FieldInt64(userID int64, key string) (int64, bool)
	FieldFloat64(userID int64, key string) (float64, bool)
	ClearFields(userID int64)

	// Clear removes the entire session.
	Clear(userID int64)

	// InProgress reports whether the user has an active non-idle state.
	InProgress(userID int64) bool

	// Serialize runs fn while holding the user's session lock. All mutations
	// performed by conversation handlers go through it so updates for one
	// user are strictly ordered and non-overlapping.
	Serialize(userID int64, fn func() error) error

	// ManagerHandler executes the handler registered for the user's current
	// state under the session lock.
	ManagerHandler(c tele.Context) error
}
