// Package state provides the per-user FSM session manager driving
// conversational forms.
package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step in a conversation.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
	// StateAwaitingPhotoOrSkip waits for a registration photo or a skip.
	StateAwaitingPhotoOrSkip State = "awaiting_photo_or_skip"
	// StateAwaitingPhoneAndComment waits for the single phone+comment message.
	StateAwaitingPhoneAndComment State = "awaiting_phone_and_comment"
	// StateAwaitingSearchQuery waits for search input.
	StateAwaitingSearchQuery State = "awaiting_search_query"
	// StateAwaitingEditSelect keeps the found client id available for the
	// edit sub-flow.
	StateAwaitingEditSelect State = "awaiting_edit_select"
	// StateAwaitingNewPhone collects a phone to append to a client.
	StateAwaitingNewPhone State = "awaiting_new_phone"
	// StateAwaitingNewPhoto collects a photo to append to a client.
	StateAwaitingNewPhoto State = "awaiting_new_photo"
	// StateAwaitingNewComment collects a replacement comment.
	StateAwaitingNewComment State = "awaiting_new_comment"
)

// Draft accumulates form fields between messages. Fields are typed; there is
// no loosely-typed scratch map.
type Draft struct {
	// PhotoURLs collects uploaded registration photos.
	PhotoURLs []string
	// Encoding holds the face embedding of the first registration photo.
	Encoding []float64
	// EditClientID is the target of the active edit sub-flow.
	EditClientID int64
}

// Session stores conversation state and draft data for one user.
type Session struct {
	State State
	Draft Draft
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Register binds a handler to a state; registration happens during
	// wiring, before updates flow.
	Register(st State, h tele.HandlerFunc)

	Get(userID int64) Session
	SetState(userID int64, st State)
	GetState(userID int64) State
	// UpdateDraft mutates the user's draft under the manager's lock.
	UpdateDraft(userID int64, fn func(*Draft))
	// Clear resets the session to idle and discards drafted data.
	Clear(userID int64)

	// InProgress reports whether the user has an active non-idle state.
	InProgress(userID int64) bool
	// HandleCurrent executes the handler registered for the user's current
	// state, if any.
	HandleCurrent(c tele.Context) error
}
