// Package session tracks in-flight conversational sessions.
//
// The conversational front-end collects user input turn by turn; the
// registry is the process-wide table that maps each chat to its
// explicit conversation state. Sessions are created on first contact
// and removed on completion or cancel; code never relies on implicit
// per-goroutine or singleton state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Step is the explicit position of a session within a conversation
// flow.
type Step int

const (
	StepStart Step = iota
	StepRegister
	StepCreateGroup
	StepReceiveGroupName
	StepReceiveUserToAdd
	StepAddExpense
	StepReceiveExpenseGroup
	StepReceiveExpenseAmount
)

// Session is one in-flight conversation. The registry hands out
// copies; mutate a session only through registry methods.
type Session struct {
	// ID is a per-session identifier for log correlation.
	ID string

	// ChatID is the external chat identity the session is keyed by.
	ChatID string

	// Step is the current conversation position.
	Step Step

	// Scratch holds partial input collected so far (e.g. a group name
	// awaiting confirmation).
	Scratch map[string]string

	StartedAt time.Time
	UpdatedAt time.Time
}

// Registry is the process-wide session table. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Touch returns the session for chatID, creating it at StepStart on
// first contact.
func (r *Registry) Touch(chatID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[chatID]
	if !ok {
		now := r.now()
		s = &Session{
			ID:        uuid.New().String(),
			ChatID:    chatID,
			Step:      StepStart,
			Scratch:   make(map[string]string),
			StartedAt: now,
			UpdatedAt: now,
		}
		r.sessions[chatID] = s
	}
	return snapshot(s)
}

// Advance moves the session to step, optionally recording a scratch
// value. It reports false if no session exists for chatID.
func (r *Registry) Advance(chatID string, step Step, scratch map[string]string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	s.Step = step
	s.UpdatedAt = r.now()
	for k, v := range scratch {
		s.Scratch[k] = v
	}
	return snapshot(s), true
}

// End removes the session on completion or cancel. It reports whether
// a session existed.
func (r *Registry) End(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[chatID]
	delete(r.sessions, chatID)
	return ok
}

// Active returns the number of in-flight sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func snapshot(s *Session) Session {
	out := *s
	out.Scratch = make(map[string]string, len(s.Scratch))
	for k, v := range s.Scratch {
		out.Scratch[k] = v
	}
	return out
}
