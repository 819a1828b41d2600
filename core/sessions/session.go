// Package sessions holds the short-term dialogue state one conversation
// carries across turns: at most one outstanding clarification and the record
// of previous turns.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpcaldeira/aura-core/core/llms"
)

// TurnRecord is the outcome of one orchestration turn.
type TurnRecord struct {
	ID        uuid.UUID
	Utterance string
	Status    string
	Reply     string
	Timestamp time.Time
}

// Session is the per-conversation state. It is mutated only by the resolver
// side of the orchestration pipeline; turns against one session are
// serialized through Acquire.
type Session struct {
	id uuid.UUID

	turnMu sync.Mutex

	mu      sync.RWMutex
	pending *Clarification
	turns   []TurnRecord
}

func New() *Session {
	return &Session{id: uuid.New()}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Acquire enters the session's exclusive turn critical section and returns
// the release function. No two turns may hold the session concurrently.
func (s *Session) Acquire() func() {
	s.turnMu.Lock()
	return s.turnMu.Unlock
}

// Clarification returns a copy of the outstanding clarification, or nil.
func (s *Session) Clarification() *Clarification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pending == nil {
		return nil
	}
	clarification := s.pending.clone()
	return &clarification
}

// SetClarification stores the outstanding clarification, replacing any
// previous one.
func (s *Session) SetClarification(clarification Clarification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clarification.clone()
	s.pending = &stored
}

// ClearClarification drops the outstanding clarification. Called on every
// terminal resolution outcome.
func (s *Session) ClearClarification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
}

// RecordTurn appends the outcome of a completed turn.
func (s *Session) RecordTurn(record TurnRecord) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, record)
}

// Turns returns a copy of all recorded turns, earliest first.
func (s *Session) Turns() []TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]TurnRecord, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// History renders the last limit turns as conversational messages for
// backend context. A limit of zero or less means all turns.
func (s *Session) History(limit int) []llms.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	var messages []llms.Message
	for _, turn := range turns {
		if turn.Utterance != "" {
			messages = append(messages, llms.Message{Role: llms.MessageRoleUser, Content: turn.Utterance})
		}
		if turn.Reply != "" {
			messages = append(messages, llms.Message{Role: llms.MessageRoleAssistant, Content: turn.Reply})
		}
	}
	return messages
}

// Reset clears all dialogue state, starting a fresh conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	s.turns = nil
}
