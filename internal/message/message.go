// Package message provides the immutable Message type and an append-only,
// ordered in-memory log of submitted messages.
package message

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrEmptyText is returned when a submission contains no text.
var ErrEmptyText = errors.New("message text must not be empty")

// Message is one user-submitted text. Immutable once created; never
// deleted within a session.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an append-only ordered log of messages. Safe for concurrent
// use.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	byID     map[string]int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Append creates a Message for text and adds it to the log, returning the
// created message.
func (s *Store) Append(text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:        generateID(),
		Text:      text,
		Seq:       len(s.messages),
		CreatedAt: time.Now(),
	}
	s.byID[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	return msg, nil
}

// Get returns the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return Message{}, false
	}
	return s.messages[idx], true
}

// All returns the messages in submission order.
func (s *Store) All() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Restore replaces the log with previously persisted messages, keeping
// their original order. Used only during startup rehydration.
func (s *Store) Restore(messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = make([]Message, len(messages))
	copy(s.messages, messages)
	s.byID = make(map[string]int, len(messages))
	for i, m := range s.messages {
		s.messages[i].Seq = i
		s.byID[m.ID] = i
	}
}

// generateID returns a random 8-byte hex identifier.
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a time-derived id rather than crash.
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000000")))[:16]
	}
	return hex.EncodeToString(b)
}
