// Package session keeps per-user conversation history in memory.
//
// History is scoped by (user ID, session ID) so one user can hold several
// independent conversations. Nothing is persisted; a restart starts every
// conversation fresh.
package session

import (
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/apiconf/ndu/internal/log"
)

// Key identifies one conversation.
type Key struct {
	UserID    string
	SessionID string
}

// Conversation is an ordered message history. Safe for concurrent use.
type Conversation struct {
	key       Key
	createdAt time.Time

	mu         sync.Mutex
	lastActive time.Time
	history    []*ai.Message
}

// Key returns the conversation's identity.
func (c *Conversation) Key() Key { return c.key }

// CreatedAt returns when the conversation was first opened.
func (c *Conversation) CreatedAt() time.Time { return c.createdAt }

// LastActive returns when the conversation last changed.
func (c *Conversation) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Append adds messages to the history in order.
func (c *Conversation) Append(msgs ...*ai.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, msgs...)
	c.lastActive = time.Now()
}

// History returns a copy of the message history. The slice is the caller's
// to keep; later appends do not mutate it.
func (c *Conversation) History() []*ai.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ai.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// Store holds all live conversations.
type Store struct {
	logger log.Logger

	mu            sync.Mutex
	conversations map[Key]*Conversation
}

// NewStore builds an empty store.
func NewStore(logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		logger:        logger,
		conversations: make(map[Key]*Conversation),
	}
}

// GetOrCreate returns the conversation for key, creating it if absent.
// Lookup and creation happen under one lock, so concurrent callers with the
// same key always share a single conversation.
func (s *Store) GetOrCreate(key Key) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[key]; ok {
		return conv
	}
	now := time.Now()
	conv := &Conversation{key: key, createdAt: now, lastActive: now}
	s.conversations[key] = conv
	s.logger.Debug("conversation opened", "user_id", key.UserID, "session_id", key.SessionID)
	return conv
}

// Get returns the conversation for key if it exists.
func (s *Store) Get(key Key) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[key]
	return conv, ok
}

// Delete removes the conversation for key, if any.
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, key)
}

// Count returns the number of live conversations.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}
