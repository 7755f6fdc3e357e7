package state

import (
	"sync"
)

// Step is the current position of one user's onboarding dialogue.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingConsent
	StepSelectingBuilding
	StepAwaitingFlatNumber
)

// Key identifies one conversation. Private dialogues have UserID == ChatID,
// but both are kept so the store never mixes group and private traffic.
type Key struct {
	UserID int64
	ChatID int64
}

// Conversation is the step plus whatever partial record has been collected.
type Conversation struct {
	Step     Step
	Building string
}

// Store holds in-flight conversations in memory. Nothing survives a restart;
// an interrupted dialogue simply starts over from /start.
type Store struct {
	mu            sync.Mutex
	conversations map[Key]Conversation
}

func NewStore() *Store {
	return &Store{conversations: make(map[Key]Conversation)}
}

// Get returns the conversation for key, or an idle zero value.
func (s *Store) Get(key Key) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conversations[key]
}

func (s *Store) Set(key Key, c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[key] = c
}

func (s *Store) Clear(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, key)
}
