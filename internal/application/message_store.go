package application

import (
	"fmt"
	"sync"

	"github.com/recallo/recallo-cli/internal/domain"
)

// MessageStore is the ordered message log of the active conversation. It
// performs no I/O.
type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	index    map[domain.MessageID]int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{index: map[domain.MessageID]int{}}
}

func (s *MessageStore) Append(message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[message.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateMessageID, message.ID)
	}

	s.index[message.ID] = len(s.messages)
	s.messages = append(s.messages, message)
	return nil
}

// Replace swaps the message stored under id for message in place. message may
// carry a different id as long as it does not collide with another entry.
func (s *MessageStore) Replace(id domain.MessageID, message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMessageNotFound, id)
	}
	if message.ID != id {
		if _, taken := s.index[message.ID]; taken {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateMessageID, message.ID)
		}
		delete(s.index, id)
		s.index[message.ID] = pos
	}

	s.messages[pos] = message
	return nil
}

func (s *MessageStore) RemoveByID(id domain.MessageID) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s", domain.ErrMessageNotFound, id)
	}

	removed := s.messages[pos]
	s.messages = append(s.messages[:pos:pos], s.messages[pos+1:]...)
	s.reindex()
	return removed, nil
}

// ResetTo replaces the whole log. The input slice is copied.
func (s *MessageStore) ResetTo(messages []domain.Message) error {
	index := make(map[domain.MessageID]int, len(messages))
	for i, message := range messages {
		if _, ok := index[message.ID]; ok {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateMessageID, message.ID)
		}
		index[message.ID] = i
	}

	copied := make([]domain.Message, len(messages))
	copy(copied, messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = copied
	s.index = index
	return nil
}

// Snapshot returns a copy of the log; mutating it does not affect the store.
func (s *MessageStore) Snapshot() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]domain.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

func (s *MessageStore) Get(id domain.MessageID) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return domain.Message{}, false
	}
	return s.messages[pos], true
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}

func (s *MessageStore) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, message := range s.messages {
		if message.IsPending() {
			count++
		}
	}
	return count
}

func (s *MessageStore) reindex() {
	s.index = make(map[domain.MessageID]int, len(s.messages))
	for i, message := range s.messages {
		s.index[message.ID] = i
	}
}
