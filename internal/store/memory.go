package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/blockgpt-labs/blockgpt/server/internal/model/chat"
)

// MemoryStore implements Store with in-process maps, suitable for tests and
// local development without a database.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]chat.Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]map[string]chat.Session)}
}

func (s *MemoryStore) GetSession(_ context.Context, email, sessionID string) (chat.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return chat.Session{}, ErrInvalidSessionID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.partitions[email][sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	session.Conversation = append([]chat.Exchange(nil), session.Conversation...)
	return session, nil
}

func (s *MemoryStore) AppendExchange(_ context.Context, email, sessionID, name, picture string, exchange chat.Exchange) ([]chat.Exchange, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrInvalidSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.partitions[email]
	if !ok {
		partition = make(map[string]chat.Session)
		s.partitions[email] = partition
	}

	session := partition[sessionID]
	session.ID = sessionID
	session.Name = name
	session.Picture = picture
	session.Conversation = append(session.Conversation, exchange)
	partition[sessionID] = session

	return append([]chat.Exchange(nil), session.Conversation...), nil
}

func (s *MemoryStore) CreateSession(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.partitions[email]
	if !ok {
		partition = make(map[string]chat.Session)
		s.partitions[email] = partition
	}

	id := uuid.NewString()
	partition[id] = chat.Session{ID: id, Conversation: make([]chat.Exchange, 0)}
	return id, nil
}

func (s *MemoryStore) ListSessionIDs(_ context.Context, email string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.partitions[email]))
	for id := range s.partitions[email] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, email, sessionID string) (bool, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, ErrInvalidSessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partitions[email][sessionID]; !ok {
		return false, nil
	}
	delete(s.partitions[email], sessionID)
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
