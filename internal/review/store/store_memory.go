package store

import (
	"context"
	"sync"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/platform/sentinel"
)

// MemoryStore keeps serialized session records in process memory. It runs
// the same codec as the redis store so tests exercise the real round-trip,
// just without the network.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]map[Record][]byte
}

// NewMemory returns an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[id.SessionID]map[Record][]byte)}
}

func (s *MemoryStore) Create(ctx context.Context, session *models.Session) error {
	records, err := encodeRecords(session, AllRecords)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = records
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	// Decode under the read lock: a concurrent Save mutates the record map.
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decodeSession(records)
}

func (s *MemoryStore) Save(ctx context.Context, session *models.Session, records ...Record) error {
	encoded, err := encodeRecords(session, records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sessions[session.ID]
	if !ok {
		// A cleared session stays cleared: a late writer does not bring it back.
		return sentinel.ErrNotFound
	}
	for rec, data := range encoded {
		existing[rec] = data
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
