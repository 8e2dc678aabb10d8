package memory

import (
	"context"
	"sync"

	id "claimcheck/pkg/domain"
	audit "claimcheck/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.UserID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.UserID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.UserID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.UserID] = append(s.events[event.UserID], event)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[userID]...), nil
}

// ListBySession returns all events recorded for one review session, in
// emission order. Used by service tests to assert the audit trail.
func (s *InMemoryStore) ListBySession(_ context.Context, sessionID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Event
	for _, userEvents := range s.events {
		for _, event := range userEvents {
			if event.SessionID == sessionID {
				matched = append(matched, event)
			}
		}
	}
	return matched, nil
}
