package audit

import (
	"context"

	id "claimcheck/pkg/domain"
)

// Store persists audit events. Implementations decide durability: the
// in-memory store backs tests and local runs, the postgres store writes to
// the transactional outbox for Kafka publishing.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
