package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/platform/sentinel"
)

// Redis key layout: one hash per session, record name = hash field.
const sessionKeyPrefix = "review:session:"

// DefaultSessionTTL bounds how long an untouched session survives. Every
// write refreshes the clock, so an active review never expires under the
// reviewer.
const DefaultSessionTTL = 24 * time.Hour

func sessionKey(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

// RedisStore persists sessions in one redis hash per session. Clear maps to
// DEL, which drops all records atomically.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedis builds a redis-backed session store. The client lifecycle is
// managed by the caller.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultSessionTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	records, err := encodeRecords(session, AllRecords)
	if err != nil {
		return err
	}
	key := sessionKey(session.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check session existence: %w", err)
	}
	if exists > 0 {
		return sentinel.ErrConflict
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, flatten(records))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	raw, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(raw) == 0 {
		// HGETALL returns an empty map for a missing key, not redis.Nil.
		return nil, sentinel.ErrNotFound
	}

	records := make(map[Record][]byte, len(raw))
	for field, value := range raw {
		records[Record(field)] = []byte(value)
	}
	return decodeSession(records)
}

func (s *RedisStore) Save(ctx context.Context, session *models.Session, records ...Record) error {
	encoded, err := encodeRecords(session, records)
	if err != nil {
		return err
	}
	key := sessionKey(session.ID)

	// A cleared session stays cleared: a late writer does not bring it back.
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check session existence: %w", err)
	}
	if exists == 0 {
		return sentinel.ErrNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, flatten(encoded))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session records: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID id.SessionID) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// flatten converts the record map to the alternating field/value slice HSET
// takes.
func flatten(records map[Record][]byte) []any {
	out := make([]any, 0, len(records)*2)
	for rec, data := range records {
		out = append(out, string(rec), string(data))
	}
	return out
}
