// Package session implements a redis-backed session store for web
// logins.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/retry"
)

var ErrSessionNotFound = errors.New("session not found")

// redisCmdable is the slice of the go-redis API the store needs. The
// wbf wrapper's own Set/Get drop the expiration argument, so the store
// talks to the embedded client, which takes the TTL.
type redisCmdable interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// Store keeps sessions in redis under session:<id> with a TTL.
type Store struct {
	rdb      redisCmdable
	ttl      time.Duration
	strategy retry.Strategy
}

// NewStore creates a session Store with the given TTL.
func NewStore(rdb *redis.Client, ttl time.Duration, strategy retry.Strategy) *Store {
	return &Store{rdb: rdb.Client, ttl: ttl, strategy: strategy}
}

func key(id string) string {
	return "session:" + id
}

// Create opens a new session for the user and returns its id.
func (s *Store) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	id := uuid.NewString()

	err := retry.Do(func() error {
		return s.rdb.Set(ctx, key(id), userID.String(), s.ttl).Err()
	}, s.strategy)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return id, nil
}

// Get resolves a session id to the owning user.
func (s *Store) Get(ctx context.Context, id string) (uuid.UUID, error) {
	val, err := s.rdb.Get(ctx, key(id)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.Nil, ErrSessionNotFound
		}

		return uuid.Nil, fmt.Errorf("get session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse session value: %w", err)
	}

	return userID, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}
