package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Sessions is the registry of live bearer tokens, keyed by token id.
// A token whose session key is gone (logout or TTL) is no longer valid.
type Sessions struct {
	rdb *redis.Client
}

func NewSessions(rdb *redis.Client) *Sessions {
	return &Sessions{rdb: rdb}
}

func (s *Sessions) Put(ctx context.Context, jti, userId string, ttl time.Duration) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeySession, jti), userId, ttl).Err()
}

func (s *Sessions) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, fmt.Sprintf(KeySession, jti)).Result()
	return n > 0, err
}

func (s *Sessions) Delete(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeySession, jti)).Err()
}
