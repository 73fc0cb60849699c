// Package redis provides Redis-backed implementations of domain interfaces.
package redis

import (
	"context"
	stderrors "errors"

	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipgate/clipgate/internal/domain/service"
	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/utils"
)

const linkTokenKeyPrefix = "lt:"

// redisLinkTokenStore is a Redis-backed implementation of LinkTokenStore.
// Keys carry the namespace so unrelated surfaces cannot collide, and TTL
// expiry is delegated to Redis entirely.
type redisLinkTokenStore struct {
	client *redis.Client
}

// NewLinkTokenStore creates a new Redis-backed link token store.
func NewLinkTokenStore(client *redis.Client) service.LinkTokenStore {
	return &redisLinkTokenStore{client: client}
}

func tokenKey(namespace, token string) string {
	return linkTokenKeyPrefix + namespace + ":" + token
}

// Mint generates a fresh token and stores the value under it. SetNX guards
// against the unlikely token collision; on collision a new token is drawn.
func (s *redisLinkTokenStore) Mint(ctx context.Context, namespace, value string, ttl time.Duration) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		token := utils.RandomToken(constants.LinkTokenLength)
		ok, err := s.client.SetNX(ctx, tokenKey(namespace, token), value, ttl).Result()
		if err != nil {
			return "", errors.ErrInternal("link token store").WithCause(err)
		}
		if ok {
			return token, nil
		}
	}
	return "", errors.ErrInternal("link token collision")
}

// Resolve returns the stored value, or "" when the token is unknown or
// already expired.
func (s *redisLinkTokenStore) Resolve(ctx context.Context, namespace, token string) (string, error) {
	value, err := s.client.Get(ctx, tokenKey(namespace, token)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.ErrInternal("link token lookup").WithCause(err)
	}
	return value, nil
}

// Delete removes the token. Absent tokens are ignored.
func (s *redisLinkTokenStore) Delete(ctx context.Context, namespace, token string) error {
	if err := s.client.Del(ctx, tokenKey(namespace, token)).Err(); err != nil {
		return errors.ErrInternal("link token delete").WithCause(err)
	}
	return nil
}
