package data

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
)

const redisKeyPrefix = "portal:storage:"

// redisStorage keeps each browser scope in one Redis hash.
type redisStorage struct {
	client redis.UniversalClient
}

var _ biz.LocalStorage = (*redisStorage)(nil)

// NewRedisStorage wraps an existing client.
func NewRedisStorage(client redis.UniversalClient) biz.LocalStorage {
	return &redisStorage{client: client}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

func redisKey(scope string) string {
	return redisKeyPrefix + scope
}

// Get returns the values present among keys.
func (s *redisStorage) Get(ctx context.Context, scope string, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.client.HMGet(ctx, redisKey(scope), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load scope: %w", err)
	}
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// SetMany writes all entries with a single HSET.
func (s *redisStorage) SetMany(ctx context.Context, scope string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	args := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		args = append(args, k, v)
	}
	if err := s.client.HSet(ctx, redisKey(scope), args...).Err(); err != nil {
		return fmt.Errorf("persist scope: %w", err)
	}
	return nil
}

// Delete removes keys from the scope's hash.
func (s *redisStorage) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, redisKey(scope), keys...).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete from scope: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *redisStorage) Close() error {
	return s.client.Close()
}
