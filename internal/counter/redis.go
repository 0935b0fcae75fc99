package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// getAndDeleteScript reads and removes a key atomically.
// GETDEL needs Redis 6.2; the script runs on any version.
var getAndDeleteScript = redis.NewScript(`
local value = redis.call('GET', KEYS[1])
if value then
	redis.call('DEL', KEYS[1])
end
return value
`)

// RedisStore keeps impression counters in Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Increment runs INCR, which creates the key at 1 when absent.
func (s *RedisStore) Increment(ctx context.Context, postID uint) error {
	if err := s.client.Incr(ctx, ImpressionKey(postID)).Err(); err != nil {
		return fmt.Errorf("incr impressions for post %d: %w", postID, err)
	}
	return nil
}

// Keys walks the keyspace with SCAN so large keyspaces never block the server.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return uniqueKeys(keys), nil
}

// GetAndDelete returns the counter value and clears it. A missing key yields 0.
func (s *RedisStore) GetAndDelete(ctx context.Context, key string) (int64, error) {
	value, err := getAndDeleteScript.Run(ctx, s.client, []string{key}).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get and delete %s: %w", key, err)
	}
	return value, nil
}

// SCAN may return a key more than once while the keyspace is rehashing.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
