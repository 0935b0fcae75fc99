// Package cache holds serialized API responses for a short TTL.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a serialized response stays valid.
const DefaultTTL = 5 * time.Minute

// PostListKey caches the published post list.
const PostListKey = "post_list"

// PostDetailKey caches a post detail response by slug.
func PostDetailKey(slug string) string {
	return "post_detail:" + slug
}

// Cache stores opaque payloads. A miss is (nil, false, nil); errors are reserved
// for an unavailable backend so callers can fall through to the durable store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
