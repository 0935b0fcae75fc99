// Package counter implements the fast impression counter store that sits in
// front of post analytics. Values accumulate here on the request path and are
// drained into durable storage by the reconciler.
package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ImpressionKeyPrefix prefixes every impression counter key.
const ImpressionKeyPrefix = "post:impressions:"

// Store is the contract the request path and the reconciler rely on.
// Increment must be atomic per key; GetAndDelete must read and clear in one step.
type Store interface {
	Increment(ctx context.Context, postID uint) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	GetAndDelete(ctx context.Context, key string) (int64, error)
}

// ImpressionKey returns post:impressions:<postID>.
func ImpressionKey(postID uint) string {
	return ImpressionKeyPrefix + strconv.FormatUint(uint64(postID), 10)
}

// ParseImpressionKey extracts the post id from an impression key.
func ParseImpressionKey(key string) (uint, error) {
	if !strings.HasPrefix(key, ImpressionKeyPrefix) {
		return 0, fmt.Errorf("invalid impression key: %s", key)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(key, ImpressionKeyPrefix), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid impression key: %s", key)
	}
	return uint(id), nil
}
