package handler

import (
	"context"
	"encoding/json"

	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/metrics"
)

// cachedPayload returns a cached body; lookup errors count as a miss.
func (a *API) cachedPayload(ctx context.Context, key string) ([]byte, bool) {
	callCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	payload, ok, err := a.cache.Get(callCtx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logging.Log.WithError(err).WithField("key", key).Warn("response cache lookup failed")
		return nil, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return payload, true
	}
}

func (a *API) storePayload(ctx context.Context, key string, payload []byte) {
	callCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	if err := a.cache.Set(callCtx, key, payload, a.cacheTTL); err != nil {
		metrics.CacheWrites.WithLabelValues("error").Inc()
		logging.Log.WithError(err).WithField("key", key).Warn("response cache write failed")
		return
	}
	metrics.CacheWrites.WithLabelValues("ok").Inc()
}

type idOnly struct {
	ID uint `json:"id"`
}

// listPayloadIDs decodes the post ids represented in a cached list body.
func listPayloadIDs(payload []byte) ([]uint, error) {
	var items []idOnly
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func detailPayloadID(payload []byte) (uint, error) {
	var item idOnly
	if err := json.Unmarshal(payload, &item); err != nil {
		return 0, err
	}
	return item.ID, nil
}
