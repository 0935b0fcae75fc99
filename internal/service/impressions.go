package service

import (
	"context"
	"time"

	"github.com/blogpulse/internal/counter"
	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/metrics"
	"github.com/sirupsen/logrus"
)

const defaultStoreTimeout = 200 * time.Millisecond

// ImpressionRecorder 在请求路径上累加曝光计数，存储不可用时记录日志后放弃。
type ImpressionRecorder struct {
	store   counter.Store
	timeout time.Duration
}

// NewImpressionRecorder creates a recorder; a non-positive timeout uses 200ms.
func NewImpressionRecorder(store counter.Store, timeout time.Duration) *ImpressionRecorder {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &ImpressionRecorder{store: store, timeout: timeout}
}

// Record increments the counter once per post id, in order. It returns how many
// increments succeeded; failures never propagate to the caller.
func (r *ImpressionRecorder) Record(ctx context.Context, postIDs ...uint) int {
	recorded := 0
	for _, id := range postIDs {
		if id == 0 {
			continue
		}
		if err := r.increment(ctx, id); err != nil {
			metrics.ImpressionIncrements.WithLabelValues("dropped").Inc()
			logging.Log.WithError(err).WithFields(logrus.Fields{
				"post_id": id,
				"key":     counter.ImpressionKey(id),
			}).Warn("impression increment dropped")
			continue
		}
		metrics.ImpressionIncrements.WithLabelValues("ok").Inc()
		recorded++
	}
	return recorded
}

func (r *ImpressionRecorder) increment(ctx context.Context, postID uint) error {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.Increment(callCtx, postID)
}
