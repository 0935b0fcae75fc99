package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blogpulse/internal/counter"
	"github.com/blogpulse/internal/db"
	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	defaultReconcileInterval = time.Minute
	persistTimeout           = 10 * time.Second
)

// ImpressionSink persists drained impressions into durable analytics.
type ImpressionSink interface {
	AddImpressions(ctx context.Context, postID uint, n uint64) (*db.PostAnalytics, error)
}

// ReconcileReport 汇总一次对账的结果。
type ReconcileReport struct {
	Keys        int   // keys enumerated
	Folded      int   // keys persisted into post_analytics
	Impressions int64 // impressions persisted
	Orphans     int   // keys whose post no longer exists
	Malformed   int   // keys without a parsable post id
	Failed      int   // keys drained but not persisted
	Lost        int64 // impressions drained but not persisted
}

// Reconciler 周期性地把快速计数器中的曝光数折叠进 post_analytics。
type Reconciler struct {
	store    counter.Store
	sink     ImpressionSink
	interval time.Duration
}

// NewReconciler creates a reconciler; a non-positive interval uses one minute.
func NewReconciler(store counter.Store, sink ImpressionSink, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	return &Reconciler{store: store, sink: sink, interval: interval}
}

// Run reconciles on every tick until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logging.Log.WithField("interval", r.interval.String()).Info("reconciler started")
	for {
		select {
		case <-ctx.Done():
			logging.Log.Info("reconciler stopped")
			return
		case <-ticker.C:
			report, err := r.ReconcileOnce(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Log.WithError(err).Error("reconcile cycle failed")
				continue
			}
			if report.Keys > 0 {
				logging.Log.WithFields(logrus.Fields{
					"keys":        report.Keys,
					"folded":      report.Folded,
					"impressions": report.Impressions,
					"orphans":     report.Orphans,
					"malformed":   report.Malformed,
					"failed":      report.Failed,
					"lost":        report.Lost,
				}).Info("reconcile cycle finished")
			}
		}
	}
}

// ReconcileOnce drains every impression key once. Per key problems are logged
// and reported, never returned; the error covers key enumeration and cancellation.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileReport, error) {
	start := time.Now()
	defer func() { metrics.ObserveReconcile(time.Since(start)) }()

	var report ReconcileReport
	keys, err := r.store.Keys(ctx, counter.ImpressionKeyPrefix)
	if err != nil {
		return report, fmt.Errorf("list impression keys: %w", err)
	}
	report.Keys = len(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.reconcileKey(ctx, key, &report)
	}
	return report, nil
}

func (r *Reconciler) reconcileKey(ctx context.Context, key string, report *ReconcileReport) {
	entry := logging.Log.WithField("key", key)

	postID, parseErr := counter.ParseImpressionKey(key)

	value, err := r.store.GetAndDelete(ctx, key)
	if err != nil {
		// Nothing was drained; the key stays for the next cycle.
		report.Failed++
		metrics.ReconciledKeys.WithLabelValues("failed").Inc()
		entry.WithError(err).Warn("drain impression key failed")
		return
	}

	if parseErr != nil {
		report.Malformed++
		metrics.ReconciledKeys.WithLabelValues("malformed").Inc()
		entry.WithField("value", value).Warn("reconciliation anomaly: malformed impression key drained")
		return
	}
	if value <= 0 {
		return
	}

	// A drained value is persisted even when shutdown cancels the cycle.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if _, err := r.sink.AddImpressions(persistCtx, postID, uint64(value)); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			report.Orphans++
			metrics.ReconciledKeys.WithLabelValues("orphan").Inc()
			entry.WithFields(logrus.Fields{"post_id": postID, "value": value}).
				Warn("reconciliation anomaly: post no longer exists")
			return
		}
		report.Failed++
		report.Lost += value
		metrics.ReconciledKeys.WithLabelValues("failed").Inc()
		metrics.LostImpressions.Add(float64(value))
		entry.WithError(err).WithFields(logrus.Fields{"post_id": postID, "lost": value}).
			Error("persist impressions failed")
		return
	}

	report.Folded++
	report.Impressions += value
	metrics.ReconciledKeys.WithLabelValues("folded").Inc()
	metrics.ReconciledImpressions.Add(float64(value))
}
