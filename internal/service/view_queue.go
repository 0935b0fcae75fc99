package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blogpulse/internal/logging"
	"github.com/blogpulse/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	defaultViewWorkers   = 4
	defaultViewQueueSize = 1024
	registerViewTimeout  = 5 * time.Second
)

// ViewRegistrar dedups and counts one view.
type ViewRegistrar interface {
	RegisterView(ctx context.Context, postID uint, clientAddress string) (bool, error)
}

// ViewScheduler hands a view registration off the request path. Schedule does not
// wait for the registration and reports whether it was accepted.
type ViewScheduler interface {
	Schedule(postID uint, clientAddress string) bool
}

// ProcessView registers a view and records the outcome in metrics and logs.
func ProcessView(ctx context.Context, registrar ViewRegistrar, postID uint, clientAddress string) error {
	callCtx, cancel := context.WithTimeout(ctx, registerViewTimeout)
	defer cancel()

	counted, err := registrar.RegisterView(callCtx, postID, clientAddress)
	switch {
	case err != nil:
		metrics.ViewRegistrations.WithLabelValues("failed").Inc()
		logging.Log.WithError(err).WithFields(logrus.Fields{
			"post_id":        postID,
			"client_address": clientAddress,
		}).Warn("register view failed")
		return err
	case counted:
		metrics.ViewRegistrations.WithLabelValues("counted").Inc()
	default:
		metrics.ViewRegistrations.WithLabelValues("duplicate").Inc()
	}
	return nil
}

type viewJob struct {
	postID        uint
	clientAddress string
}

// ViewQueue 是固定大小的浏览登记工作池，队列满时丢弃并告警。
type ViewQueue struct {
	registrar ViewRegistrar
	jobs      chan viewJob

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewViewQueue starts workers goroutines reading from a queue of size capacity.
func NewViewQueue(registrar ViewRegistrar, workers, capacity int) *ViewQueue {
	if workers <= 0 {
		workers = defaultViewWorkers
	}
	if capacity <= 0 {
		capacity = defaultViewQueueSize
	}

	q := &ViewQueue{registrar: registrar, jobs: make(chan viewJob, capacity)}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *ViewQueue) Schedule(postID uint, clientAddress string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.ViewRegistrations.WithLabelValues("dropped").Inc()
		return false
	}

	select {
	case q.jobs <- viewJob{postID: postID, clientAddress: clientAddress}:
		metrics.ViewQueueDepth.Set(float64(len(q.jobs)))
		return true
	default:
		metrics.ViewRegistrations.WithLabelValues("dropped").Inc()
		logging.Log.WithFields(logrus.Fields{
			"post_id":        postID,
			"client_address": clientAddress,
			"capacity":       cap(q.jobs),
		}).Warn("view queue full, registration dropped")
		return false
	}
}

// Close stops accepting work and waits for queued registrations to finish or ctx to expire.
func (q *ViewQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("view queue did not drain"), ctx.Err())
	}
}

func (q *ViewQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		metrics.ViewQueueDepth.Set(float64(len(q.jobs)))
		_ = ProcessView(context.Background(), q.registrar, job.postID, job.clientAddress)
	}
}
