package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/sirupsen/logrus"
)

// RebuildJob is one queued request for a global rebuild
type RebuildJob struct {
	Reason      string
	RequestedAt time.Time
}

// RebuilderImpl serialises global embedding rebuilds behind a single worker.
// Requests arriving while the queue is full are dropped: the queued rebuild
// will read the latest corpus anyway.
type RebuilderImpl struct {
	embedder Embedder
	notifier LiveNotifier
	log      *logrus.Entry

	jobs   chan RebuildJob
	runMu  sync.Mutex // held for the duration of a rebuild
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRebuilder creates the worker; call Start to begin processing.
// notifier may be nil.
func NewRebuilder(embedder Embedder, notifier LiveNotifier, queueSize int, log *logrus.Entry) *RebuilderImpl {
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RebuilderImpl{
		embedder: embedder,
		notifier: notifier,
		log:      log,
		jobs:     make(chan RebuildJob, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *RebuilderImpl) Start() {
	r.wg.Add(1)
	go r.worker()
	r.log.Info("Embedding rebuild worker started")
}

func (r *RebuilderImpl) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case job := <-r.jobs:
			if _, err := r.run(r.ctx, job.Reason); err != nil {
				r.log.WithError(err).WithField("reason", job.Reason).Error("Embedding rebuild failed")
			}
		}
	}
}

// Trigger queues a rebuild without blocking. It reports whether the request
// was queued; false means one is already pending or the worker is stopping.
func (r *RebuilderImpl) Trigger(reason string) bool {
	if r.ctx.Err() != nil {
		return false
	}
	select {
	case r.jobs <- RebuildJob{Reason: reason, RequestedAt: time.Now()}:
		r.log.WithField("reason", reason).Debug("Embedding rebuild queued")
		return true
	default:
		r.log.WithField("reason", reason).Debug("Embedding rebuild already pending")
		return false
	}
}

// RunNow rebuilds synchronously, waiting for any rebuild in progress first.
func (r *RebuilderImpl) RunNow(ctx context.Context) (int, error) {
	return r.run(ctx, "manual")
}

func (r *RebuilderImpl) run(ctx context.Context, reason string) (int, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	started := time.Now()
	count, err := r.embedder.RebuildAllEmbeddings(ctx)
	if err != nil {
		return count, fmt.Errorf("rebuild (%s) stopped after %d events: %w", reason, count, err)
	}

	r.log.WithFields(logrus.Fields{
		"reason":    reason,
		"processed": count,
		"took":      time.Since(started).String(),
	}).Info("Embedding rebuild completed")

	if r.notifier != nil {
		r.notifier.Publish(models.GlobalRoom, &models.LiveMessage{
			Type:   models.LiveEmbeddingsRebuilt,
			Data:   map[string]any{"processed": count},
			SentAt: time.Now(),
		})
	}
	return count, nil
}

// Shutdown stops the worker, cancelling a rebuild in progress
func (r *RebuilderImpl) Shutdown() {
	r.log.Info("Shutting down embedding rebuild worker")
	r.cancel()
	r.wg.Wait()
}

// GetQueueLength returns the number of pending rebuild requests
func (r *RebuilderImpl) GetQueueLength() int {
	return len(r.jobs)
}
