package deletion

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/pkg/logger"
	"github.com/fleetdocs/backend/pkg/retry"
)

var (
	ErrQueueClosed = errors.New("deletion queue is shutting down")
	ErrQueueFull   = errors.New("deletion queue is full")
)

// Deleter is the part of file storage the queue needs.
type Deleter interface {
	Delete(ctx context.Context, fileID, ownerID string, permanent bool) error
}

type Job struct {
	FileID    string
	OwnerID   string
	Permanent bool
	// Reason is logged only, e.g. "record_deleted" or "overwritten".
	Reason      string
	SubmittedAt time.Time
}

// Queue deletes storage files in the background after their records are gone.
// A job that exhausts its attempts is logged and dropped.
type Queue struct {
	deleter     Deleter
	workers     int
	timeout     time.Duration
	enqueueWait time.Duration
	retryConfig retry.Config

	ch      chan Job
	quit    chan struct{}
	wg      sync.WaitGroup
	senders sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithBackoff sets attempts and the capped exponential delay between them.
func WithBackoff(maxAttempts int, initial, max time.Duration) Option {
	return func(q *Queue) {
		if maxAttempts > 0 {
			q.retryConfig.MaxAttempts = maxAttempts
		}
		if initial > 0 {
			q.retryConfig.InitialDelay = initial
		}
		if max > 0 {
			q.retryConfig.MaxDelay = max
		}
	}
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithEnqueueWait bounds how long Enqueue waits for room in a full buffer
// before dropping the job.
func WithEnqueueWait(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.enqueueWait = d
		}
	}
}

func NewQueue(deleter Deleter, opts ...Option) *Queue {
	q := &Queue{
		deleter:     deleter,
		workers:     2,
		timeout:     2 * time.Minute,
		enqueueWait: time.Second,
		ch:          make(chan Job, 256),
		quit:        make(chan struct{}),
		retryConfig: retry.Config{
			MaxAttempts:    5,
			InitialDelay:   2 * time.Second,
			MaxDelay:       time.Minute,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
			OnRetry: func(int, error) {
				metrics.StorageDeletions.WithLabelValues("retry").Inc()
			},
		},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				logger.Debug("Deletion worker started", zap.Int("worker_id", workerID))

				for job := range q.ch {
					q.process(workerID, job)
				}

				logger.Debug("Deletion worker stopped", zap.Int("worker_id", workerID))
			}(i + 1)
		}
	})
}

func (q *Queue) process(workerID int, job Job) {
	log := logger.With(
		zap.Int("worker_id", workerID),
		zap.String("file_id", job.FileID),
		zap.String("reason", job.Reason),
	)

	err := retry.Do(context.Background(), q.retryConfig, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		return q.deleter.Delete(ctx, job.FileID, job.OwnerID, job.Permanent)
	})
	if err != nil {
		metrics.StorageDeletions.WithLabelValues("gave_up").Inc()
		log.Error("Giving up on storage deletion",
			zap.Int("attempts", q.retryConfig.MaxAttempts),
			zap.Error(err),
		)
		return
	}

	metrics.StorageDeletions.WithLabelValues("success").Inc()
	log.Info("Storage file deleted", zap.Duration("queued_for", time.Since(job.SubmittedAt)))
}

// Enqueue waits at most the enqueue wait for room in a full buffer, then
// drops the job with ErrQueueFull. It never holds the queue lock while waiting.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.FileID == "" {
		return nil
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logger.Warn("Cannot enqueue storage deletion: queue is shutting down", zap.String("file_id", job.FileID))
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		logger.Debug("Queued storage deletion", zap.String("file_id", job.FileID), zap.String("reason", job.Reason))
		return nil
	default:
	}

	logger.Warn("Deletion queue full, waiting for room",
		zap.String("file_id", job.FileID),
		zap.Duration("max_wait", q.enqueueWait),
	)
	timer := time.NewTimer(q.enqueueWait)
	defer timer.Stop()

	select {
	case q.ch <- job:
		return nil
	case <-q.quit:
		return ErrQueueClosed
	case <-ctx.Done():
		q.dropped(job)
		return ctx.Err()
	case <-timer.C:
		q.dropped(job)
		return ErrQueueFull
	}
}

func (q *Queue) dropped(job Job) {
	metrics.StorageDeletions.WithLabelValues("dropped").Inc()
	logger.Error("Dropped storage deletion, file must be removed by hand",
		zap.String("file_id", job.FileID),
		zap.String("owner_id", job.OwnerID),
		zap.String("reason", job.Reason),
	)
}

// Shutdown stops intake and waits for queued jobs until ctx is done.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	// Waiting senders leave on quit; the channel closes once none remain.
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		logger.Warn("Deletion queue shutdown interrupted", zap.Int("pending", len(q.ch)))
	case <-done:
		logger.Info("Deletion queue drained")
	}
}
