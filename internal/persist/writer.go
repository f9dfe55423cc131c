// Package persist is the best-effort write side-channel. Report rows,
// chat transcripts, and audit entries are queued here so a slow or
// briefly unavailable database never blocks or fails a user request.
// Writes are retried with backoff; after the last attempt they are
// dropped with a log line, never surfaced to the caller.
package persist

import (
	"sync"
	"time"

	"genome-ai/internal/logging"
	"genome-ai/internal/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// writeOp is one queued database write
type writeOp struct {
	name    string
	fn      func(db *gorm.DB) error
	attempt int
}

// Writer drains queued writes on a single background worker
type Writer struct {
	db          *gorm.DB
	queue       chan writeOp
	wg          sync.WaitGroup
	closeOnce   sync.Once
	maxAttempts int
	backoffBase time.Duration
}

// Option configures a Writer
type Option func(*Writer)

// WithQueueSize overrides the queue capacity
func WithQueueSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.queue = make(chan writeOp, n)
		}
	}
}

// WithMaxAttempts overrides how many times a failed write is tried
func WithMaxAttempts(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithBackoffBase overrides the first retry delay
func WithBackoffBase(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.backoffBase = d
		}
	}
}

// NewWriter creates a writer and starts its worker
func NewWriter(db *gorm.DB, opts ...Option) *Writer {
	w := &Writer{
		db:          db,
		queue:       make(chan writeOp, defaultQueueSize),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()
	return w
}

// Enqueue queues a write. Returns false if the queue is full, in which
// case the write is counted as dropped and logged.
func (w *Writer) Enqueue(name string, fn func(db *gorm.DB) error) bool {
	select {
	case w.queue <- writeOp{name: name, fn: fn}:
		metrics.Get().PersistQueueLength.Set(float64(len(w.queue)))
		return true
	default:
		metrics.Get().PersistWritesTotal.WithLabelValues("dropped").Inc()
		logging.L().Warn("Persist queue full, dropping write", zap.String("op", name))
		return false
	}
}

// Save queues an insert of the given record
func (w *Writer) Save(name string, record interface{}) bool {
	return w.Enqueue(name, func(db *gorm.DB) error {
		return db.Create(record).Error
	})
}

// Close stops accepting writes and blocks until the queue drains
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

func (w *Writer) run() {
	defer w.wg.Done()

	for op := range w.queue {
		metrics.Get().PersistQueueLength.Set(float64(len(w.queue)))
		w.execute(op)
	}
}

func (w *Writer) execute(op writeOp) {
	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err = op.fn(w.db); err == nil {
			metrics.Get().PersistWritesTotal.WithLabelValues("success").Inc()
			return
		}
		if attempt < w.maxAttempts {
			metrics.Get().PersistWritesTotal.WithLabelValues("retry").Inc()
			time.Sleep(w.backoffBase * time.Duration(1<<(attempt-1)))
		}
	}

	metrics.Get().PersistWritesTotal.WithLabelValues("dropped").Inc()
	logging.L().Error("Persist write failed after retries",
		zap.String("op", op.name),
		zap.Int("attempts", w.maxAttempts),
		zap.Error(err))
}
