package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultQueueSize    = 1024
	writeTimeout        = 5 * time.Second
	shutdownGracePeriod = 10 * time.Second
)

// WriterPort persists entries. Implemented by Repository.
type WriterPort interface {
	Insert(ctx context.Context, entry Entry) error
}

// QueueMetrics observes recorder queue behaviour.
type QueueMetrics interface {
	AuditRecorded()
	AuditDropped()
}

type noopMetrics struct{}

func (noopMetrics) AuditRecorded() {}
func (noopMetrics) AuditDropped() {}

// Recorder accepts entries on a bounded queue and writes them from a
// background goroutine. Record never blocks the caller: when the queue is
// full the entry is dropped, counted and logged.
type Recorder struct {
	writer  WriterPort
	logger  *slog.Logger
	metrics QueueMetrics
	queue   chan Entry
	wg      sync.WaitGroup
	once    sync.Once
}

// RecorderConfig groups optional recorder settings.
type RecorderConfig struct {
	QueueSize int
	Metrics   QueueMetrics
}

// NewRecorder constructs a Recorder and starts its background writer.
func NewRecorder(writer WriterPort, logger *slog.Logger, cfg RecorderConfig) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	r := &Recorder{
		writer:  writer,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan Entry, size),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record assigns an ID and timestamp, enqueues the entry and returns the ID
// immediately. The caller's context is not used for the write: the operation
// being audited has usually already committed by the time the entry lands.
func (r *Recorder) Record(entry Entry) uuid.UUID {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	select {
	case r.queue <- entry:
	default:
		r.metrics.AuditDropped()
		r.logger.Warn("audit queue full, entry dropped",
			slog.String("action", entry.Action),
			slog.String("actor_id", entry.ActorID))
	}
	return entry.ID
}

// Close stops accepting entries and drains the queue.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
	})
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGracePeriod):
		r.logger.Warn("audit recorder shutdown timed out")
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.writer.Insert(ctx, entry); err != nil {
			// Audit failures never surface to the audited operation.
			r.logger.Warn("write audit entry",
				slog.String("action", entry.Action),
				slog.Any("error", err))
		} else {
			r.metrics.AuditRecorded()
		}
		cancel()
	}
}
