// Package eventlog batches campaign event logs and writes them to storage.
//
// A Logger builds logs for contacts, queues them, and flushes the queue to the
// repository once it reaches the batch size. Flushed logs are kept in memory,
// keyed by their storage identity, so callers can update and re-persist them
// until the end of the execution.
//
// A Logger is not safe for concurrent use. Create one per campaign execution.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/metrics"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/common/logging"
)

// DefaultBatchSize is the queue length that triggers an automatic flush.
const DefaultBatchSize = 20

var (
	// ErrMissingContact is returned by BuildRecord when no contact was given
	// and none could be resolved.
	ErrMissingContact = models.ErrMissingContact

	// ErrInvalidEvent is returned when a log is built for an event that is nil
	// or does not belong to a campaign.
	ErrInvalidEvent = errors.New("event must belong to a campaign")

	// ErrUnidentifiedRecord is returned by Flush when storage accepted a batch
	// but did not assign an identity to every log in it.
	ErrUnidentifiedRecord = errors.New("event log has no id after save")
)

// IPResolver returns the IP address of the current actor.
type IPResolver interface {
	CurrentIPAddress(ctx context.Context) string
}

// ContactResolver returns the contact of the current session.
// Implementations return an error wrapping models.ErrMissingContact when there is none.
type ContactResolver interface {
	CurrentContact(ctx context.Context) (*models.Contact, error)
}

// Repository persists event logs and tracks the ones it has loaded or saved.
// SaveEntities must assign IDs to unsaved logs and apply the batch atomically.
type Repository interface {
	SaveEntity(ctx context.Context, log *models.LeadEventLog) error
	SaveEntities(ctx context.Context, logs []*models.LeadEventLog) error
	DetachEntities(ctx context.Context, logs []*models.LeadEventLog) error
	DetachAll(ctx context.Context) error
}

// ChannelExtractor labels a log with the channel its event writes to.
type ChannelExtractor interface {
	SetChannel(log *models.LeadEventLog, event *models.Event, accessor *models.EventAccessor)
}

// Logger is the batched event log writer.
type Logger struct {
	ipResolver      IPResolver
	contactResolver ContactResolver
	repo            Repository
	channels        ChannelExtractor

	logger    *logging.Logger
	batchSize int
	now       func() time.Time

	queued    []*models.LeadEventLog
	processed *models.LogCollection
}

// Option configures a Logger.
type Option func(*Logger)

// WithBatchSize overrides DefaultBatchSize. Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the structured logger used for flush diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Logger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Logger over the given collaborators.
func New(ipResolver IPResolver, contactResolver ContactResolver, repo Repository, channels ChannelExtractor, opts ...Option) *Logger {
	l := &Logger{
		ipResolver:      ipResolver,
		contactResolver: contactResolver,
		repo:            repo,
		channels:        channels,
		logger:          logging.Default(),
		batchSize:       DefaultBatchSize,
		now:             time.Now,
		processed:       models.NewLogCollection(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queued = make([]*models.LeadEventLog, 0, l.batchSize)
	return l
}

// BatchSize returns the queue length that triggers an automatic flush.
func (l *Logger) BatchSize() int {
	return l.batchSize
}

// Pending returns the number of queued logs not yet written to storage.
func (l *Logger) Pending() int {
	return len(l.queued)
}

// Enqueue adds log to the pending queue and flushes once the queue reaches the
// batch size. A flush error is returned as is; the queue keeps its logs.
func (l *Logger) Enqueue(ctx context.Context, log *models.LeadEventLog) error {
	l.queued = append(l.queued, log)
	metrics.QueueDepth.Set(float64(len(l.queued)))

	if len(l.queued) >= l.batchSize {
		return l.Flush(ctx)
	}
	return nil
}

// PersistLog writes a single log immediately, bypassing the queue.
func (l *Logger) PersistLog(ctx context.Context, log *models.LeadEventLog) error {
	if err := l.repo.SaveEntity(ctx, log); err != nil {
		return fmt.Errorf("failed to persist event log: %w", err)
	}
	if id, ok := log.ID(); ok {
		l.logger.DebugContext(ctx, "persisted event log", logging.LogID(id), logging.ContactID(log.ContactID()))
	}
	return nil
}

// Flush writes the pending queue to storage in one batch and moves every saved
// log into the processed set. An empty queue is a no-op.
//
// When the repository fails, the queue is left untouched so a later Flush can
// retry the same batch.
//
// An ErrUnidentifiedRecord error means a partial move: the logs that came back
// with an ID are already in the processed set, and only the logs without one
// stay queued.
func (l *Logger) Flush(ctx context.Context) error {
	if len(l.queued) == 0 {
		return nil
	}

	start := time.Now()
	batch := l.queued
	if err := l.repo.SaveEntities(ctx, batch); err != nil {
		metrics.FlushErrors.Inc()
		l.logger.ErrorContext(ctx, "event log flush failed",
			logging.BatchSize(len(batch)),
			logging.Error(err),
		)
		return fmt.Errorf("failed to persist queued event logs: %w", err)
	}

	var unidentified []*models.LeadEventLog
	for _, log := range batch {
		id, ok := log.ID()
		if !ok {
			unidentified = append(unidentified, log)
			continue
		}
		l.processed.Set(id, log)
	}

	l.queued = make([]*models.LeadEventLog, 0, l.batchSize)
	persisted := len(batch) - len(unidentified)

	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	metrics.FlushBatchSize.Observe(float64(persisted))
	metrics.LogsPersistedTotal.Add(float64(persisted))

	if len(unidentified) > 0 {
		l.queued = append(l.queued, unidentified...)
		metrics.QueueDepth.Set(float64(len(l.queued)))
		metrics.FlushErrors.Inc()
		return fmt.Errorf("%w: %d of %d logs", ErrUnidentifiedRecord, len(unidentified), len(batch))
	}
	metrics.QueueDepth.Set(0)

	l.logger.DebugContext(ctx, "flushed event log batch",
		logging.BatchSize(persisted),
		"processed", l.processed.Len(),
	)
	return nil
}

// Logs returns the live processed set. Changes made by the caller are seen by
// Persist and Clear.
func (l *Logger) Logs() *models.LogCollection {
	return l.processed
}

// PersistCollection re-saves logs that were changed after being processed.
// It does not touch the writer's own processed set.
func (l *Logger) PersistCollection(ctx context.Context, logs *models.LogCollection) error {
	if logs == nil || logs.Len() == 0 {
		return nil
	}
	if err := l.repo.SaveEntities(ctx, logs.Values()); err != nil {
		return fmt.Errorf("failed to persist event log collection: %w", err)
	}
	return nil
}

// ClearCollection releases storage tracking for logs. They stay in the
// writer's processed set.
func (l *Logger) ClearCollection(ctx context.Context, logs *models.LogCollection) error {
	if logs == nil {
		return nil
	}
	if err := l.repo.DetachEntities(ctx, logs.Values()); err != nil {
		return fmt.Errorf("failed to detach event log collection: %w", err)
	}
	return nil
}

// Persist re-saves every processed log.
func (l *Logger) Persist(ctx context.Context) error {
	return l.PersistCollection(ctx, l.processed)
}

// Clear empties the processed set and detaches everything the repository
// tracks, not only the logs of this writer. Only call it when the execution
// that owns the repository is finished.
func (l *Logger) Clear(ctx context.Context) error {
	l.processed.Clear()
	if err := l.repo.DetachAll(ctx); err != nil {
		return fmt.Errorf("failed to detach tracked event logs: %w", err)
	}
	return nil
}
