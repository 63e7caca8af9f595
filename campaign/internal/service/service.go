// Package service runs campaign event executions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/eventlog"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/metrics"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/repository"
	"github.com/telhawk-systems/campaign-stack/common/execution"
	"github.com/telhawk-systems/campaign-stack/common/logging"
)

// Trigger asks for an event to be logged for a set of contacts. With no
// contacts, the event is logged for the current contact of the session.
// It is the body of trigger messages, HTTP trigger requests and replay fixtures.
type Trigger struct {
	ExecutionID string                `json:"execution_id,omitempty" yaml:"execution_id,omitempty"`
	Event       *models.Event         `json:"event" yaml:"event"`
	Accessor    *models.EventAccessor `json:"accessor,omitempty" yaml:"accessor,omitempty"`
	Contacts    []*models.Contact     `json:"contacts,omitempty" yaml:"contacts,omitempty"`
	Inactive    bool                  `json:"inactive,omitempty" yaml:"inactive,omitempty"`
}

// Result describes the logs an execution persisted.
type Result struct {
	ExecutionID string    `json:"execution_id"`
	EventID     int64     `json:"event_id"`
	CampaignID  int64     `json:"campaign_id"`
	LogIDs      []int64   `json:"log_ids"`
	ContactIDs  []int64   `json:"contact_ids"`
	PersistedAt time.Time `json:"persisted_at"`
}

// Notifier announces persisted logs to other services.
type Notifier interface {
	LogsPersisted(ctx context.Context, result *Result) error
}

// Service provides campaign event executions.
type Service struct {
	repo      repository.Repository
	ip        eventlog.IPResolver
	contacts  eventlog.ContactResolver
	channels  eventlog.ChannelExtractor
	notifier  Notifier
	logger    *logging.Logger
	batchSize int
	now       func() time.Time
}

// Config wires the collaborators of a Service.
type Config struct {
	Repository repository.Repository
	IPResolver eventlog.IPResolver
	Contacts   eventlog.ContactResolver
	Channels   eventlog.ChannelExtractor
	Notifier   Notifier
	Logger     *logging.Logger
	BatchSize  int
}

// NewService creates a new Service instance
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = eventlog.DefaultBatchSize
	}
	return &Service{
		repo:      cfg.Repository,
		ip:        cfg.IPResolver,
		contacts:  cfg.Contacts,
		channels:  cfg.Channels,
		notifier:  cfg.Notifier,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Execute logs trigger.Event for every contact of the trigger in a fresh
// writer and repository session and announces the persisted logs. Every log
// is written once, by the flushes of the writer. The trigger is not modified;
// a generated execution ID is only reported through Result.ExecutionID.
// The session is cleared before Execute returns, whatever the outcome.
func (s *Service) Execute(ctx context.Context, trigger *Trigger) (result *Result, err error) {
	if trigger == nil || trigger.Event == nil || trigger.Event.Campaign == nil {
		return nil, eventlog.ErrInvalidEvent
	}

	executionID := trigger.ExecutionID
	if executionID == "" {
		executionID = uuid.NewString()
	}
	ctx = execution.WithID(ctx, executionID)
	logger := s.logger.With(
		logging.CampaignID(trigger.Event.CampaignID()),
		logging.EventID(trigger.Event.ID),
	)

	source := metrics.TriggerLabel(execution.IsSystemTriggered(ctx))
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ExecutionsTotal.WithLabelValues(source, status).Inc()
		metrics.ExecutionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	writer := eventlog.New(s.ip, s.contacts, s.repo.NewSession(), s.channels,
		eventlog.WithBatchSize(s.batchSize),
		eventlog.WithLogger(logger),
	)
	defer func() {
		if clearErr := writer.Clear(ctx); clearErr != nil {
			logger.ErrorContext(ctx, "failed to clear execution session", logging.Error(clearErr))
		}
	}()

	var logs *models.LogCollection
	if len(trigger.Contacts) == 0 {
		logs, err = s.logCurrentContact(ctx, writer, trigger)
	} else {
		logs, err = writer.GenerateFromContacts(ctx, trigger.Event, trigger.Accessor,
			models.NewContactCollection(trigger.Contacts...), trigger.Inactive)
	}
	if err != nil {
		logger.ErrorContext(ctx, "campaign execution failed", logging.Error(err))
		return nil, err
	}

	result = &Result{
		ExecutionID: executionID,
		EventID:     trigger.Event.ID,
		CampaignID:  trigger.Event.CampaignID(),
		LogIDs:      logs.Keys(),
		ContactIDs:  eventlog.ExtractContacts(logs).Keys(),
		PersistedAt: s.now().UTC(),
	}

	if s.notifier != nil && len(result.LogIDs) > 0 {
		if err := s.notifier.LogsPersisted(ctx, result); err != nil {
			// The logs are durable; a lost announcement is not an execution failure.
			logger.WarnContext(ctx, "failed to announce persisted logs", logging.Error(err))
		}
	}

	logger.InfoContext(ctx, "campaign execution completed",
		"logs", len(result.LogIDs),
		"contacts", len(result.ContactIDs),
	)
	return result, nil
}

// logCurrentContact logs the event for the contact of the current session.
func (s *Service) logCurrentContact(ctx context.Context, writer *eventlog.Logger, trigger *Trigger) (*models.LogCollection, error) {
	log, err := writer.BuildRecord(ctx, trigger.Event, eventlog.InactiveIf(trigger.Inactive))
	if err != nil {
		return nil, err
	}
	s.channels.SetChannel(log, trigger.Event, trigger.Accessor)

	if err := writer.Enqueue(ctx, log); err != nil {
		return nil, err
	}
	if err := writer.Flush(ctx); err != nil {
		return nil, err
	}
	return writer.Logs(), nil
}

// IsClientError reports whether err was caused by the trigger rather than by
// the service.
func IsClientError(err error) bool {
	return errors.Is(err, eventlog.ErrMissingContact) ||
		errors.Is(err, eventlog.ErrInvalidEvent) ||
		errors.Is(err, repository.ErrIncompleteLog) ||
		errors.Is(err, repository.ErrDuplicateLog)
}

// Ping checks the storage backend.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository unavailable: %w", err)
	}
	return nil
}
