package eventlog

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/metrics"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/common/execution"
)

type buildOptions struct {
	contact  *models.Contact
	inactive bool
}

// BuildOption configures BuildRecord.
type BuildOption func(*buildOptions)

// WithContact builds the log for contact instead of the current session's contact.
func WithContact(contact *models.Contact) BuildOption {
	return func(o *buildOptions) {
		o.contact = contact
	}
}

// Inactive marks the log as having taken the non-action path of a decision.
func Inactive() BuildOption {
	return func(o *buildOptions) {
		o.inactive = true
	}
}

// InactiveIf applies Inactive when inactive is true.
func InactiveIf(inactive bool) BuildOption {
	return func(o *buildOptions) {
		o.inactive = inactive
	}
}

// BuildRecord creates an unsaved log for event. Nothing is queued or persisted.
//
// Without WithContact the contact comes from the ContactResolver, and its
// error (typically wrapping ErrMissingContact) is returned unchanged.
func (l *Logger) BuildRecord(ctx context.Context, event *models.Event, opts ...BuildOption) (*models.LeadEventLog, error) {
	if event == nil || event.Campaign == nil {
		return nil, ErrInvalidEvent
	}

	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	log := models.NewLeadEventLog()
	log.IPAddress = l.ipResolver.CurrentIPAddress(ctx)
	log.Event = event
	log.Campaign = event.Campaign

	contact := o.contact
	if contact == nil {
		resolved, err := l.contactResolver.CurrentContact(ctx)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, fmt.Errorf("contact resolver returned no contact: %w", ErrMissingContact)
		}
		contact = resolved
	}
	log.Contact = contact

	if o.inactive {
		log.NonActionPathTaken = true
	}

	log.DateTriggered = l.now()
	log.SystemTriggered = execution.IsSystemTriggered(ctx)

	metrics.LogsBuiltTotal.WithLabelValues(metrics.TriggerLabel(log.SystemTriggered)).Inc()
	return log, nil
}

// GenerateFromContacts gives every contact a log for event and flushes them
// before returning, whatever the batch size. The flush makes sure a contact
// cannot be picked up again for the same event while its log is still only in
// memory.
//
// All logs share the timestamp taken when the call starts. The returned
// collection is the writer's processed set.
func (l *Logger) GenerateFromContacts(ctx context.Context, event *models.Event, accessor *models.EventAccessor, contacts *models.ContactCollection, inactive bool) (*models.LogCollection, error) {
	triggered := l.now()

	if contacts != nil {
		for _, contact := range contacts.Values() {
			log, err := l.BuildRecord(ctx, event, WithContact(contact), InactiveIf(inactive))
			if err != nil {
				return nil, err
			}
			log.IsScheduled = false
			log.DateTriggered = triggered

			l.channels.SetChannel(log, event, accessor)

			if err := l.Enqueue(ctx, log); err != nil {
				return nil, err
			}
		}
	}

	if err := l.Flush(ctx); err != nil {
		return nil, err
	}

	return l.Logs(), nil
}

// ExtractContacts returns the distinct contacts referenced by logs, keyed by
// contact ID. When several logs share a contact, the last one wins.
func ExtractContacts(logs *models.LogCollection) *models.ContactCollection {
	contacts := models.NewContactCollection()
	if logs == nil {
		return contacts
	}
	for _, log := range logs.Values() {
		if log.Contact == nil {
			continue
		}
		contacts.Set(log.Contact.ID, log.Contact)
	}
	return contacts
}
