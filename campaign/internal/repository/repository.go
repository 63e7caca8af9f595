// Package repository persists campaign event logs.
//
// Repositories hand out sessions. A session saves logs and keeps an identity
// map of the logs it has saved or loaded until they are detached. Each
// campaign execution works in its own session, so detaching everything only
// affects that execution.
package repository

import (
	"context"
	"errors"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
)

var (
	ErrLogNotFound   = errors.New("event log not found")
	ErrDuplicateLog  = errors.New("event log already exists for event, contact and rotation")
	ErrIncompleteLog = errors.New("event log must reference an event, a campaign and a contact")
)

// Session is a unit of work over event logs.
type Session interface {
	// SaveEntity inserts or updates one log.
	SaveEntity(ctx context.Context, log *models.LeadEventLog) error

	// SaveEntities inserts unsaved logs and updates saved ones atomically.
	// IDs are assigned to inserted logs only once the whole batch succeeded.
	SaveEntities(ctx context.Context, logs []*models.LeadEventLog) error

	// DetachEntities stops tracking logs.
	DetachEntities(ctx context.Context, logs []*models.LeadEventLog) error

	// DetachAll stops tracking every log of the session.
	DetachAll(ctx context.Context) error

	// Find returns the tracked log with id, loading it when untracked.
	Find(ctx context.Context, id int64) (*models.LeadEventLog, error)

	// Tracked returns the number of logs in the identity map.
	Tracked() int
}

// Repository opens sessions over a storage backend.
type Repository interface {
	NewSession() Session
	Ping(ctx context.Context) error
	Close() error
}

func validate(log *models.LeadEventLog) error {
	if log == nil || log.Event == nil || log.Campaign == nil || log.Contact == nil {
		return ErrIncompleteLog
	}
	return nil
}

// identityMap tracks the logs a session has saved or loaded.
type identityMap map[int64]*models.LeadEventLog

func (m identityMap) track(log *models.LeadEventLog) {
	if id, ok := log.ID(); ok {
		m[id] = log
	}
}

func (m identityMap) detach(log *models.LeadEventLog) {
	if log == nil {
		return
	}
	if id, ok := log.ID(); ok {
		delete(m, id)
	}
}
