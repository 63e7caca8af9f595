// Package contact tracks which contact is active in a tracking session.
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/common/middleware"
)

// DefaultSessionTTL is how long a session remembers its contact.
const DefaultSessionTTL = 30 * time.Minute

// ErrMissingContact is returned when no contact is tracked for the current session.
var ErrMissingContact = models.ErrMissingContact

// Tracker stores the current contact of each tracking session in Redis.
type Tracker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewTracker creates a tracker. A non-positive ttl uses DefaultSessionTTL.
func NewTracker(redisClient *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Tracker{
		redis: redisClient,
		ttl:   ttl,
	}
}

// IsEnabled returns whether a Redis client is configured.
func (t *Tracker) IsEnabled() bool {
	return t.redis != nil
}

// Ping checks Redis connectivity.
func (t *Tracker) Ping(ctx context.Context) error {
	if !t.IsEnabled() {
		return fmt.Errorf("contact tracker is disabled")
	}
	return t.redis.Ping(ctx).Err()
}

// CurrentContact returns the contact tracked for the session ID in ctx.
func (t *Tracker) CurrentContact(ctx context.Context) (*models.Contact, error) {
	sessionID := middleware.GetSessionID(ctx)
	if sessionID == "" {
		return nil, fmt.Errorf("no tracking session in context: %w", ErrMissingContact)
	}
	return t.Get(ctx, sessionID)
}

// Get returns the contact tracked for sessionID and refreshes its expiry.
func (t *Tracker) Get(ctx context.Context, sessionID string) (*models.Contact, error) {
	if !t.IsEnabled() {
		return nil, fmt.Errorf("contact tracker is disabled: %w", ErrMissingContact)
	}

	key := t.sessionKey(sessionID)
	data, err := t.redis.GetEx(ctx, key, t.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrMissingContact)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current contact: %w", err)
	}

	var contact models.Contact
	if err := json.Unmarshal([]byte(data), &contact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current contact: %w", err)
	}
	return &contact, nil
}

// SetCurrentContact tracks contact as the current contact of sessionID.
func (t *Tracker) SetCurrentContact(ctx context.Context, sessionID string, contact *models.Contact) error {
	if !t.IsEnabled() {
		return fmt.Errorf("contact tracker is disabled")
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if contact == nil || contact.ID <= 0 {
		return fmt.Errorf("contact id is required")
	}

	data, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	if err := t.redis.Set(ctx, t.sessionKey(sessionID), data, t.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save current contact: %w", err)
	}
	return nil
}

// Forget removes the tracked contact of sessionID.
func (t *Tracker) Forget(ctx context.Context, sessionID string) error {
	if !t.IsEnabled() {
		return nil
	}
	if err := t.redis.Del(ctx, t.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to forget current contact: %w", err)
	}
	return nil
}

func (t *Tracker) sessionKey(sessionID string) string {
	return "campaign:session:" + sessionID + ":contact"
}
