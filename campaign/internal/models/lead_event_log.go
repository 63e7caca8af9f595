package models

import (
	"errors"
	"time"
)

// ErrIDAlreadyAssigned is returned when storage tries to re-key a persisted log.
var ErrIDAlreadyAssigned = errors.New("event log already has an id")

// LeadEventLog records one occurrence of a campaign event for one contact.
//
// The ID is unset until storage persists the log and is assigned exactly once.
type LeadEventLog struct {
	id int64

	Event    *Event
	Campaign *Campaign
	Contact  *Contact

	DateTriggered      time.Time
	TriggerDate        *time.Time
	IPAddress          string
	NonActionPathTaken bool
	SystemTriggered    bool
	IsScheduled        bool
	Rotation           int

	Channel   string
	ChannelID *int64

	Metadata map[string]any
}

// NewLeadEventLog returns an unsaved log with the default rotation.
func NewLeadEventLog() *LeadEventLog {
	return &LeadEventLog{Rotation: 1}
}

// ID returns the storage identity and whether it has been assigned.
func (l *LeadEventLog) ID() (int64, bool) {
	return l.id, l.id != 0
}

// AssignID sets the storage identity. Only repositories should call this.
func (l *LeadEventLog) AssignID(id int64) error {
	if l.id != 0 {
		return ErrIDAlreadyAssigned
	}
	if id <= 0 {
		return errors.New("event log id must be positive")
	}
	l.id = id
	return nil
}

// IsPersisted reports whether storage has assigned an identity.
func (l *LeadEventLog) IsPersisted() bool {
	return l.id != 0
}

// EventID returns the referenced event's ID.
func (l *LeadEventLog) EventID() int64 {
	if l.Event == nil {
		return 0
	}
	return l.Event.ID
}

// CampaignID returns the referenced campaign's ID.
func (l *LeadEventLog) CampaignID() int64 {
	if l.Campaign == nil {
		return 0
	}
	return l.Campaign.ID
}

// ContactID returns the referenced contact's ID.
func (l *LeadEventLog) ContactID() int64 {
	if l.Contact == nil {
		return 0
	}
	return l.Contact.ID
}
