// Package models defines the campaign domain types shared by the event log
// writer and its collaborators.
package models

// Campaign is the workflow an event belongs to.
type Campaign struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Event types as configured on a campaign canvas.
const (
	EventTypeAction    = "action"
	EventTypeDecision  = "decision"
	EventTypeCondition = "condition"
)

// Event is one step of a campaign workflow.
type Event struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Type      string    `json:"type" yaml:"type"`             // e.g. "email.send"
	EventType string    `json:"event_type" yaml:"event_type"` // action, decision or condition
	Campaign  *Campaign `json:"campaign" yaml:"campaign"`

	// Properties holds the form values the event was configured with.
	// Channel IDs live under Properties["properties"][<field>].
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// CampaignID returns the owning campaign's ID, or zero when detached.
func (e *Event) CampaignID() int64 {
	if e == nil || e.Campaign == nil {
		return 0
	}
	return e.Campaign.ID
}

// EventAccessor exposes the registered configuration of an event type.
type EventAccessor struct {
	Label string `json:"label" yaml:"label"`

	// Channel is the communication channel the event type writes to, e.g. "email".
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`

	// ChannelIDField names the event property holding the channel entity ID.
	ChannelIDField string `json:"channel_id_field,omitempty" yaml:"channel_id_field,omitempty"`
}

// Contact is a person tracked by the marketing automation.
type Contact struct {
	ID        int64  `json:"id" yaml:"id"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
}
