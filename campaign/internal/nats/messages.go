// Package nats provides NATS message broker integration for the campaign service.
package nats

import (
	"time"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
)

// LogsPersistedEvent is published to campaign.logs.persisted once the logs of
// an execution are durable.
type LogsPersistedEvent struct {
	ExecutionID string    `json:"execution_id"`
	EventID     int64     `json:"event_id"`
	CampaignID  int64     `json:"campaign_id"`
	LogIDs      []int64   `json:"log_ids"`
	ContactIDs  []int64   `json:"contact_ids"`
	PersistedAt time.Time `json:"persisted_at"`
}

// TriggerResponse is sent back when a trigger request carries a reply subject.
type TriggerResponse struct {
	ExecutionID string  `json:"execution_id"`
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
	LogIDs      []int64 `json:"log_ids,omitempty"`
}

func newLogsPersistedEvent(result *service.Result) *LogsPersistedEvent {
	return &LogsPersistedEvent{
		ExecutionID: result.ExecutionID,
		EventID:     result.EventID,
		CampaignID:  result.CampaignID,
		LogIDs:      result.LogIDs,
		ContactIDs:  result.ContactIDs,
		PersistedAt: result.PersistedAt,
	}
}
