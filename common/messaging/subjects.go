package messaging

// Subject constants for the campaign message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// SubjectCampaignEventsTrigger carries requests to log a campaign event for a set of contacts.
	SubjectCampaignEventsTrigger = "campaign.events.trigger"

	// SubjectCampaignLogsPersisted announces event logs that reached durable storage.
	SubjectCampaignLogsPersisted = "campaign.logs.persisted"
)

// QueueCampaignWorkers is the queue group shared by trigger consumers.
// Each trigger request is processed by exactly one worker.
const QueueCampaignWorkers = "campaign-workers"

// CampaignLogsPersistedSubject scopes the persisted subject to a single campaign.
// Example: campaign.logs.persisted.42
func CampaignLogsPersistedSubject(campaignID string) string {
	return SubjectCampaignLogsPersisted + "." + campaignID
}
