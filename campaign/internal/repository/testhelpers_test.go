package repository

import (
	"time"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
)

func newTestLog(eventID, contactID int64) *models.LeadEventLog {
	campaign := &models.Campaign{ID: 1, Name: "Welcome"}
	log := models.NewLeadEventLog()
	log.Campaign = campaign
	log.Event = &models.Event{ID: eventID, Name: "send email", Campaign: campaign}
	log.Contact = &models.Contact{ID: contactID, Email: "lead@example.com"}
	log.DateTriggered = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	log.IPAddress = "10.0.0.1"
	return log
}
