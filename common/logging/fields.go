package logging

import "log/slog"

// Common field names for consistent logging across the campaign service.
const (
	FieldService     = "service"
	FieldRequestID   = "request_id"
	FieldExecutionID = "execution_id"
	FieldCampaignID  = "campaign_id"
	FieldEventID     = "event_id"
	FieldContactID   = "contact_id"
	FieldLogID       = "log_id"
	FieldBatchSize   = "batch_size"
	FieldIP          = "ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatus      = "status"
	FieldError       = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// CampaignID returns a slog attribute for a campaign ID.
func CampaignID(id int64) slog.Attr {
	return slog.Int64(FieldCampaignID, id)
}

// EventID returns a slog attribute for a campaign event ID.
func EventID(id int64) slog.Attr {
	return slog.Int64(FieldEventID, id)
}

// ContactID returns a slog attribute for a contact ID.
func ContactID(id int64) slog.Attr {
	return slog.Int64(FieldContactID, id)
}

// LogID returns a slog attribute for a persisted event log ID.
func LogID(id int64) slog.Attr {
	return slog.Int64(FieldLogID, id)
}

// BatchSize returns a slog attribute for the number of records in a write.
func BatchSize(n int) slog.Attr {
	return slog.Int(FieldBatchSize, n)
}

// IP returns a slog attribute for the IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
