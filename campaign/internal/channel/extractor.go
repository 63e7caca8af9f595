// Package channel attributes event logs to the communication channel of their event.
package channel

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
)

// Extractor sets Channel and ChannelID on event logs from event configuration.
type Extractor struct{}

// NewExtractor returns a channel extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SetChannel labels log with the accessor's channel. A log that already has a
// channel keeps it. The channel ID is read from the event property named by the
// accessor's ChannelIDField; it is only kept when it resolves to one number.
func (e *Extractor) SetChannel(log *models.LeadEventLog, event *models.Event, accessor *models.EventAccessor) {
	if log == nil || log.Channel != "" || accessor == nil || accessor.Channel == "" {
		return
	}

	log.Channel = accessor.Channel

	if accessor.ChannelIDField == "" || event == nil {
		return
	}
	log.ChannelID = channelID(event.Properties, accessor.ChannelIDField)
}

func channelID(properties map[string]any, field string) *int64 {
	nested, ok := properties["properties"].(map[string]any)
	if !ok {
		return nil
	}

	value, ok := nested[field]
	if !ok || value == nil {
		return nil
	}

	// Multi-select fields only yield an ID when exactly one item was picked.
	if list, ok := value.([]any); ok {
		if len(list) != 1 {
			return nil
		}
		value = list[0]
	}

	id, ok := toInt64(value)
	if !ok || id == 0 {
		return nil
	}
	return &id
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
