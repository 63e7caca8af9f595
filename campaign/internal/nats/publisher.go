package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
	"github.com/telhawk-systems/campaign-stack/common/messaging"
)

// Publisher publishes events to NATS subjects for the campaign service.
type Publisher struct {
	client messaging.Publisher
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(client messaging.Publisher) *Publisher {
	return &Publisher{client: client}
}

// LogsPersisted publishes the result of an execution on the shared subject and
// on the subject scoped to its campaign.
func (p *Publisher) LogsPersisted(ctx context.Context, result *service.Result) error {
	event := newLogsPersistedEvent(result)
	if err := p.publish(ctx, messaging.SubjectCampaignLogsPersisted, event); err != nil {
		return err
	}
	return p.publish(ctx, messaging.CampaignLogsPersistedSubject(strconv.FormatInt(result.CampaignID, 10)), event)
}

// publish marshals data to JSON and publishes to the specified subject.
func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.client.Publish(ctx, subject, bytes)
}
