package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
	"github.com/telhawk-systems/campaign-stack/common/execution"
	"github.com/telhawk-systems/campaign-stack/common/logging"
	"github.com/telhawk-systems/campaign-stack/common/messaging"
)

// Executor runs campaign executions.
type Executor interface {
	Execute(ctx context.Context, trigger *service.Trigger) (*service.Result, error)
}

// Handler processes incoming NATS messages for the campaign service.
type Handler struct {
	client messaging.Client
	exec   Executor
	logger *logging.Logger
	subs   []messaging.Subscription
}

// NewHandler creates a new NATS message handler.
func NewHandler(client messaging.Client, exec Executor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		client: client,
		exec:   exec,
		logger: logger,
		subs:   make([]messaging.Subscription, 0),
	}
}

// Start begins listening for NATS messages.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.client.QueueSubscribe(
		messaging.SubjectCampaignEventsTrigger,
		messaging.QueueCampaignWorkers,
		h.handleTrigger,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to campaign triggers: %w", err)
	}
	h.subs = append(h.subs, sub)

	h.logger.InfoContext(ctx, "NATS handler started",
		"subject", messaging.SubjectCampaignEventsTrigger,
		"queue", messaging.QueueCampaignWorkers,
	)
	return nil
}

// Stop gracefully stops the handler and unsubscribes from all subjects.
func (h *Handler) Stop() error {
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("failed to unsubscribe", "subject", sub.Subject(), logging.Error(err))
		}
	}
	h.subs = nil
	h.logger.Info("NATS handler stopped")
	return nil
}

// handleTrigger runs one system-triggered execution per message received on
// campaign.events.trigger.
func (h *Handler) handleTrigger(ctx context.Context, msg *messaging.Message) error {
	var req service.Trigger
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal trigger request", logging.Error(err))
		return err
	}

	ctx = execution.WithSystemTriggered(ctx, true)
	result, err := h.exec.Execute(ctx, &req)

	if msg.Reply != "" {
		h.reply(ctx, msg.Reply, req.ExecutionID, result, err)
	}
	return err
}

func (h *Handler) reply(ctx context.Context, subject, executionID string, result *service.Result, execErr error) {
	resp := TriggerResponse{ExecutionID: executionID, Success: execErr == nil}
	if execErr != nil {
		resp.Error = execErr.Error()
	}
	if result != nil {
		resp.ExecutionID = result.ExecutionID
		resp.LogIDs = result.LogIDs
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal trigger response", logging.Error(err))
		return
	}
	if err := h.client.Publish(ctx, subject, data); err != nil {
		h.logger.ErrorContext(ctx, "failed to send trigger response", logging.Error(err))
	}
}
