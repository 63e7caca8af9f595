package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, nats.DefaultURL, cfg.URL)
	assert.Equal(t, "campaign-client", cfg.Name)
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.ReconnectWait)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "nats://127.0.0.1:1"
	cfg.MaxReconnects = 0
	cfg.Timeout = 100 * time.Millisecond

	_, err := NewClient(cfg)
	assert.Error(t, err)
}

func TestNatsToMessage(t *testing.T) {
	msg := &nats.Msg{
		Subject: "campaign.events.trigger",
		Data:    []byte(`{"execution_id":"x"}`),
		Reply:   "_INBOX.1",
		Header:  nats.Header{"X-Request-ID": []string{"req-1"}},
	}

	converted := natsToMessage(msg)

	assert.Equal(t, msg.Subject, converted.Subject)
	assert.Equal(t, msg.Data, converted.Data)
	assert.Equal(t, msg.Reply, converted.Reply)
	assert.Equal(t, "req-1", converted.Metadata["X-Request-ID"])
	assert.False(t, converted.Timestamp.IsZero())
}
