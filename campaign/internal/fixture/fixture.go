// Package fixture reads, writes and generates replay fixtures. A fixture is a
// YAML trigger that the replay command runs as one system-triggered execution.
package fixture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
)

// ErrEmptyFixture is returned when a fixture has no event.
var ErrEmptyFixture = errors.New("fixture has no event")

// Load reads a trigger from a YAML file.
func Load(path string) (*service.Trigger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a trigger from YAML.
func Decode(r io.Reader) (*service.Trigger, error) {
	var trigger service.Trigger
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&trigger); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	if trigger.Event == nil {
		return nil, ErrEmptyFixture
	}
	return &trigger, nil
}

// Encode writes trigger as YAML.
func Encode(w io.Writer, trigger *service.Trigger) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(trigger); err != nil {
		return fmt.Errorf("failed to encode fixture: %w", err)
	}
	return enc.Close()
}

// GenerateConfig controls Generate.
type GenerateConfig struct {
	CampaignID int64
	EventID    int64
	EventName  string
	EventType  string
	Channel    string
	ChannelID  int64
	Contacts   int
	Inactive   bool

	// Seed makes the generated contacts reproducible. Zero picks a random seed.
	Seed int64
}

// Generate builds a trigger with fake contacts.
func Generate(cfg GenerateConfig) *service.Trigger {
	faker := gofakeit.New(cfg.Seed)

	name := cfg.EventName
	if name == "" {
		name = "Send " + faker.BuzzWord()
	}
	eventType := cfg.EventType
	if eventType == "" {
		eventType = "email.send"
	}

	event := &models.Event{
		ID:        cfg.EventID,
		Name:      name,
		Type:      eventType,
		EventType: models.EventTypeAction,
		Campaign:  &models.Campaign{ID: cfg.CampaignID, Name: faker.Company()},
	}

	var accessor *models.EventAccessor
	if cfg.Channel != "" {
		accessor = &models.EventAccessor{Label: name, Channel: cfg.Channel}
		if cfg.ChannelID > 0 {
			accessor.ChannelIDField = cfg.Channel
			event.Properties = map[string]any{
				"properties": map[string]any{cfg.Channel: cfg.ChannelID},
			}
		}
	}

	contacts := make([]*models.Contact, 0, cfg.Contacts)
	for i := 0; i < cfg.Contacts; i++ {
		contacts = append(contacts, &models.Contact{
			ID:        int64(i + 1),
			Email:     faker.Email(),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
		})
	}

	return &service.Trigger{
		ExecutionID: faker.UUID(),
		Event:       event,
		Accessor:    accessor,
		Contacts:    contacts,
		Inactive:    cfg.Inactive,
	}
}
