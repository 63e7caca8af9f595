package eventlog

import (
	"context"
	"errors"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
)

type stubIP struct{ ip string }

func (s stubIP) CurrentIPAddress(ctx context.Context) string { return s.ip }

type stubContacts struct {
	contact *models.Contact
	err     error
	calls   int
}

func (s *stubContacts) CurrentContact(ctx context.Context) (*models.Contact, error) {
	s.calls++
	return s.contact, s.err
}

// mockRepository assigns sequential IDs and records every call.
type mockRepository struct {
	nextID      int64
	saveErr     error
	skipIDs     bool
	identifyMax int
	saveCalls   int
	batchSizes  []int
	singleSaves int
	detached    []*models.LeadEventLog
	detachAll   int
}

func (m *mockRepository) SaveEntity(ctx context.Context, log *models.LeadEventLog) error {
	m.singleSaves++
	if m.saveErr != nil {
		return m.saveErr
	}
	return m.assign(log)
}

func (m *mockRepository) SaveEntities(ctx context.Context, logs []*models.LeadEventLog) error {
	m.saveCalls++
	m.batchSizes = append(m.batchSizes, len(logs))
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.skipIDs {
		return nil
	}
	for i, log := range logs {
		if m.identifyMax > 0 && i >= m.identifyMax {
			break
		}
		if err := m.assign(log); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRepository) assign(log *models.LeadEventLog) error {
	if log.IsPersisted() {
		return nil
	}
	m.nextID++
	return log.AssignID(m.nextID)
}

func (m *mockRepository) DetachEntities(ctx context.Context, logs []*models.LeadEventLog) error {
	m.detached = append(m.detached, logs...)
	return nil
}

func (m *mockRepository) DetachAll(ctx context.Context) error {
	m.detachAll++
	return nil
}

type stubChannels struct{ calls int }

func (s *stubChannels) SetChannel(log *models.LeadEventLog, event *models.Event, accessor *models.EventAccessor) {
	s.calls++
	if accessor != nil {
		log.Channel = accessor.Channel
	}
}

var errStorage = errors.New("storage unavailable")

func testEvent() *models.Event {
	campaign := &models.Campaign{ID: 3, Name: "Onboarding"}
	return &models.Event{ID: 11, Name: "Send welcome", Type: "email.send", EventType: models.EventTypeAction, Campaign: campaign}
}

func newTestLogger(repo *mockRepository, contacts *stubContacts, opts ...Option) *Logger {
	if contacts == nil {
		contacts = &stubContacts{}
	}
	return New(stubIP{ip: "192.0.2.10"}, contacts, repo, &stubChannels{}, opts...)
}
