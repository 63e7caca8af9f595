package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/common/execution"
)

func fakeContacts(n int) []*models.Contact {
	contacts := make([]*models.Contact, 0, n)
	for i := 0; i < n; i++ {
		contacts = append(contacts, &models.Contact{
			ID:        int64(i + 1),
			Email:     gofakeit.Email(),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
		})
	}
	return contacts
}

func TestBuildRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := &models.Contact{ID: 77}
	explicit := &models.Contact{ID: 5}

	tests := []struct {
		name            string
		event           *models.Event
		contacts        *stubContacts
		opts            []BuildOption
		wantErr         error
		wantContact     *models.Contact
		wantInactive    bool
		wantResolverHit int
	}{
		{
			name:            "explicit contact skips resolver",
			event:           testEvent(),
			contacts:        &stubContacts{contact: current},
			opts:            []BuildOption{WithContact(explicit)},
			wantContact:     explicit,
			wantResolverHit: 0,
		},
		{
			name:            "falls back to current contact",
			event:           testEvent(),
			contacts:        &stubContacts{contact: current},
			wantContact:     current,
			wantResolverHit: 1,
		},
		{
			name:            "inactive",
			event:           testEvent(),
			contacts:        &stubContacts{},
			opts:            []BuildOption{WithContact(explicit), Inactive()},
			wantContact:     explicit,
			wantInactive:    true,
			wantResolverHit: 0,
		},
		{
			name:            "inactive if false",
			event:           testEvent(),
			contacts:        &stubContacts{},
			opts:            []BuildOption{WithContact(explicit), InactiveIf(false)},
			wantContact:     explicit,
			wantResolverHit: 0,
		},
		{
			name:            "no current contact",
			event:           testEvent(),
			contacts:        &stubContacts{},
			wantErr:         ErrMissingContact,
			wantResolverHit: 1,
		},
		{
			name:            "resolver error is returned",
			event:           testEvent(),
			contacts:        &stubContacts{err: errStorage},
			wantErr:         errStorage,
			wantResolverHit: 1,
		},
		{
			name:     "nil event",
			contacts: &stubContacts{contact: current},
			wantErr:  ErrInvalidEvent,
		},
		{
			name:     "event without campaign",
			event:    &models.Event{ID: 1},
			contacts: &stubContacts{contact: current},
			wantErr:  ErrInvalidEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			l := newTestLogger(repo, tt.contacts, WithClock(func() time.Time { return now }))

			log, err := l.BuildRecord(context.Background(), tt.event, tt.opts...)
			assert.Equal(t, tt.wantResolverHit, tt.contacts.calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, log)
				return
			}
			require.NoError(t, err)

			assert.Same(t, tt.wantContact, log.Contact)
			assert.Same(t, tt.event, log.Event)
			assert.Same(t, tt.event.Campaign, log.Campaign)
			assert.Equal(t, "192.0.2.10", log.IPAddress)
			assert.Equal(t, now, log.DateTriggered)
			assert.Equal(t, tt.wantInactive, log.NonActionPathTaken)
			assert.False(t, log.IsPersisted())

			assert.Equal(t, 0, repo.saveCalls+repo.singleSaves)
			assert.Equal(t, 0, l.Pending())
		})
	}
}

func TestBuildRecord_SystemTriggered(t *testing.T) {
	l := newTestLogger(&mockRepository{}, nil)
	contact := WithContact(&models.Contact{ID: 1})

	log, err := l.BuildRecord(execution.WithSystemTriggered(context.Background(), true), testEvent(), contact)
	require.NoError(t, err)
	assert.True(t, log.SystemTriggered)

	log, err = l.BuildRecord(execution.WithSystemTriggered(context.Background(), false), testEvent(), contact)
	require.NoError(t, err)
	assert.False(t, log.SystemTriggered)
}

func TestGenerateFromContacts(t *testing.T) {
	repo := &mockRepository{}
	channels := &stubChannels{}
	l := New(stubIP{ip: "192.0.2.10"}, &stubContacts{}, repo, channels)

	accessor := &models.EventAccessor{Label: "Send email", Channel: "email"}
	contacts := models.NewContactCollection(fakeContacts(5)...)

	logs, err := l.GenerateFromContacts(context.Background(), testEvent(), accessor, contacts, true)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.saveCalls)
	assert.Equal(t, 5, logs.Len())
	assert.Same(t, l.Logs(), logs)
	assert.Equal(t, 0, l.Pending())
	assert.Equal(t, 5, channels.calls)

	triggered := logs.Values()[0].DateTriggered
	seen := make(map[int64]bool)
	for _, log := range logs.Values() {
		assert.False(t, log.IsScheduled)
		assert.True(t, log.NonActionPathTaken)
		assert.Equal(t, "email", log.Channel)
		assert.Equal(t, triggered, log.DateTriggered)
		seen[log.ContactID()] = true
	}
	assert.Len(t, seen, 5)
}

func TestGenerateFromContacts_ForcesFlushAcrossBatches(t *testing.T) {
	repo := &mockRepository{}
	l := newTestLogger(repo, nil)

	logs, err := l.GenerateFromContacts(context.Background(), testEvent(), nil, models.NewContactCollection(fakeContacts(45)...), false)
	require.NoError(t, err)

	assert.Equal(t, []int{20, 20, 5}, repo.batchSizes)
	assert.Equal(t, 45, logs.Len())
	assert.Equal(t, 0, l.Pending())
}

func TestGenerateFromContacts_Empty(t *testing.T) {
	repo := &mockRepository{}
	l := newTestLogger(repo, nil)

	logs, err := l.GenerateFromContacts(context.Background(), testEvent(), nil, models.NewContactCollection(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
	assert.Equal(t, 0, repo.saveCalls)

	logs, err = l.GenerateFromContacts(context.Background(), testEvent(), nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestGenerateFromContacts_StorageError(t *testing.T) {
	repo := &mockRepository{saveErr: errStorage}
	l := newTestLogger(repo, nil)

	_, err := l.GenerateFromContacts(context.Background(), testEvent(), nil, models.NewContactCollection(fakeContacts(3)...), false)
	assert.True(t, errors.Is(err, errStorage))
	assert.Equal(t, 3, l.Pending())
}

func TestGenerateFromContacts_InvalidEvent(t *testing.T) {
	l := newTestLogger(&mockRepository{}, nil)

	_, err := l.GenerateFromContacts(context.Background(), &models.Event{ID: 1}, nil, models.NewContactCollection(fakeContacts(1)...), false)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestExtractContacts(t *testing.T) {
	assert.Equal(t, 0, ExtractContacts(nil).Len())

	shared := &models.Contact{ID: 1, Email: "first@example.com"}
	replacement := &models.Contact{ID: 1, Email: "second@example.com"}

	logs := models.NewLogCollection()
	for i, contact := range []*models.Contact{shared, {ID: 2}, replacement, nil} {
		log := models.NewLeadEventLog()
		log.Contact = contact
		require.NoError(t, log.AssignID(int64(i+1)))
		logs.Set(int64(i+1), log)
	}

	contacts := ExtractContacts(logs)
	assert.Equal(t, 2, contacts.Len())
	got, ok := contacts.Get(1)
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestExtractContacts_UniqueCountProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOf(rapid.Int64Range(1, 15)).Draw(rt, "contact_ids")

		logs := models.NewLogCollection()
		unique := make(map[int64]bool)
		for i, id := range ids {
			log := models.NewLeadEventLog()
			log.Contact = &models.Contact{ID: id}
			if err := log.AssignID(int64(i + 1)); err != nil {
				rt.Fatalf("AssignID failed: %v", err)
			}
			logs.Set(int64(i+1), log)
			unique[id] = true
		}

		if got := ExtractContacts(logs).Len(); got != len(unique) {
			rt.Fatalf("got %d contacts, want %d", got, len(unique))
		}
	})
}
