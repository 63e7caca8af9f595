package repository

import (
	"context"
	"sync"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/metrics"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
)

type logKey struct {
	eventID   int64
	contactID int64
	rotation  int
}

// MemoryRepository keeps event logs in process memory. It enforces the same
// uniqueness rule as the lead_event_log table and is used by replays and tests.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.LeadEventLog
	keys   map[logKey]int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows: make(map[int64]models.LeadEventLog),
		keys: make(map[logKey]int64),
	}
}

// NewSession opens a unit of work with an empty identity map.
func (r *MemoryRepository) NewSession() Session {
	return &MemorySession{repo: r, tracked: make(identityMap)}
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error {
	return nil
}

// Count returns the number of stored logs.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// save applies the whole batch or nothing.
func (r *MemoryRepository) save(logs []*models.LeadEventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check every row against stored keys and the rest of the batch first.
	pending := make(map[logKey]int64, len(logs))
	for _, log := range logs {
		if err := validate(log); err != nil {
			return err
		}
		key := keyOf(log)
		id, _ := log.ID()
		if id != 0 {
			if _, ok := r.rows[id]; !ok {
				return ErrLogNotFound
			}
		}
		if owner, ok := r.keys[key]; ok && owner != id {
			return ErrDuplicateLog
		}
		if _, ok := pending[key]; ok {
			return ErrDuplicateLog
		}
		pending[key] = id
	}

	for _, log := range logs {
		id, ok := log.ID()
		if ok {
			old := r.rows[id]
			delete(r.keys, keyOf(&old))
		} else {
			r.nextID++
			id = r.nextID
			if err := log.AssignID(id); err != nil {
				return err
			}
		}
		r.rows[id] = *log
		r.keys[keyOf(log)] = id
	}
	return nil
}

func (r *MemoryRepository) find(id int64) (*models.LeadEventLog, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	log := row
	return &log, true
}

func keyOf(log *models.LeadEventLog) logKey {
	return logKey{eventID: log.EventID(), contactID: log.ContactID(), rotation: log.Rotation}
}

// MemorySession is a Session over a MemoryRepository.
type MemorySession struct {
	repo    *MemoryRepository
	tracked identityMap
}

// SaveEntity inserts or updates a single log.
func (s *MemorySession) SaveEntity(ctx context.Context, log *models.LeadEventLog) error {
	return s.SaveEntities(ctx, []*models.LeadEventLog{log})
}

// SaveEntities inserts or updates logs atomically.
func (s *MemorySession) SaveEntities(ctx context.Context, logs []*models.LeadEventLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logs = unique(logs)
	err := s.repo.save(logs)
	metrics.ObserveStorage("save_batch", err)
	if err != nil {
		return err
	}
	for _, log := range logs {
		s.tracked.track(log)
	}
	return nil
}

// DetachEntities removes logs from the identity map.
func (s *MemorySession) DetachEntities(ctx context.Context, logs []*models.LeadEventLog) error {
	for _, log := range logs {
		s.tracked.detach(log)
	}
	return nil
}

// DetachAll empties the identity map.
func (s *MemorySession) DetachAll(ctx context.Context) error {
	s.tracked = make(identityMap)
	return nil
}

// Find returns the tracked instance of id or a copy of the stored row.
func (s *MemorySession) Find(ctx context.Context, id int64) (*models.LeadEventLog, error) {
	if log, ok := s.tracked[id]; ok {
		return log, nil
	}
	log, ok := s.repo.find(id)
	if !ok {
		return nil, ErrLogNotFound
	}
	s.tracked.track(log)
	return log, nil
}

// Tracked returns the number of tracked logs.
func (s *MemorySession) Tracked() int {
	return len(s.tracked)
}
