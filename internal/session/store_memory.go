package session

import (
	"context"
	"sync"
	"time"
)

// sessionTTL is the per-record expiration refreshed on every write (I2).
const sessionTTL = 24 * time.Hour

type memoryRecord struct {
	session Session
	expires time.Time
}

// MemoryRepository is an in-process Repository backed by a guarded map.
// It is the default store for tests and single-node deployments that
// don't need a shared Redis instance.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	active  map[string]struct{}
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]memoryRecord),
		active:  make(map[string]struct{}),
	}
}

func (r *MemoryRepository) Save(_ context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[s.SessionID] = memoryRecord{session: s.Clone(), expires: time.Now().Add(sessionTTL)}
	if s.Active {
		r.active[s.SessionID] = struct{}{}
	} else {
		delete(r.active, s.SessionID)
	}
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, sessionID string) (Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[sessionID]
	if !ok || time.Now().After(rec.expires) {
		return Session{}, false, nil
	}
	return rec.session.Clone(), true, nil
}

func (r *MemoryRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := r.FindByID(ctx, sessionID)
	return ok, err
}

func (r *MemoryRepository) FindAllActiveSessionIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *MemoryRepository) FindAllActiveSessions(ctx context.Context) ([]Session, error) {
	ids, err := r.FindAllActiveSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.records[id]; ok && time.Now().Before(rec.expires) {
			out = append(out, rec.session.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) FindAllInactiveSessions(_ context.Context) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0)
	for id, rec := range r.records {
		if _, active := r.active[id]; active {
			continue
		}
		if time.Now().After(rec.expires) {
			continue
		}
		out = append(out, rec.session.Clone())
	}
	return out, nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.records))
	for _, rec := range r.records {
		if time.Now().After(rec.expires) {
			continue
		}
		out = append(out, rec.session.Clone())
	}
	return out, nil
}

func (r *MemoryRepository) DeleteByID(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, sessionID)
	delete(r.active, sessionID)
	return nil
}

func (r *MemoryRepository) DeleteAll(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := r.records[id]; ok {
			removed++
		}
		delete(r.records, id)
		delete(r.active, id)
	}
	return removed, nil
}

func (r *MemoryRepository) CleanupOrphanedSessions(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id := range r.active {
		rec, ok := r.records[id]
		if !ok || time.Now().After(rec.expires) {
			delete(r.active, id)
			removed++
		}
	}
	for id, rec := range r.records {
		if !rec.session.Active || time.Now().After(rec.expires) {
			continue
		}
		if _, ok := r.active[id]; !ok {
			r.active[id] = struct{}{}
		}
	}
	return removed, nil
}

func (r *MemoryRepository) CleanupOldInactiveSessionsByTTL(_ context.Context, maxAgeHours float64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(maxAgeHours * float64(time.Hour)))
	removed := 0
	for id, rec := range r.records {
		if _, active := r.active[id]; active {
			continue
		}
		if rec.session.LastHeartbeat.Before(cutoff) {
			delete(r.records, id)
			delete(r.active, id)
			removed++
		}
	}
	return removed, nil
}
