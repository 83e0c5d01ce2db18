package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

// maxWriteRetries bounds the read-modify-write loop used by status
// transitions and other conflict-prone mutations (§5).
const maxWriteRetries = 3

// RegisterInput carries the optional fields accepted by registerSession.
type RegisterInput struct {
	SessionID         string
	ClientID          string
	ClientHost        string
	UniqueSessionID   string
	OriginalSessionID string
	Status            string
	Metadata          json.RawMessage
	Environment       json.RawMessage
}

// Service is the single authority for session state (§4.1). It is safe
// for concurrent use.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService builds a Service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, logger: log.WithComponent("session-service")}
}

// RegisterSession creates a new session record, or replaces one only if
// the prior record is terminal/inactive (I1).
func (svc *Service) RegisterSession(ctx context.Context, in RegisterInput) (Session, error) {
	if in.SessionID == "" || in.ClientID == "" {
		return Session{}, fmt.Errorf("%w: sessionId and clientId are required", ErrInvalidArgument)
	}

	existing, ok, err := svc.repo.FindByID(ctx, in.SessionID)
	if err != nil {
		return Session{}, err
	}
	if ok && existing.Status.IsLive() {
		return Session{}, ErrAlreadyExists
	}

	status := StatusStarting
	if in.Status != "" {
		if parsed, ok := ParseStatus(in.Status); ok {
			status = parsed
		}
	}

	now := time.Now().UTC()
	s := Session{
		SessionID:         in.SessionID,
		ClientID:          in.ClientID,
		ClientHost:        in.ClientHost,
		UniqueSessionID:   in.UniqueSessionID,
		OriginalSessionID: in.OriginalSessionID,
		Status:            status,
		Active:            true,
		CreatedAt:         now,
		LastHeartbeat:     now,
		Metadata:          in.Metadata,
		Environment:       in.Environment,
	}

	if err := svc.repo.Save(ctx, s); err != nil {
		return Session{}, err
	}

	svc.logger.Info().Str("session_id", s.SessionID).Str("client_id", s.ClientID).Msg("session registered")
	return s, nil
}

// Heartbeat updates lastHeartbeat (monotonically) and, if provided and
// valid, lastChunk (monotonically; smaller values are ignored, not
// rejected).
func (svc *Service) Heartbeat(ctx context.Context, sessionID string, lastChunk string) (Session, error) {
	var result Session
	err := svc.readModifyWrite(ctx, sessionID, func(s *Session) error {
		now := time.Now().UTC()
		if now.After(s.LastHeartbeat) {
			s.LastHeartbeat = now
		}
		if lastChunk != "" && IsValidChunkName(lastChunk) && lastChunk > s.LastChunk {
			s.LastChunk = lastChunk
		}
		result = *s
		return nil
	})
	return result, err
}

// UpdateStatus validates and applies a status transition per §4.1.
func (svc *Service) UpdateStatus(ctx context.Context, sessionID string, newStatus Status) (Session, error) {
	var result Session
	err := svc.readModifyWrite(ctx, sessionID, func(s *Session) error {
		if err := ValidateTransition(s.Status, newStatus); err != nil {
			return err
		}
		s.Status = newStatus
		if newStatus == StatusInactive {
			s.Active = false
		}
		result = *s
		return nil
	})
	return result, err
}

// FailSession transitions a session to FAILED and deactivates it in a
// single write, the reaper's hard-timeout/silent/stuck response (§4.4).
// Unlike Deactivate, the resulting status is FAILED, not INACTIVE.
func (svc *Service) FailSession(ctx context.Context, sessionID string) (Session, error) {
	var result Session
	err := svc.readModifyWrite(ctx, sessionID, func(s *Session) error {
		if err := ValidateTransition(s.Status, StatusFailed); err != nil {
			return err
		}
		s.Status = StatusFailed
		s.Active = false
		result = *s
		return nil
	})
	return result, err
}

// UpdateRecordingPath sets the final artifact location.
func (svc *Service) UpdateRecordingPath(ctx context.Context, sessionID string, path string) (Session, error) {
	if path == "" {
		return Session{}, fmt.Errorf("%w: recordingPath must not be empty", ErrInvalidArgument)
	}
	var result Session
	err := svc.readModifyWrite(ctx, sessionID, func(s *Session) error {
		s.RecordingPath = path
		result = *s
		return nil
	})
	return result, err
}

// StopSession transitions a session to STOPPING, the first half of the
// stop sequence a caller completes later with UpdateStatus(COMPLETED).
func (svc *Service) StopSession(ctx context.Context, sessionID string) (Session, error) {
	return svc.UpdateStatus(ctx, sessionID, StatusStopping)
}

// Deactivate marks a session inactive and removes it from the active
// index; the record remains queryable until TTL.
func (svc *Service) Deactivate(ctx context.Context, sessionID string) (Session, error) {
	var result Session
	err := svc.readModifyWrite(ctx, sessionID, func(s *Session) error {
		s.Active = false
		s.Status = StatusInactive
		result = *s
		return nil
	})
	return result, err
}

// Deregister deletes a session record and its index entry. Deleting an
// absent session is reported as NotFound to the caller (the REST layer
// turns that into 404); the store operation itself is idempotent.
func (svc *Service) Deregister(ctx context.Context, sessionID string) error {
	exists, err := svc.repo.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if err := svc.repo.DeleteByID(ctx, sessionID); err != nil {
		return err
	}
	svc.logger.Info().Str("session_id", sessionID).Msg("session deregistered")
	return nil
}

// Get returns a single session.
func (svc *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	s, ok, err := svc.repo.FindByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// ListActive returns every session in the active index.
func (svc *Service) ListActive(ctx context.Context) ([]Session, error) {
	return svc.repo.FindAllActiveSessions(ctx)
}

// ListAll returns every stored session.
func (svc *Service) ListAll(ctx context.Context) ([]Session, error) {
	return svc.repo.FindAll(ctx)
}

// ListInactive returns every stored session absent from the active
// index.
func (svc *Service) ListInactive(ctx context.Context) ([]Session, error) {
	return svc.repo.FindAllInactiveSessions(ctx)
}

// IsActive reports whether sessionID is a member of the active index.
func (svc *Service) IsActive(ctx context.Context, sessionID string) (bool, error) {
	s, ok, err := svc.repo.FindByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return ok && s.Active, nil
}

// Counts is the read-only projection used by the health endpoint.
type Counts struct {
	Active   int
	Inactive int
	Total    int
}

// Count returns active/inactive/total session counts.
func (svc *Service) Count(ctx context.Context) (Counts, error) {
	all, err := svc.repo.FindAll(ctx)
	if err != nil {
		return Counts{}, err
	}
	var c Counts
	c.Total = len(all)
	for _, s := range all {
		if s.Active {
			c.Active++
		} else {
			c.Inactive++
		}
	}
	return c, nil
}

// Cleanup runs cleanupOrphanedSessions followed by a TTL-based sweep,
// mirroring the reaper's own maintenance calls but exposed so the REST
// `POST /api/sessions/cleanup` endpoint can trigger it on demand.
func (svc *Service) Cleanup(ctx context.Context, maxAgeHours float64) (int, error) {
	orphaned, err := svc.repo.CleanupOrphanedSessions(ctx)
	if err != nil {
		return 0, err
	}
	aged, err := svc.repo.CleanupOldInactiveSessionsByTTL(ctx, maxAgeHours)
	if err != nil {
		return orphaned, err
	}
	return orphaned + aged, nil
}

// readModifyWrite loads sessionID, applies mutate, and saves the result,
// retrying up to maxWriteRetries times if Save fails; an error from mutate
// is returned at once without a retry. Because the underlying repositories don't expose
// compare-and-swap, contention here is modeled by re-reading before each
// attempt; mutate itself must be side-effect-free beyond the *Session it
// is given so retries are safe.
func (svc *Service) readModifyWrite(ctx context.Context, sessionID string, mutate func(*Session) error) error {
	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		s, ok, err := svc.repo.FindByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}

		if err := mutate(&s); err != nil {
			return err
		}

		if err := svc.repo.Save(ctx, s); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = ErrConflict
	}
	return fmt.Errorf("%w: %v", ErrConflict, lastErr)
}
