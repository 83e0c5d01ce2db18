// Package reaper implements the background sweep that detects silent and
// stuck recorders and forces them to FAILED (§4.4).
package reaper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/metrics"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

// Config holds the reaper's tunables.
type Config struct {
	// Interval is how often the reaper sweeps active sessions.
	Interval time.Duration
	// MaxInactiveTime is the hard timeout: a session silent longer than
	// this is failed unconditionally.
	MaxInactiveTime time.Duration
	// ChunkTimeSize is the fleet's segment duration, used to derive the
	// silent and stuck detection windows.
	ChunkTimeSize time.Duration
	// MaxAgeHours bounds how long terminal/inactive records survive a
	// cleanup pass.
	MaxAgeHours float64
}

// DefaultConfig mirrors §4.4 and §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		Interval:        30 * time.Second,
		MaxInactiveTime: 600 * time.Second,
		ChunkTimeSize:   10 * time.Second,
		MaxAgeHours:     24,
	}
}

// Reaper periodically scans active sessions for silent or stuck
// recorders and cleans up orphaned/expired records.
type Reaper struct {
	svc    *session.Service
	conf   Config
	logger zerolog.Logger

	mu            sync.Mutex
	lastLastChunk map[string]string // sessionID -> lastChunk observed on the previous tick
	stuckSince    map[string]time.Time
}

// New builds a Reaper over svc.
func New(svc *session.Service, conf Config) *Reaper {
	return &Reaper{
		svc:           svc,
		conf:          conf,
		logger:        log.WithComponent("reaper"),
		lastLastChunk: make(map[string]string),
		stuckSince:    make(map[string]time.Time),
	}
}

// Run blocks, sweeping every conf.Interval until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.conf.Interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.conf.Interval).Msg("reaper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one sweep: orphan cleanup and TTL-based record cleanup (both
// through Service.Cleanup), then silent/stuck/hard-timeout detection over
// every active session. Sessions failed during a tick are not swept by the
// TTL cleanup until a later tick.
func (r *Reaper) tick(ctx context.Context) {
	metrics.IncReaperTick()

	if _, err := r.svc.Cleanup(ctx, r.conf.MaxAgeHours); err != nil {
		r.logger.Warn().Err(err).Msg("cleanup pass failed")
	}

	sessions, err := r.svc.ListActive(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("list active sessions failed")
		return
	}
	metrics.SetActiveSessions(len(sessions))

	seen := make(map[string]struct{}, len(sessions))
	now := time.Now().UTC()

	for _, s := range sessions {
		seen[s.SessionID] = struct{}{}
		r.evaluate(ctx, s, now)
	}

	r.forgetStale(seen)
}

func (r *Reaper) evaluate(ctx context.Context, s session.Session, now time.Time) {
	dt := now.Sub(s.LastHeartbeat)

	switch {
	case dt > r.conf.MaxInactiveTime:
		r.fail(ctx, s.SessionID, "hard_timeout")
	case dt > 3*r.conf.ChunkTimeSize+30*time.Second:
		r.fail(ctx, s.SessionID, "silent")
	default:
		r.checkStuck(ctx, s, now, dt)
	}
}

// checkStuck tracks, per session, how long lastChunk has failed to
// advance across ticks, failing the session once it has been unchanged
// for more than 2*chunkTimeSize while the session is also heartbeat-stale
// by the same margin.
func (r *Reaper) checkStuck(ctx context.Context, s session.Session, now time.Time, dt time.Duration) {
	r.mu.Lock()
	prev, tracked := r.lastLastChunk[s.SessionID]
	r.lastLastChunk[s.SessionID] = s.LastChunk
	if !tracked || prev != s.LastChunk {
		r.stuckSince[s.SessionID] = now
		r.mu.Unlock()
		return
	}
	since, ok := r.stuckSince[s.SessionID]
	if !ok {
		since = now
		r.stuckSince[s.SessionID] = since
	}
	r.mu.Unlock()

	stuckFor := now.Sub(since)
	if stuckFor > 2*r.conf.ChunkTimeSize && dt > 2*r.conf.ChunkTimeSize {
		r.fail(ctx, s.SessionID, "stuck")
	}
}

func (r *Reaper) fail(ctx context.Context, sessionID, cause string) {
	if _, err := r.svc.FailSession(ctx, sessionID); err != nil {
		r.logger.Warn().Err(err).Str("session_id", sessionID).Str("cause", cause).Msg("failed to transition stale session to FAILED")
		return
	}

	metrics.IncReaperFailure(cause)
	metrics.IncSessionTransition(string(session.StatusFailed))

	log.AuditInfo(ctx, "reaper.session_failed", "reaper forced session to FAILED", map[string]any{
		"session_id": sessionID,
		"cause":      cause,
	})
	r.logger.Warn().Str("session_id", sessionID).Str("cause", cause).Msg("failover signal")

	r.mu.Lock()
	delete(r.lastLastChunk, sessionID)
	delete(r.stuckSince, sessionID)
	r.mu.Unlock()
}

// forgetStale drops per-session tracking state for sessions no longer in
// the active set, preventing unbounded growth.
func (r *Reaper) forgetStale(seen map[string]struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.lastLastChunk {
		if _, ok := seen[id]; !ok {
			delete(r.lastLastChunk, id)
			delete(r.stuckSince, id)
		}
	}
	for id := range r.stuckSince {
		if _, ok := seen[id]; !ok {
			delete(r.stuckSince, id)
		}
	}
}
