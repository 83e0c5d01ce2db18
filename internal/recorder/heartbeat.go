package recorder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/cache"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

// lastChunkCacheTTL bounds how long the emitter remembers the previously
// sent lastChunk value; far longer than any single recording needs,
// it exists only so the cache interface's TTL contract is honored.
const lastChunkCacheTTL = 24 * time.Hour

// HeartbeatEmitter periodically reports liveness and chunk progress to
// the controller (§4.10).
type HeartbeatEmitter struct {
	sessionID string
	chunkDir  string
	format    string
	client    *ControllerClient
	interval  time.Duration
	lastSent  cache.Cache
	logger    zerolog.Logger
}

// NewHeartbeatEmitter builds an emitter for sessionID. dedup backs the
// last-sent-chunk dedup state (§4.10); a nil dedup falls back to an
// in-memory cache local to this process.
func NewHeartbeatEmitter(sessionID, chunkDir, format string, client *ControllerClient, interval time.Duration, dedup cache.Cache) *HeartbeatEmitter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if dedup == nil {
		dedup = cache.NewMemoryCache(0)
	}
	return &HeartbeatEmitter{
		sessionID: sessionID,
		chunkDir:  chunkDir,
		format:    format,
		client:    client,
		interval:  interval,
		lastSent:  dedup,
		logger:    log.WithComponent("recorder-heartbeat"),
	}
}

// Run ticks until ctx is canceled, then issues a best-effort deregister
// with a 5s timeout before returning.
func (h *HeartbeatEmitter) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.deregister()
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

func (h *HeartbeatEmitter) tick(ctx context.Context) {
	lastChunk := h.mostRecentChunk()

	send := ""
	if lastChunk != "" {
		if prev, ok := h.lastSent.Get("lastChunk"); !ok || prev.(string) != lastChunk {
			send = lastChunk
		}
	}

	if err := h.client.Heartbeat(ctx, h.sessionID, send); err != nil {
		h.logger.Warn().Err(err).Str("session_id", h.sessionID).Msg("heartbeat failed, will retry next tick")
		return
	}
	if send != "" {
		h.lastSent.Set("lastChunk", send, lastChunkCacheTTL)
	}
}

// mostRecentChunk scans the chunk directory for the newest, most recently
// modified segment, returning "" if none exist yet.
func (h *HeartbeatEmitter) mostRecentChunk() string {
	entries, err := os.ReadDir(h.chunkDir)
	if err != nil {
		return ""
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var candidates []candidate
	ext := "." + h.format
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext || !validChunkFilename(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime.After(candidates[j].modTime) })
	return candidates[0].name
}

func (h *HeartbeatEmitter) deregister() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.client.Deregister(ctx, h.sessionID); err != nil {
		h.logger.Warn().Err(err).Str("session_id", h.sessionID).Msg("graceful deregister failed")
	}
}
