package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/metrics"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/recordings"
)

// chunkFilenamePattern matches the %04d.<ext> segment naming scheme
// described in §6's capture engine interface.
var chunkFilenamePattern = regexp.MustCompile(`^[0-9]{4}\.[a-zA-Z0-9]+$`)

func validChunkFilename(name string) bool {
	return chunkFilenamePattern.MatchString(name)
}

// stabilityWindow is the pause before re-checking a new chunk's size
// (§4.6: "sleep 2s; re-check").
const stabilityWindow = 2 * time.Second

// minUploadableBytes below which a chunk is assumed to be a truncated
// artifact of engine shutdown and is skipped rather than uploaded.
const minUploadableBytes = 1024

// Uploader watches a session's chunk directory and ships newly-stable
// segments to the object store, retrying failures on a fixed sweep
// (§4.6).
type Uploader struct {
	sessionID string
	chunkDir  string
	store     ChunkUploader
	state     *StateLog
	conf      Config
	logger    zerolog.Logger

	watcher *fsnotify.Watcher
	limiter *rate.Limiter

	mu         sync.Mutex
	inFlight   map[string]struct{}
	sem        chan struct{}
	wg         sync.WaitGroup
	cancel     context.CancelFunc
}

// NewUploader builds an Uploader for sessionID's chunk directory.
func NewUploader(sessionID, chunkDir string, store ChunkUploader, state *StateLog, conf Config) (*Uploader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new fsnotify watcher: %w", err)
	}
	if err := watcher.Add(chunkDir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch chunk dir %s: %w", chunkDir, err)
	}

	poolSize := conf.UploadPoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	return &Uploader{
		sessionID: sessionID,
		chunkDir:  chunkDir,
		store:     store,
		state:     state,
		conf:      conf,
		logger:    log.WithComponent("recorder-uploader"),
		watcher:   watcher,
		limiter:   rate.NewLimiter(rate.Every(time.Second), poolSize),
		inFlight:  make(map[string]struct{}),
		sem:       make(chan struct{}, poolSize),
	}, nil
}

// Run watches for new chunks and uploads them until ctx is canceled (the
// caller holds ctx's cancel func, set on u.cancel via SetCancel before
// Run starts, so Stop can fire even if it races Run's own goroutine
// scheduling). It also starts the retry-sweep daemon. Run blocks until
// both the watcher loop and the retry daemon have stopped.
func (u *Uploader) Run(ctx context.Context) {
	defer u.watcher.Close()

	u.wg.Add(2)
	go u.watchLoop(ctx)
	go u.retrySweepLoop(ctx)
	u.wg.Wait()
}

// SetCancel records ctx's cancel func so Stop can reach it. Callers must
// invoke this with the same context they pass to Run, before starting
// Run's goroutine, so Stop can never race an unset cancel func.
func (u *Uploader) SetCancel(cancel context.CancelFunc) {
	u.cancel = cancel
}

// Stop cancels the context shared by the watch loop, the retry daemon and
// every in-flight upload, so uploads still running are aborted rather than
// allowed to finish.
func (u *Uploader) Stop() {
	if u.cancel != nil {
		u.cancel()
	}
}

// Drain waits up to grace for the watch loop, the retry daemon and any
// in-flight uploads to return. The watch loop and retry daemon only return
// once Stop has been called, so without a prior Stop, Drain always waits
// the full grace window. If the grace window elapses first, it calls Stop
// and waits for the now-canceled goroutines to unwind, so Drain never
// returns while an upload is still writing to the chunk directory.
func (u *Uploader) Drain(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		u.logger.Warn().Dur("grace", grace).Msg("upload drain window exceeded, forcing stop")
		u.Stop()
		<-done
	}
}

func (u *Uploader) watchLoop(ctx context.Context) {
	defer u.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-u.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !validChunkFilename(name) {
				continue
			}
			u.scheduleUpload(ctx, name)
		case err, ok := <-u.watcher.Errors:
			if !ok {
				return
			}
			u.logger.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

func (u *Uploader) scheduleUpload(ctx context.Context, name string) {
	u.mu.Lock()
	if _, busy := u.inFlight[name]; busy {
		u.mu.Unlock()
		return
	}
	u.inFlight[name] = struct{}{}
	u.mu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer func() {
			u.mu.Lock()
			delete(u.inFlight, name)
			u.mu.Unlock()
		}()

		select {
		case u.sem <- struct{}{}:
			defer func() { <-u.sem }()
		case <-ctx.Done():
			return
		}

		u.uploadOne(ctx, name)
	}()
}

func (u *Uploader) uploadOne(ctx context.Context, name string) {
	if u.alreadySucceeded(name) {
		return
	}

	path := filepath.Join(u.chunkDir, name)

	stable, err := recordings.IsStableCtx(ctx, path, stabilityWindow)
	if err != nil || !stable {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Size() < minUploadableBytes {
		metrics.IncUploadAttempt("skipped")
		u.logger.Warn().Str("chunk", name).Int64("bytes", info.Size()).Msg("skipping undersized chunk")
		return
	}

	if exists, remoteSize, err := u.store.HeadChunk(ctx, u.sessionID, name); err == nil && exists && remoteSize == info.Size() {
		metrics.IncUploadAttempt("skipped")
		_ = u.state.RecordSuccess(name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			u.logger.Warn().Err(err).Str("chunk", name).Msg("failed to unlink already-uploaded chunk")
		}
		return
	}

	for attempt := 1; attempt <= u.conf.UploadAttempts; attempt++ {
		if err := u.attemptUpload(ctx, path, name); err != nil {
			u.logger.Warn().Err(err).Str("chunk", name).Int("attempt", attempt).Msg("upload attempt failed")
			if attempt == u.conf.UploadAttempts {
				metrics.IncUploadAttempt("failed")
				_ = u.state.RecordFailure(name, time.Now().UTC())
				return
			}
			select {
			case <-time.After(time.Duration(attempt) * 3 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		metrics.IncUploadAttempt("success")
		_ = u.state.RecordSuccess(name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			u.logger.Warn().Err(err).Str("chunk", name).Msg("failed to unlink uploaded chunk")
		}
		return
	}
}

// alreadySucceeded reports whether the state log already durably records
// this chunk as uploaded, making the upload idempotent across retries and
// watcher restarts.
func (u *Uploader) alreadySucceeded(name string) bool {
	entries, err := ReadEntries(u.state.path)
	if err != nil {
		return false
	}
	outcome, ok := LatestOutcomes(entries)[name]
	return ok && outcome.Success
}

func (u *Uploader) attemptUpload(ctx context.Context, path, name string) error {
	ctx, cancel := context.WithTimeout(ctx, u.conf.UploadTimeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return u.store.PutChunk(ctx, u.sessionID, name, f)
}

// retrySweepLoop periodically re-attempts chunks the state log marks
// FAILED (§4.6: 120s default sweep).
func (u *Uploader) retrySweepLoop(ctx context.Context) {
	defer u.wg.Done()
	period := u.conf.RetrySweepPeriod
	if period <= 0 {
		period = 120 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.retrySweep(ctx)
		}
	}
}

const retryMinAge = 2 * time.Minute

func (u *Uploader) retrySweep(ctx context.Context) {
	entries, err := ReadEntries(u.state.path)
	if err != nil {
		u.logger.Warn().Err(err).Msg("retry sweep: failed to read state log")
		return
	}
	now := time.Now().UTC()
	for name, entry := range LatestOutcomes(entries) {
		if entry.Success || now.Sub(entry.FailedAt) < retryMinAge {
			continue
		}
		if _, err := os.Stat(filepath.Join(u.chunkDir, name)); err != nil {
			continue
		}
		if err := u.limiter.Wait(ctx); err != nil {
			return
		}
		u.scheduleUpload(ctx, name)
	}
}
