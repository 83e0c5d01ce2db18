package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/cache"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

// Dependencies bundles the collaborators a Coordinator needs beyond its
// own Config, so callers (cmd/recorder) decide storage-mode wiring once.
type Dependencies struct {
	Client    *ControllerClient
	Store     *StoreAdapter // nil when Config.StorageMode is local
	FFmpegBin string        // "" defaults to "ffmpeg"
}

// StoreAdapter is a thin seam so the coordinator only depends on the
// narrow interfaces the rest of the package already defines, while
// cmd/recorder can still construct it from a single *objectstore.Store.
type StoreAdapter struct {
	Uploader   ChunkUploader
	Downloader ChunkDownloader
	Remover    ChunkRemover
	Archiver   ArchiveUploader
}

// NewStoreAdapter adapts a concrete store (anything satisfying all four
// narrow interfaces, which *objectstore.Store does) for the coordinator.
func NewStoreAdapter(store interface {
	ChunkUploader
	ChunkDownloader
	ChunkRemover
	ArchiveUploader
}) *StoreAdapter {
	return &StoreAdapter{Uploader: store, Downloader: store, Remover: store, Archiver: store}
}

// Coordinator supervises one recording session end to end (§4.5): Init,
// Capture, Post-capture, Finalize.
type Coordinator struct {
	sessionID  string
	clientID   string
	clientHost string

	conf Config
	deps Dependencies

	logger zerolog.Logger
}

// NewCoordinator builds a Coordinator for a single recording.
func NewCoordinator(sessionID, clientID, clientHost string, conf Config, deps Dependencies) *Coordinator {
	return &Coordinator{
		sessionID:  sessionID,
		clientID:   clientID,
		clientHost: clientHost,
		conf:       conf,
		deps:       deps,
		logger:     log.WithComponent("recorder-coordinator").With().Str("session_id", sessionID).Logger(),
	}
}

func (c *Coordinator) sessionDir() string   { return filepath.Join(c.conf.RecordingsRoot, c.sessionID) }
func (c *Coordinator) chunkDir() string     { return filepath.Join(c.sessionDir(), c.conf.ChunkFolder) }
func (c *Coordinator) artifactPath() string { return filepath.Join(c.sessionDir(), "video."+c.conf.VideoFormat) }
func (c *Coordinator) uploadStateLogPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("upload-state-%s.txt", c.sessionID))
}
func (c *Coordinator) downloadStateLogPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("download-state-%s.txt", c.sessionID))
}

// Run drives the full session lifecycle. It returns once Finalize has
// completed (successfully or not); callers cancel ctx to request a stop
// of the capture phase, which triggers Post-capture/Finalize.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.init(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	emitter := NewHeartbeatEmitter(c.sessionID, c.chunkDir(), c.conf.VideoFormat, c.deps.Client, c.conf.HeartbeatInterval, c.heartbeatDedupCache())
	go emitter.Run(heartbeatCtx)
	defer stopHeartbeat()

	var uploader *Uploader
	if c.conf.StorageMode == StorageModeS3 {
		state, err := OpenStateLog(c.uploadStateLogPath())
		if err != nil {
			return fmt.Errorf("open upload state log: %w", err)
		}
		uploader, err = NewUploader(c.sessionID, c.chunkDir(), c.deps.Store.Uploader, state, c.conf)
		if err != nil {
			return fmt.Errorf("start uploader: %w", err)
		}
		uploadCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		uploader.SetCancel(cancel)
		go uploader.Run(uploadCtx)
	}

	if err := c.capture(ctx); err != nil {
		c.logger.Error().Err(err).Msg("capture phase failed")
	}

	if uploader != nil {
		// Stop cancels the watcher, the retry daemon and any upload still
		// in flight (they share uploadCtx), so nothing schedules a new
		// upload or deletes a chunk out from under the Downloader while
		// post-capture reconciliation runs. Drain then waits up to the
		// grace window for those goroutines to return. In-flight uploads
		// are aborted, not allowed to finish; an aborted chunk stays in
		// the local chunk directory.
		uploader.Stop()
		uploader.Drain(c.conf.ShutdownGrace)
	}

	c.postCapture(context.Background())
	c.finalize(context.Background())
	return nil
}

func (c *Coordinator) init(ctx context.Context) error {
	if err := os.MkdirAll(c.chunkDir(), 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}
	if err := c.writeMetadata(); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	regCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.deps.Client.Register(regCtx, c.sessionID, c.clientID, c.clientHost); err != nil {
		c.logger.Warn().Err(err).Msg("session registration failed, continuing anyway")
	}
	return nil
}

// heartbeatDedupCache backs the heartbeat emitter's last-sent-chunk dedup
// state. When HeartbeatDedupRedisAddr is configured, it uses Redis so the
// dedup state (and the one avoided duplicate heartbeat per restart) can
// survive a recorder process restart; otherwise an in-memory cache is
// enough, since a restarted recorder resumes capture at a fresh
// NextStartIndex and a redundant heartbeat post-restart is harmless.
func (c *Coordinator) heartbeatDedupCache() cache.Cache {
	if c.conf.HeartbeatDedupRedisAddr == "" {
		return cache.NewMemoryCache(0)
	}
	rc, err := cache.NewRedisCache(cache.RedisConfig{Addr: c.conf.HeartbeatDedupRedisAddr}, c.logger)
	if err != nil {
		c.logger.Warn().Err(err).Str("addr", c.conf.HeartbeatDedupRedisAddr).Msg("heartbeat dedup redis unavailable, falling back to in-memory cache")
		return cache.NewMemoryCache(0)
	}
	return rc
}

func (c *Coordinator) writeMetadata() error {
	path := filepath.Join(c.sessionDir(), "metadata.json")
	content := fmt.Sprintf(`{"sessionId":%q,"clientId":%q,"startedAt":%q}`, c.sessionID, c.clientID, time.Now().UTC().Format(time.RFC3339))
	return os.WriteFile(path, []byte(content), 0o644)
}

func (c *Coordinator) capture(ctx context.Context) error {
	startIndex, err := NextStartIndex(c.chunkDir(), c.conf.VideoFormat)
	if err != nil {
		return fmt.Errorf("compute start index: %w", err)
	}

	engine := NewCaptureEngine(CaptureParams{
		Resolution:    c.conf.Resolution,
		Framerate:     c.conf.Framerate,
		Format:        c.conf.VideoFormat,
		ChunkTimeSize: c.conf.ChunkTimeSize,
		OnlyVideo:     c.conf.OnlyVideo,
		ChunkDir:      c.chunkDir(),
	})

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := engine.Start(runCtx, startIndex); err != nil {
		return fmt.Errorf("start capture engine: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- engine.Wait() }()

	select {
	case <-ctx.Done():
		return engine.Stop(c.conf.ShutdownGrace)
	case err := <-done:
		return err
	}
}

func (c *Coordinator) postCapture(ctx context.Context) {
	if c.conf.StorageMode == StorageModeS3 {
		downloadState, err := OpenStateLog(c.downloadStateLogPath())
		if err != nil {
			c.logger.Error().Err(err).Msg("open download state log")
		} else {
			downloader := NewDownloader(c.sessionID, c.chunkDir(), c.deps.Store.Downloader, downloadState, c.conf)
			result, err := downloader.Run(ctx)
			if err != nil {
				c.logger.Error().Err(err).Msg("downloader reconciliation failed")
			} else if result.Degraded {
				c.logger.Warn().Int("succeeded", result.Succeeded).Int("failed", result.Failed).Msg("downloader reported degraded success")
			}
		}
	}

	joiner := NewJoiner(c.deps.FFmpegBin)
	joinResult, err := joiner.Join(ctx, c.chunkDir(), c.artifactPath(), c.conf.VideoFormat, c.conf.ConcatTimeout, c.conf.MinArtifactBytes)
	if err != nil {
		c.logger.Error().Err(err).Msg("joiner failed, chunks retained for manual recovery")
		return
	}
	if joinResult.Empty {
		c.logger.Warn().Msg("no chunks to join, artifact will be missing")
		return
	}

	if c.conf.StorageMode == StorageModeS3 {
		cleaner := NewCleaner(c.deps.Store.Remover)
		if _, err := cleaner.Clean(ctx, c.sessionID, c.artifactPath(), c.conf.CleanerMinArtifactBytes, c.uploadStateLogPath(), c.downloadStateLogPath(), false, false); err != nil {
			c.logger.Warn().Err(err).Msg("cleaner skipped or failed, remote chunks may remain")
		}
	}
}

func (c *Coordinator) finalize(ctx context.Context) {
	status := "FAILED"
	if info, err := probeArtifact(ctx, "", c.artifactPath()); err == nil && (info.HasAudio || info.HasVideo) {
		status = "COMPLETED"
		if pathErr := c.deps.Client.UpdateRecordingPath(ctx, c.sessionID, c.artifactPath()); pathErr != nil {
			c.logger.Warn().Err(pathErr).Msg("failed to report recording path")
		}
	} else if err != nil {
		c.logger.Warn().Err(err).Msg("final artifact probe failed")
	}

	statusCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := c.deps.Client.UpdateStatus(statusCtx, c.sessionID, status); err != nil {
		c.logger.Warn().Err(err).Msg("failed to report final status")
	}
	cancel()

	if c.conf.StorageMode == StorageModeS3 && c.deps.Store != nil && c.deps.Store.Archiver != nil {
		c.uploadLogsBestEffort()
	}

	deregCtx, deregCancel := context.WithTimeout(ctx, 5*time.Second)
	defer deregCancel()
	if err := c.deps.Client.Deregister(deregCtx, c.sessionID); err != nil {
		c.logger.Warn().Err(err).Msg("best-effort deregister failed")
	}
}

func (c *Coordinator) uploadLogsBestEffort() {
	archivePath := filepath.Join(os.TempDir(), fmt.Sprintf("%s-logs.tgz", c.sessionID))
	if err := buildLogArchive(c.sessionDir(), archivePath); err != nil {
		c.logger.Warn().Err(err).Msg("failed to build log archive")
		return
	}
	defer os.Remove(archivePath)

	f, err := os.Open(archivePath)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to open log archive")
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.deps.Store.Archiver.PutArchive(ctx, c.sessionID, "logs", f); err != nil {
		c.logger.Warn().Err(err).Msg("failed to upload log archive")
	}
}
