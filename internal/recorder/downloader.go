package recorder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/fsutil"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/metrics"
)

// minPresentBytes is the size above which a local file is treated as
// already downloaded (§4.7).
const minPresentBytes = 1024

// Downloader reconciles remote chunks back to the local chunk directory
// after capture stops, used only when storage mode is "s3" (§4.7).
type Downloader struct {
	sessionID string
	chunkDir  string
	store     ChunkDownloader
	state     *StateLog
	conf      Config
	logger    zerolog.Logger
}

// NewDownloader builds a Downloader for sessionID.
func NewDownloader(sessionID, chunkDir string, store ChunkDownloader, state *StateLog, conf Config) *Downloader {
	return &Downloader{
		sessionID: sessionID,
		chunkDir:  chunkDir,
		store:     store,
		state:     state,
		conf:      conf,
		logger:    log.WithComponent("recorder-downloader"),
	}
}

// Result summarizes a reconciliation pass.
type Result struct {
	Succeeded int
	Failed    int
	Degraded  bool
}

// Run lists the session's remote chunks and ensures each is present
// locally, preferring a bulk pass and falling back to per-file retries.
func (d *Downloader) Run(ctx context.Context) (Result, error) {
	names, err := d.store.ListChunks(ctx, d.sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list remote chunks for %s: %w", d.sessionID, err)
	}

	var pending []string
	for _, name := range names {
		if d.presentLocally(name) {
			_ = d.state.RecordSuccess(name)
			continue
		}
		pending = append(pending, name)
	}

	if len(pending) == 0 {
		return d.verify(names)
	}

	if d.bulkDownload(ctx, pending) {
		for _, name := range pending {
			_ = d.state.RecordSuccess(name)
		}
		metrics.IncDownloadAttempt("success")
		return d.verify(names)
	}

	for _, name := range pending {
		d.downloadIndividual(ctx, name)
	}
	return d.verify(names)
}

func (d *Downloader) presentLocally(name string) bool {
	path, err := d.resolveChunkPath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > minPresentBytes
}

// resolveChunkPath confines name underneath the chunk directory, guarding
// against a remote object key that escapes its expected prefix.
func (d *Downloader) resolveChunkPath(name string) (string, error) {
	return fsutil.ConfineRelPath(d.chunkDir, name)
}

// bulkDownload attempts to fetch every pending chunk within one shared
// timeout; any individual failure fails the whole bulk attempt so the
// caller can fall back to per-file retries.
func (d *Downloader) bulkDownload(ctx context.Context, names []string) bool {
	ctx, cancel := context.WithTimeout(ctx, d.conf.DownloadBulkTimeout)
	defer cancel()

	for _, name := range names {
		if err := d.fetchOnce(ctx, name); err != nil {
			d.logger.Warn().Err(err).Str("chunk", name).Msg("bulk download failed, falling back to individual retries")
			return false
		}
	}
	return true
}

func (d *Downloader) downloadIndividual(ctx context.Context, name string) {
	attempts := d.conf.DownloadAttempts
	if attempts <= 0 {
		attempts = 3
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := d.fetchOnce(ctx, name); err != nil {
			d.logger.Warn().Err(err).Str("chunk", name).Int("attempt", attempt).Msg("individual download attempt failed")
			if attempt == attempts {
				metrics.IncDownloadAttempt("failed")
				_ = d.state.RecordFailure(name, time.Now().UTC())
				return
			}
			select {
			case <-time.After(time.Duration(attempt) * 5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		metrics.IncDownloadAttempt("success")
		_ = d.state.RecordSuccess(name)
		return
	}
}

func (d *Downloader) fetchOnce(ctx context.Context, name string) error {
	path, err := d.resolveChunkPath(name)
	if err != nil {
		return fmt.Errorf("resolve chunk path for %s: %w", name, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return d.store.GetChunk(ctx, d.sessionID, name, f)
}

// verify reports degraded success unless the number of local chunk files
// equals the number of chunks the state log records as SUCCESS and no
// chunk's latest outcome is FAILED; the Joiner proceeds with whatever is
// available regardless.
func (d *Downloader) verify(names []string) (Result, error) {
	entries, err := ReadEntries(d.state.path)
	if err != nil {
		return Result{}, fmt.Errorf("read download state log: %w", err)
	}
	outcomes := LatestOutcomes(entries)
	local, err := listChunkFiles(d.chunkDir, d.conf.VideoFormat)
	if err != nil {
		return Result{}, fmt.Errorf("list local chunks: %w", err)
	}

	var succeeded, failed int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		} else {
			failed++
		}
	}

	degraded := failed > 0 || succeeded != len(local)
	if degraded {
		d.logger.Warn().Int("remote", len(names)).Int("local", len(local)).Int("succeeded", succeeded).Int("failed", failed).Msg("download reconciliation degraded")
	}
	return Result{Succeeded: succeeded, Failed: failed, Degraded: degraded}, nil
}
