package recorder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/metrics"
)

// Joiner concatenates a session's local chunks into the final artifact
// without re-encoding (§4.8).
type Joiner struct {
	ffmpegBin string
	logger    zerolog.Logger
}

// NewJoiner builds a Joiner. ffmpegBin defaults to "ffmpeg" on the PATH.
func NewJoiner(ffmpegBin string) *Joiner {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Joiner{ffmpegBin: ffmpegBin, logger: log.WithComponent("recorder-joiner")}
}

// JoinResult reports what the join produced.
type JoinResult struct {
	ArtifactPath string
	Empty        bool
}

// Join enumerates chunkDir's `*.<format>` files, concatenates them in
// lexicographic (== temporal) order into outputPath, and removes
// chunkDir and the manifest on success. On failure chunks are left in
// place for manual recovery.
func (j *Joiner) Join(ctx context.Context, chunkDir, outputPath, format string, timeout time.Duration, minArtifactBytes int64) (JoinResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveJoinDuration(time.Since(start).Seconds()) }()

	chunks, err := listChunkFiles(chunkDir, format)
	if err != nil {
		metrics.IncJoinResult("failed")
		return JoinResult{}, fmt.Errorf("list chunks in %s: %w", chunkDir, err)
	}
	if len(chunks) == 0 {
		metrics.IncJoinResult("failed")
		return JoinResult{Empty: true}, nil
	}

	manifestPath := filepath.Join(chunkDir, "concat.txt")
	if err := writeConcatManifest(manifestPath, chunks); err != nil {
		metrics.IncJoinResult("failed")
		return JoinResult{}, fmt.Errorf("write concat manifest: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, j.ffmpegBin,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outputPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		metrics.IncJoinResult("failed")
		return JoinResult{}, fmt.Errorf("ffmpeg concat failed: %w\noutput: %s", err, truncate(out, 2000))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() <= minArtifactBytes {
		metrics.IncJoinResult("failed")
		size := int64(0)
		if info != nil {
			size = info.Size()
		}
		return JoinResult{ArtifactPath: outputPath}, fmt.Errorf("joined artifact too small: %d bytes", size)
	}

	if err := os.RemoveAll(chunkDir); err != nil {
		j.logger.Warn().Err(err).Str("dir", chunkDir).Msg("join succeeded but chunk cleanup failed")
	}

	metrics.IncJoinResult("success")
	return JoinResult{ArtifactPath: outputPath}, nil
}

func listChunkFiles(chunkDir, format string) ([]string, error) {
	entries, err := os.ReadDir(chunkDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == "."+format && validChunkFilename(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func writeConcatManifest(path string, chunks []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	for _, name := range chunks {
		abs, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", abs); err != nil {
			return err
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
