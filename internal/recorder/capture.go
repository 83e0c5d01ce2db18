package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/procgroup"
)

// captureChunkPattern matches the numbered segment names the capture
// engine leaves behind between restarts, used to compute startIndex.
var captureChunkPattern = regexp.MustCompile(`^([0-9]{4})\.[a-zA-Z0-9]+$`)

// CaptureParams configures a single invocation of the capture engine
// (§6's "Capture engine interface").
type CaptureParams struct {
	Binary        string // defaults to "ffmpeg"
	Resolution    string
	Framerate     int
	Format        string
	ChunkTimeSize time.Duration
	OnlyVideo     bool
	ChunkDir      string
}

// CaptureEngine supervises the capture engine child process for one
// recording. The engine is treated as a black box: it is configured via
// command-line flags and stopped via a termination sentinel written to
// its stdin, per §6.
type CaptureEngine struct {
	params CaptureParams
	logger zerolog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	waitCh chan error
}

// NewCaptureEngine builds a CaptureEngine for params, filling in the
// ffmpeg default binary if unset.
func NewCaptureEngine(params CaptureParams) *CaptureEngine {
	if params.Binary == "" {
		params.Binary = "ffmpeg"
	}
	return &CaptureEngine{
		params: params,
		logger: log.WithComponent("recorder-capture"),
	}
}

// NextStartIndex computes startIndex per §4.5: max(existing numbered
// files)+1, or 1 if the chunk directory has none yet.
func NextStartIndex(chunkDir, format string) (int, error) {
	entries, err := os.ReadDir(chunkDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("read chunk dir: %w", err)
	}

	max := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != "."+format {
			continue
		}
		m := captureChunkPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

// Start launches the capture engine child process, emitting numbered
// segments of ChunkTimeSize duration into ChunkDir starting at startIndex.
func (c *CaptureEngine) Start(ctx context.Context, startIndex int) error {
	if err := os.MkdirAll(c.params.ChunkDir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	outputPattern := filepath.Join(c.params.ChunkDir, "%04d."+c.params.Format)
	args := []string{
		"-f", "v4l2",
		"-video_size", c.params.Resolution,
		"-framerate", strconv.Itoa(c.params.Framerate),
	}
	if !c.params.OnlyVideo {
		args = append(args, "-f", "alsa", "-i", "default")
	}
	args = append(args,
		"-c:v", "copy",
		"-f", "segment",
		"-segment_time", strconv.Itoa(int(c.params.ChunkTimeSize.Seconds())),
		"-segment_start_number", strconv.Itoa(startIndex),
		"-reset_timestamps", "1",
		outputPattern,
	)

	cmd := exec.CommandContext(ctx, c.params.Binary, args...)
	procgroup.Set(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open capture engine stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start capture engine: %w", err)
	}

	c.cmd = cmd
	c.stdin = stdin
	c.waitCh = make(chan error, 1)
	go func() { c.waitCh <- cmd.Wait() }()

	c.logger.Info().
		Str("chunk_dir", c.params.ChunkDir).
		Int("start_index", startIndex).
		Msg("capture engine started")
	return nil
}

// Stop writes the termination sentinel and waits up to grace for the
// engine to exit cleanly before escalating to a forced process-group
// kill, mirroring the coordinator's own shutdown escalation.
func (c *CaptureEngine) Stop(grace time.Duration) error {
	if c.cmd == nil {
		return nil
	}
	if c.stdin != nil {
		_, _ = io.WriteString(c.stdin, "q\n")
		_ = c.stdin.Close()
	}
	return procgroup.Terminate(c.cmd, c.waitCh, grace)
}

// Wait blocks until the capture engine exits, without signaling it.
func (c *CaptureEngine) Wait() error {
	if c.waitCh == nil {
		return nil
	}
	return <-c.waitCh
}
