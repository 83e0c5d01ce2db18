package recorder

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

// Cleaner removes remote chunks after a successful join (§4.9). By
// default it never touches the session's top-level prefix (logs,
// metadata); Clean's entireDirectory flag opts into that wider deletion
// when explicitly requested.
type Cleaner struct {
	store  ChunkRemover
	logger zerolog.Logger
}

// NewCleaner builds a Cleaner over store.
func NewCleaner(store ChunkRemover) *Cleaner {
	return &Cleaner{store: store, logger: log.WithComponent("recorder-cleaner")}
}

// Clean validates the safety predicates and, if they pass (or force is
// set), deletes the session's remote chunks. By default only the chunks
// prefix is removed; entireDirectory additionally removes the session's
// top-level prefix (logs, metadata) and must be requested explicitly.
func (c *Cleaner) Clean(ctx context.Context, sessionID, artifactPath string, minArtifactBytes int64, uploadStateLog, downloadStateLog string, force, entireDirectory bool) (int, error) {
	if !force {
		if err := c.checkArtifact(artifactPath, minArtifactBytes); err != nil {
			return 0, err
		}
		if err := c.checkNoFailures(uploadStateLog); err != nil {
			return 0, err
		}
		if err := c.checkNoFailures(downloadStateLog); err != nil {
			return 0, err
		}
	}

	var deleted int
	var err error
	if entireDirectory {
		deleted, err = c.store.DeleteSession(ctx, sessionID)
	} else {
		deleted, err = c.store.DeleteChunks(ctx, sessionID)
	}
	if err != nil {
		return 0, fmt.Errorf("delete remote chunks for %s: %w", sessionID, err)
	}

	remaining, err := c.store.ListChunks(ctx, sessionID)
	if err != nil {
		return deleted, fmt.Errorf("verify cleanup for %s: %w", sessionID, err)
	}
	if len(remaining) > 0 {
		return deleted, fmt.Errorf("cleanup incomplete: %d chunks remain under %s", len(remaining), sessionID)
	}

	c.logger.Info().Str("session_id", sessionID).Int("deleted", deleted).Msg("remote chunks cleaned up")
	return deleted, nil
}

func (c *Cleaner) checkArtifact(path string, minBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("artifact missing, refusing cleanup: %w", err)
	}
	if info.Size() <= minBytes {
		return fmt.Errorf("artifact too small (%d bytes), refusing cleanup", info.Size())
	}
	return nil
}

func (c *Cleaner) checkNoFailures(stateLogPath string) error {
	if stateLogPath == "" {
		return nil
	}
	entries, err := ReadEntries(stateLogPath)
	if err != nil {
		return fmt.Errorf("read state log %s: %w", stateLogPath, err)
	}
	for _, outcome := range LatestOutcomes(entries) {
		if !outcome.Success {
			return fmt.Errorf("state log %s records a failure, refusing cleanup", stateLogPath)
		}
	}
	return nil
}
