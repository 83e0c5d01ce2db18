package recorder

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StateLog is the append-only upload/download progress log described in
// §6's filesystem layout: one line per outcome, tolerating a partial
// final line left by a crash mid-write.
//
//	SUCCESS:<filename>
//	FAILED:<filename>:<epochSeconds>
type StateLog struct {
	mu   sync.Mutex
	path string
}

// StateEntry is one parsed line of a StateLog.
type StateEntry struct {
	Filename string
	Success  bool
	FailedAt time.Time
}

// OpenStateLog opens (creating if necessary) the log file at path.
func OpenStateLog(path string) (*StateLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open state log %s: %w", path, err)
	}
	_ = f.Close()
	return &StateLog{path: path}, nil
}

// RecordSuccess appends a SUCCESS line for filename.
func (l *StateLog) RecordSuccess(filename string) error {
	return l.appendLine(fmt.Sprintf("SUCCESS:%s", filename))
}

// RecordFailure appends a FAILED line for filename, stamped with now.
func (l *StateLog) RecordFailure(filename string, now time.Time) error {
	return l.appendLine(fmt.Sprintf("FAILED:%s:%d", filename, now.Unix()))
}

func (l *StateLog) appendLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append to state log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write state log %s: %w", l.path, err)
	}
	return nil
}

// ReadEntries reads every well-formed line in the log, silently skipping
// a truncated trailing line (a crash mid-append).
func ReadEntries(path string) ([]StateEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open state log %s: %w", path, err)
	}
	defer f.Close()

	var entries []StateEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		entry, ok := parseLine(line)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func parseLine(line string) (StateEntry, bool) {
	switch {
	case strings.HasPrefix(line, "SUCCESS:"):
		filename := strings.TrimPrefix(line, "SUCCESS:")
		if filename == "" {
			return StateEntry{}, false
		}
		return StateEntry{Filename: filename, Success: true}, true

	case strings.HasPrefix(line, "FAILED:"):
		rest := strings.TrimPrefix(line, "FAILED:")
		idx := strings.LastIndex(rest, ":")
		if idx <= 0 || idx == len(rest)-1 {
			return StateEntry{}, false
		}
		filename, epochStr := rest[:idx], rest[idx+1:]
		epoch, err := strconv.ParseInt(epochStr, 10, 64)
		if err != nil {
			return StateEntry{}, false
		}
		return StateEntry{Filename: filename, Success: false, FailedAt: time.Unix(epoch, 0).UTC()}, true

	default:
		return StateEntry{}, false
	}
}

// LatestOutcomes collapses a log's entries down to the most recent
// outcome per filename, used by the cleaner's "no FAILED lines" safety
// predicate and by retry sweeps to find what still needs work.
func LatestOutcomes(entries []StateEntry) map[string]StateEntry {
	latest := make(map[string]StateEntry, len(entries))
	for _, e := range entries {
		latest[e.Filename] = e
	}
	return latest
}
