package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStateLogRecordsAndReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload-state-rec-a.txt")

	log, err := OpenStateLog(path)
	if err != nil {
		t.Fatalf("OpenStateLog: %v", err)
	}
	if err := log.RecordSuccess("0001.mp4"); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	failedAt := time.Unix(1700000000, 0).UTC()
	if err := log.RecordFailure("0002.mp4", failedAt); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Filename != "0001.mp4" || !entries[0].Success {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Filename != "0002.mp4" || entries[1].Success || !entries[1].FailedAt.Equal(failedAt) {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestReadEntriesToleratesTruncatedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload-state-rec-b.txt")
	content := "SUCCESS:0001.mp4\nFAILED:0002.mp4:1700000000\nFAILED:0003.m"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (truncated line dropped)", len(entries))
	}
}

func TestReadEntriesMissingFileReturnsEmpty(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if entries != nil {
		t.Fatalf("entries = %v, want nil", entries)
	}
}

func TestLatestOutcomesKeepsLastWrite(t *testing.T) {
	entries := []StateEntry{
		{Filename: "0001.mp4", Success: false, FailedAt: time.Unix(1, 0)},
		{Filename: "0001.mp4", Success: true},
	}
	latest := LatestOutcomes(entries)
	if !latest["0001.mp4"].Success {
		t.Fatalf("expected the later SUCCESS entry to win")
	}
}
