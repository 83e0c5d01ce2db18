package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNextStartIndexEmptyDir(t *testing.T) {
	idx, err := NextStartIndex(t.TempDir(), "mp4")
	if err != nil {
		t.Fatalf("NextStartIndex: %v", err)
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}
}

func TestNextStartIndexMissingDir(t *testing.T) {
	idx, err := NextStartIndex(filepath.Join(t.TempDir(), "missing"), "mp4")
	if err != nil {
		t.Fatalf("NextStartIndex: %v", err)
	}
	if idx != 1 {
		t.Fatalf("idx = %d, want 1", idx)
	}
}

func TestNextStartIndexContinuesFromExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0001.mp4", "0002.mp4", "0005.mp4", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	idx, err := NextStartIndex(dir, "mp4")
	if err != nil {
		t.Fatalf("NextStartIndex: %v", err)
	}
	if idx != 6 {
		t.Fatalf("idx = %d, want 6", idx)
	}
}

func TestCaptureEngineStopWithoutStartIsNoop(t *testing.T) {
	c := NewCaptureEngine(CaptureParams{ChunkDir: t.TempDir(), Format: "mp4", ChunkTimeSize: time.Second})
	if err := c.Stop(time.Second); err != nil {
		t.Fatalf("Stop on unstarted engine: %v", err)
	}
}
