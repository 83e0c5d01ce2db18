package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type fakeRemover struct {
	deleted  bool
	remove   int
	remaining []string
}

func (f *fakeRemover) ListChunks(ctx context.Context, sessionID string) ([]string, error) {
	if f.deleted {
		return nil, nil
	}
	return f.remaining, nil
}

func (f *fakeRemover) DeleteChunks(ctx context.Context, sessionID string) (int, error) {
	f.deleted = true
	return f.remove, nil
}

func (f *fakeRemover) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	f.deleted = true
	return f.remove, nil
}

func writeArtifact(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestCleanRefusesWhenArtifactMissing(t *testing.T) {
	c := NewCleaner(&fakeRemover{})
	_, err := c.Clean(context.Background(), "rec-a", filepath.Join(t.TempDir(), "missing.mp4"), 1024, "", "", false, false)
	if err == nil {
		t.Fatalf("expected error for missing artifact")
	}
}

func TestCleanRefusesWhenStateLogHasFailure(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "out.mp4")
	writeArtifact(t, artifact, 2048)

	uploadLog := filepath.Join(dir, "upload-state-rec-a.txt")
	if err := os.WriteFile(uploadLog, []byte("FAILED:0001.mp4:1700000000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := NewCleaner(&fakeRemover{})
	_, err := c.Clean(context.Background(), "rec-a", artifact, 1024, uploadLog, "", false, false)
	if err == nil {
		t.Fatalf("expected error when upload state log records a failure")
	}
}

func TestCleanForceBypassesSafetyPredicates(t *testing.T) {
	remover := &fakeRemover{remove: 3}
	c := NewCleaner(remover)

	deleted, err := c.Clean(context.Background(), "rec-a", filepath.Join(t.TempDir(), "missing.mp4"), 1024, "", "", true, false)
	if err != nil {
		t.Fatalf("Clean with force: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted = %d, want 3", deleted)
	}
}

func TestCleanSucceedsAndVerifies(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "out.mp4")
	writeArtifact(t, artifact, 2048)

	remover := &fakeRemover{remove: 2}
	c := NewCleaner(remover)

	deleted, err := c.Clean(context.Background(), "rec-a", artifact, 1024, "", "", false, false)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
}

func TestCleanFailsVerificationIfChunksRemain(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "out.mp4")
	writeArtifact(t, artifact, 2048)

	// stickyRemover reports the same remaining chunks before and after
	// DeleteChunks, simulating a partial remote delete.
	remover := &stickyRemover{remove: 1, remaining: []string{"0001.mp4"}}
	c := NewCleaner(remover)

	_, err := c.Clean(context.Background(), "rec-a", artifact, 1024, "", "", false, false)
	if err == nil {
		t.Fatalf("expected verification error when chunks remain")
	}
}

type stickyRemover struct {
	remove    int
	remaining []string
}

func (s *stickyRemover) ListChunks(ctx context.Context, sessionID string) ([]string, error) {
	return s.remaining, nil
}

func (s *stickyRemover) DeleteChunks(ctx context.Context, sessionID string) (int, error) {
	return s.remove, nil
}

func (s *stickyRemover) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	return s.remove, nil
}
