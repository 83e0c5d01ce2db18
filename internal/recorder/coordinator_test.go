package recorder

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/auth"
)

type fullFakeStore struct{}

func (*fullFakeStore) PutChunk(ctx context.Context, sessionID, chunkName string, r io.Reader) error {
	return nil
}
func (*fullFakeStore) HeadChunk(ctx context.Context, sessionID, chunkName string) (bool, int64, error) {
	return false, 0, nil
}
func (*fullFakeStore) ListChunks(ctx context.Context, sessionID string) ([]string, error) {
	return nil, nil
}
func (*fullFakeStore) GetChunk(ctx context.Context, sessionID, chunkName string, w io.WriterAt) error {
	return nil
}
func (*fullFakeStore) DeleteChunks(ctx context.Context, sessionID string) (int, error) {
	return 0, nil
}
func (*fullFakeStore) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	return 0, nil
}
func (*fullFakeStore) PutArchive(ctx context.Context, sessionID, archiveName string, r io.Reader) error {
	return nil
}

func newTestCoordinator(t *testing.T, root string, mode StorageMode) *Coordinator {
	t.Helper()
	conf := DefaultConfig()
	conf.StorageMode = mode
	conf.RecordingsRoot = root

	client := NewControllerClient("http://example.invalid", auth.Credentials{Username: "u", Password: "p"}, time.Second)
	return NewCoordinator("rec-a", "c1", "host1", conf, Dependencies{Client: client})
}

func TestCoordinatorPathHelpers(t *testing.T) {
	root := t.TempDir()
	c := newTestCoordinator(t, root, StorageModeLocal)

	if got, want := c.sessionDir(), filepath.Join(root, "rec-a"); got != want {
		t.Fatalf("sessionDir = %q, want %q", got, want)
	}
	if got, want := c.chunkDir(), filepath.Join(root, "rec-a", "chunks"); got != want {
		t.Fatalf("chunkDir = %q, want %q", got, want)
	}
	if got, want := c.artifactPath(), filepath.Join(root, "rec-a", "video.mp4"); got != want {
		t.Fatalf("artifactPath = %q, want %q", got, want)
	}
}

func TestCoordinatorWriteMetadata(t *testing.T) {
	root := t.TempDir()
	c := newTestCoordinator(t, root, StorageModeLocal)

	if err := os.MkdirAll(c.sessionDir(), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := c.writeMetadata(); err != nil {
		t.Fatalf("writeMetadata: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(c.sessionDir(), "metadata.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("metadata.json is not valid JSON: %v", err)
	}
	if decoded["sessionId"] != "rec-a" || decoded["clientId"] != "c1" {
		t.Fatalf("unexpected metadata contents: %v", decoded)
	}
}

func TestNewStoreAdapterWiresAllFour(t *testing.T) {
	store := &fullFakeStore{}
	adapter := NewStoreAdapter(store)
	if adapter.Uploader == nil || adapter.Downloader == nil || adapter.Remover == nil || adapter.Archiver == nil {
		t.Fatalf("expected all four adapter fields to be wired")
	}
}
