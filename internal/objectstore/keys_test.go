package objectstore

import "testing"

func TestChunkKey(t *testing.T) {
	key, err := ChunkKey("rec-a", "0001.mp4")
	if err != nil {
		t.Fatalf("ChunkKey: %v", err)
	}
	if key != "rec-a/chunks/0001.mp4" {
		t.Fatalf("key = %q, want rec-a/chunks/0001.mp4", key)
	}
}

func TestChunkKeyRejectsTraversal(t *testing.T) {
	cases := []struct{ sessionID, chunk string }{
		{"../escape", "0001.mp4"},
		{"rec-a", "../../etc/passwd"},
		{"rec-a", "sub/0001.mp4"},
		{"", "0001.mp4"},
	}
	for _, c := range cases {
		if _, err := ChunkKey(c.sessionID, c.chunk); err == nil {
			t.Errorf("ChunkKey(%q, %q) = nil error, want error", c.sessionID, c.chunk)
		}
	}
}

func TestArchiveKey(t *testing.T) {
	key, err := ArchiveKey("rec-a", "logs.tgz")
	if err != nil {
		t.Fatalf("ArchiveKey: %v", err)
	}
	if key != "rec-a/logs.tgz" {
		t.Fatalf("key = %q, want rec-a/logs.tgz", key)
	}
}

func TestChunksPrefix(t *testing.T) {
	prefix, err := ChunksPrefix("rec-a")
	if err != nil {
		t.Fatalf("ChunksPrefix: %v", err)
	}
	if prefix != "rec-a/chunks/" {
		t.Fatalf("prefix = %q, want rec-a/chunks/", prefix)
	}
}

func TestSessionPrefix(t *testing.T) {
	prefix, err := SessionPrefix("rec-a")
	if err != nil {
		t.Fatalf("SessionPrefix: %v", err)
	}
	if prefix != "rec-a/" {
		t.Fatalf("prefix = %q, want rec-a/", prefix)
	}
}
