package objectstore

import (
	"fmt"
	"path"
	"strings"
)

// ChunkKey builds the object key for a segmented chunk (§6):
// <sessionId>/chunks/<NNNN>.mp4.
func ChunkKey(sessionID, chunkName string) (string, error) {
	if err := validateSegment(sessionID); err != nil {
		return "", fmt.Errorf("sessionId: %w", err)
	}
	if err := validateSegment(chunkName); err != nil {
		return "", fmt.Errorf("chunkName: %w", err)
	}
	return path.Join(sessionID, "chunks", chunkName), nil
}

// ArchiveKey builds the object key for the optional log archive (§6):
// <sessionId>/<archiveName>.tgz.
func ArchiveKey(sessionID, archiveName string) (string, error) {
	if err := validateSegment(sessionID); err != nil {
		return "", fmt.Errorf("sessionId: %w", err)
	}
	if err := validateSegment(archiveName); err != nil {
		return "", fmt.Errorf("archiveName: %w", err)
	}
	return path.Join(sessionID, archiveName), nil
}

// ChunksPrefix returns the key prefix under which a session's chunks live,
// used for listing and bulk deletion.
func ChunksPrefix(sessionID string) (string, error) {
	if err := validateSegment(sessionID); err != nil {
		return "", fmt.Errorf("sessionId: %w", err)
	}
	return path.Join(sessionID, "chunks") + "/", nil
}

// SessionPrefix returns the key prefix for everything belonging to a
// session, used by the cleaner's bulk-delete path.
func SessionPrefix(sessionID string) (string, error) {
	if err := validateSegment(sessionID); err != nil {
		return "", fmt.Errorf("sessionId: %w", err)
	}
	return sessionID + "/", nil
}

// validateSegment rejects path segments that could escape the intended
// object-key namespace (empty, traversal, or embedded separators).
func validateSegment(s string) error {
	if s == "" {
		return fmt.Errorf("empty segment")
	}
	if s == "." || s == ".." {
		return fmt.Errorf("invalid segment: %s", s)
	}
	if strings.ContainsAny(s, "/\\") {
		return fmt.Errorf("segment must not contain a path separator: %s", s)
	}
	return nil
}
