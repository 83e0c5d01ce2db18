package recorder

import (
	"context"
	"io"
)

// ChunkUploader is the subset of objectstore.Store the Uploader needs,
// narrowed so tests can substitute a fake.
type ChunkUploader interface {
	PutChunk(ctx context.Context, sessionID, chunkName string, r io.Reader) error
	// HeadChunk reports whether a chunk already exists remotely and its
	// size, letting the uploader skip a chunk the object store already
	// has rather than re-uploading it.
	HeadChunk(ctx context.Context, sessionID, chunkName string) (exists bool, size int64, err error)
}

// ChunkDownloader is the subset of objectstore.Store the Downloader needs.
type ChunkDownloader interface {
	ListChunks(ctx context.Context, sessionID string) ([]string, error)
	GetChunk(ctx context.Context, sessionID, chunkName string, w io.WriterAt) error
}

// ChunkRemover is the subset of objectstore.Store the Cleaner needs. It
// carries both the default chunks-only deletion and the explicit
// entire-directory deletion (logs, metadata included) the Cleaner only
// reaches for when an entire-directory mode is requested (§4.9).
type ChunkRemover interface {
	ListChunks(ctx context.Context, sessionID string) ([]string, error)
	DeleteChunks(ctx context.Context, sessionID string) (int, error)
	DeleteSession(ctx context.Context, sessionID string) (int, error)
}

// ArchiveUploader is the subset of objectstore.Store the coordinator's
// best-effort log upload needs.
type ArchiveUploader interface {
	PutArchive(ctx context.Context, sessionID, archiveName string, r io.Reader) error
}
