package recorder

import "time"

// StorageMode selects where chunks and the final artifact ultimately
// live.
type StorageMode string

const (
	StorageModeLocal StorageMode = "local"
	StorageModeS3    StorageMode = "s3"
)

// Config is the recorder pipeline's configuration table (§6).
type Config struct {
	StorageMode StorageMode

	RecordingsRoot string // "/recordings"
	ChunkFolder    string // subdir name under /recordings/<id>/, default "chunks"

	ChunkTimeSize  time.Duration // seconds per segment
	StartChunk     int           // numeric start if no prior chunks
	Resolution     string        // WIDTHxHEIGHT
	Framerate      int
	VideoFormat    string // container extension, e.g. "mp4"
	OnlyVideo      bool

	Bucket   string
	Endpoint string

	HeartbeatInterval       time.Duration // recorder heartbeat cadence
	HeartbeatDedupRedisAddr string        // "" uses an in-memory dedup cache instead
	UploadTimeout     time.Duration // per-chunk upload timeout
	UploadAttempts    int
	UploadPoolSize    int           // concurrent upload workers
	RetrySweepPeriod  time.Duration // retry-daemon sweep interval

	DownloadBulkTimeout time.Duration
	DownloadAttempts    int

	ConcatTimeout       time.Duration
	MinArtifactBytes    int64
	CleanerMinArtifactBytes int64

	ShutdownGrace time.Duration // post-capture uploader drain window
}

// DefaultConfig mirrors §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		StorageMode:             StorageModeLocal,
		RecordingsRoot:          "/recordings",
		ChunkFolder:             "chunks",
		ChunkTimeSize:           10 * time.Second,
		StartChunk:              0,
		Resolution:              "1280x720",
		Framerate:               25,
		VideoFormat:             "mp4",
		OnlyVideo:               false,
		HeartbeatInterval:       10 * time.Second,
		UploadTimeout:           30 * time.Second,
		UploadAttempts:          3,
		UploadPoolSize:          4,
		RetrySweepPeriod:        120 * time.Second,
		DownloadBulkTimeout:     300 * time.Second,
		DownloadAttempts:        3,
		ConcatTimeout:           300 * time.Second,
		MinArtifactBytes:        1024,
		CleanerMinArtifactBytes: 1_048_576,
		ShutdownGrace:           10 * time.Second,
	}
}
