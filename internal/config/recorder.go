package config

import (
	"time"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/auth"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/objectstore"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/recorder"
)

// RecorderEnv holds one recording process's runtime settings: identity,
// how to reach the controller, and the pipeline's tunables (§6).
type RecorderEnv struct {
	SessionID  string
	ClientID   string
	ClientHost string

	ControllerBaseURL string
	Creds             auth.Credentials
	ControllerTimeout time.Duration

	Pipeline recorder.Config
	Store    objectstore.Config
}

// ReadRecorderEnv reads one recorder process's configuration from the
// environment. SessionID/ClientID are required by the caller (typically
// supplied as CLI flags rather than environment, but env fallbacks are
// honored here for container-orchestrated deployments).
func ReadRecorderEnv() RecorderEnv {
	pipeline := recorder.DefaultConfig()
	pipeline.StorageMode = recorder.StorageMode(ParseString("STORAGE_MODE", string(pipeline.StorageMode)))
	pipeline.RecordingsRoot = ParseString("RECORDINGS_ROOT", pipeline.RecordingsRoot)
	pipeline.ChunkFolder = ParseString("CHUNK_FOLDER", pipeline.ChunkFolder)
	pipeline.ChunkTimeSize = ParseDuration("CHUNK_TIME_SIZE", pipeline.ChunkTimeSize)
	pipeline.StartChunk = ParseInt("START_CHUNK", pipeline.StartChunk)
	pipeline.Resolution = ParseString("RESOLUTION", pipeline.Resolution)
	pipeline.Framerate = ParseInt("FRAMERATE", pipeline.Framerate)
	pipeline.VideoFormat = ParseString("VIDEO_FORMAT", pipeline.VideoFormat)
	pipeline.OnlyVideo = ParseBool("ONLY_VIDEO", pipeline.OnlyVideo)
	pipeline.Bucket = ParseString("BUCKET", pipeline.Bucket)
	pipeline.Endpoint = ParseString("ENDPOINT", pipeline.Endpoint)
	pipeline.HeartbeatInterval = ParseDuration("HEARTBEAT_INTERVAL", pipeline.HeartbeatInterval)
	pipeline.HeartbeatDedupRedisAddr = ParseString("HEARTBEAT_DEDUP_REDIS_ADDR", pipeline.HeartbeatDedupRedisAddr)
	pipeline.UploadTimeout = ParseDuration("UPLOAD_TIMEOUT", pipeline.UploadTimeout)
	pipeline.UploadAttempts = ParseInt("UPLOAD_ATTEMPTS", pipeline.UploadAttempts)
	pipeline.UploadPoolSize = ParseInt("UPLOAD_POOL_SIZE", pipeline.UploadPoolSize)
	pipeline.RetrySweepPeriod = ParseDuration("RETRY_SWEEP_PERIOD", pipeline.RetrySweepPeriod)
	pipeline.DownloadBulkTimeout = ParseDuration("DOWNLOAD_BULK_TIMEOUT", pipeline.DownloadBulkTimeout)
	pipeline.DownloadAttempts = ParseInt("DOWNLOAD_ATTEMPTS", pipeline.DownloadAttempts)
	pipeline.ConcatTimeout = ParseDuration("CONCAT_TIMEOUT", pipeline.ConcatTimeout)
	pipeline.MinArtifactBytes = int64(ParseInt("MIN_ARTIFACT_BYTES", int(pipeline.MinArtifactBytes)))
	pipeline.CleanerMinArtifactBytes = int64(ParseInt("CLEANER_MIN_ARTIFACT_BYTES", int(pipeline.CleanerMinArtifactBytes)))
	pipeline.ShutdownGrace = ParseDuration("SHUTDOWN_GRACE", pipeline.ShutdownGrace)

	return RecorderEnv{
		SessionID:         ParseString("SESSION_ID", ""),
		ClientID:          ParseString("CLIENT_ID", ""),
		ClientHost:        ParseString("CLIENT_HOST", ""),
		ControllerBaseURL: ParseString("CONTROLLER_BASE_URL", "http://localhost:8080"),
		Creds: auth.Credentials{
			Username: ParseString("AUTH_USERNAME", "admin"),
			Password: ParseString("AUTH_PASSWORD", ""),
		},
		ControllerTimeout: ParseDuration("CONTROLLER_TIMEOUT", 5*time.Second),
		Pipeline:          pipeline,
		Store: objectstore.Config{
			Endpoint:  ParseString("ENDPOINT", ""),
			Bucket:    ParseString("BUCKET", ""),
			Region:    ParseString("AWS_REGION", ""),
			AccessKey: ParseString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: ParseString("AWS_SECRET_ACCESS_KEY", ""),
			PathStyle: ParseBool("S3_PATH_STYLE", true),
		},
	}
}
