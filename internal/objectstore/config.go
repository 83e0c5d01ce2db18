package objectstore

// Config binds the store to an S3-compatible endpoint (§6).
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PathStyle forces path-style addressing, required by most
	// non-AWS S3-compatible endpoints (MinIO, etc).
	PathStyle bool
}
