package config

import (
	"testing"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/recorder"
)

func TestReadRecorderEnvDefaults(t *testing.T) {
	env := ReadRecorderEnv()
	if env.Pipeline.StorageMode != recorder.StorageModeLocal {
		t.Errorf("StorageMode = %q, want local", env.Pipeline.StorageMode)
	}
	if env.Pipeline.ChunkTimeSize != recorder.DefaultConfig().ChunkTimeSize {
		t.Errorf("ChunkTimeSize = %v, want default", env.Pipeline.ChunkTimeSize)
	}
}

func TestReadRecorderEnvOverride(t *testing.T) {
	t.Setenv("STORAGE_MODE", "s3")
	t.Setenv("BUCKET", "my-bucket")

	env := ReadRecorderEnv()
	if env.Pipeline.StorageMode != recorder.StorageModeS3 {
		t.Errorf("StorageMode = %q, want s3", env.Pipeline.StorageMode)
	}
	if env.Pipeline.Bucket != "my-bucket" {
		t.Errorf("Pipeline.Bucket = %q, want my-bucket", env.Pipeline.Bucket)
	}
	if env.Store.Bucket != "my-bucket" {
		t.Errorf("Store.Bucket = %q, want my-bucket", env.Store.Bucket)
	}
}
