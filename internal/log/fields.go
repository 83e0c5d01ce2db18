// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID       = "session_id"
	FieldCorrelationID   = "correlation_id"
	FieldRequestID       = "request_id"
	FieldClientRequestID = "client_request_id"
	FieldJobID           = "job_id"
	FieldOwnerID         = "owner_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"

	// Recorder chunk-pipeline fields
	FieldChunkName     = "chunk_name"
	FieldChunkSeq      = "chunk_seq"
	FieldAttempt       = "attempt"
	FieldBucket        = "bucket"
	FieldObjectKey     = "object_key"
	FieldArtifactBytes = "artifact_bytes"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath      = "path"
	FieldBaseURL   = "base_url"
	FieldFinalPath = "final_path"
)
