// Package session implements the HA session controller's core: the
// session lifecycle store, its status state machine, and the service
// that fronts both for the REST surface and the reaper.
package session

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Status is the lifecycle state of a recording session.
type Status string

const (
	StatusStarting  Status = "STARTING"
	StatusRecording Status = "RECORDING"
	StatusPaused    Status = "PAUSED"
	StatusStopping  Status = "STOPPING"
	StatusStopped   Status = "STOPPED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusInactive  Status = "INACTIVE"
)

// chunkNamePattern matches the 4-digit, zero-padded chunk filename scheme
// the capture engine emits: 0001.mp4, 0002.mp4, ...
var chunkNamePattern = regexp.MustCompile(`^[0-9]{4}\.mp4$`)

// IsValidChunkName reports whether name matches the chunk naming scheme.
func IsValidChunkName(name string) bool {
	return chunkNamePattern.MatchString(name)
}

// ParseStatus maps a case-insensitive REST-layer status string (including
// its documented aliases) to a Status. ok is false for anything
// unrecognized.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "started", "starting":
		return StatusStarting, true
	case "recording":
		return StatusRecording, true
	case "paused":
		return StatusPaused, true
	case "stopping", "stopped":
		return StatusStopping, true
	case "completed":
		return StatusCompleted, true
	case "failed":
		return StatusFailed, true
	case "inactive":
		return StatusInactive, true
	default:
		return "", false
	}
}

// Session is a controller-tracked recording instance.
type Session struct {
	SessionID         string          `json:"sessionId"`
	ClientID          string          `json:"clientId"`
	ClientHost        string          `json:"clientHost,omitempty"`
	UniqueSessionID   string          `json:"uniqueSessionId,omitempty"`
	OriginalSessionID string          `json:"originalSessionId,omitempty"`
	Status            Status          `json:"status"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"createdAt"`
	LastHeartbeat     time.Time       `json:"lastHeartbeat"`
	LastChunk         string          `json:"lastChunk,omitempty"`
	RecordingPath     string          `json:"recordingPath,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	Environment       json.RawMessage `json:"environment,omitempty"`
}

// IsTerminal reports whether status is COMPLETED or FAILED, which admit no
// further transition except to INACTIVE (or an explicit delete).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsLive reports whether status represents an in-progress recording:
// STARTING, RECORDING, PAUSED or STOPPING. STOPPED is neither live nor
// terminal.
func (s Status) IsLive() bool {
	switch s {
	case StatusStarting, StatusRecording, StatusPaused, StatusStopping:
		return true
	default:
		return false
	}
}

// Clone returns a deep-enough copy of s suitable for returning from the
// service layer without exposing the store's internal reference.
func (s Session) Clone() Session {
	out := s
	if s.Metadata != nil {
		out.Metadata = append(json.RawMessage(nil), s.Metadata...)
	}
	if s.Environment != nil {
		out.Environment = append(json.RawMessage(nil), s.Environment...)
	}
	return out
}
