package restapi

import (
	"encoding/json"
	"time"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

// registerRequest is the POST /api/sessions body.
type registerRequest struct {
	SessionID         string          `json:"sessionId"`
	ClientID          string          `json:"clientId"`
	ClientHost        string          `json:"clientHost,omitempty"`
	UniqueSessionID   string          `json:"uniqueSessionId,omitempty"`
	OriginalSessionID string          `json:"originalSessionId,omitempty"`
	Status            string          `json:"status,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	Environment       json.RawMessage `json:"environment,omitempty"`
	// RecordingJSON is accepted for wire compatibility with callers that
	// still send it; the controller does not interpret it.
	RecordingJSON json.RawMessage `json:"recordingJson,omitempty"`
}

// sessionDTO is the JSON representation of session.Session returned by
// every endpoint that echoes a full record.
type sessionDTO struct {
	SessionID         string          `json:"sessionId"`
	ClientID          string          `json:"clientId"`
	ClientHost        string          `json:"clientHost,omitempty"`
	UniqueSessionID   string          `json:"uniqueSessionId,omitempty"`
	OriginalSessionID string          `json:"originalSessionId,omitempty"`
	Status            string          `json:"status"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"createdAt"`
	LastHeartbeat     time.Time       `json:"lastHeartbeat"`
	LastChunk         string          `json:"lastChunk,omitempty"`
	RecordingPath     string          `json:"recordingPath,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	Environment       json.RawMessage `json:"environment,omitempty"`
}

func toDTO(s session.Session) sessionDTO {
	return sessionDTO{
		SessionID:         s.SessionID,
		ClientID:          s.ClientID,
		ClientHost:        s.ClientHost,
		UniqueSessionID:   s.UniqueSessionID,
		OriginalSessionID: s.OriginalSessionID,
		Status:            string(s.Status),
		Active:            s.Active,
		CreatedAt:         s.CreatedAt,
		LastHeartbeat:     s.LastHeartbeat,
		LastChunk:         s.LastChunk,
		RecordingPath:     s.RecordingPath,
		Metadata:          s.Metadata,
		Environment:       s.Environment,
	}
}

func toDTOs(sessions []session.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toDTO(s))
	}
	return out
}

type listActiveResponse struct {
	Sessions  []sessionDTO `json:"sessions"`
	Count     int          `json:"count"`
	Timestamp time.Time    `json:"timestamp"`
	Type      string       `json:"type"`
}

type listAllResponse struct {
	Sessions      []sessionDTO `json:"sessions"`
	TotalCount    int          `json:"totalCount"`
	ActiveCount   int          `json:"activeCount"`
	InactiveCount int          `json:"inactiveCount"`
	Timestamp     time.Time    `json:"timestamp"`
	Type          string       `json:"type"`
}

type activeStatusResponse struct {
	SessionID string    `json:"sessionId"`
	Active    bool      `json:"active"`
	Timestamp time.Time `json:"timestamp"`
}

type heartbeatRequest struct {
	LastChunk string `json:"lastChunk,omitempty"`
}

type heartbeatResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	LastChunk string    `json:"lastChunk,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateStatusResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type updateRecordingPathRequest struct {
	RecordingPath string `json:"recordingPath"`
}

type updateRecordingPathResponse struct {
	Message       string    `json:"message"`
	SessionID     string    `json:"sessionId"`
	RecordingPath string    `json:"recordingPath"`
	Timestamp     time.Time `json:"timestamp"`
}

type simpleMessageResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

type deactivateResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type cleanupResponse struct {
	Message         string    `json:"message"`
	RemovedSessions int       `json:"removedSessions"`
	Timestamp       time.Time `json:"timestamp"`
}

type healthResponse struct {
	Status           string    `json:"status"`
	ActiveSessions   int       `json:"activeSessions"`
	TotalSessions    int       `json:"totalSessions"`
	InactiveSessions int       `json:"inactiveSessions"`
	Timestamp        time.Time `json:"timestamp"`
	Service          string    `json:"service"`
}
