package restapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

// Handlers holds the session service the REST surface fronts.
type Handlers struct {
	svc *session.Service
}

// NewHandlers builds a Handlers bound to svc.
func NewHandlers(svc *session.Service) *Handlers {
	return &Handlers{svc: svc}
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	if req.ClientHost == "" {
		req.ClientHost = clientIP(r)
	}

	s, err := h.svc.RegisterSession(r.Context(), session.RegisterInput{
		SessionID:         req.SessionID,
		ClientID:          req.ClientID,
		ClientHost:        req.ClientHost,
		UniqueSessionID:   req.UniqueSessionID,
		OriginalSessionID: req.OriginalSessionID,
		Status:            req.Status,
		Metadata:          req.Metadata,
		Environment:       req.Environment,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.AuditInfo(r.Context(), "session.registered", "session registered", map[string]any{
		"session_id": s.SessionID,
		"client_id":  s.ClientID,
	})
	respondJSON(w, http.StatusCreated, toDTO(s))
}

func (h *Handlers) listActive(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListActive(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listActiveResponse{
		Sessions:  toDTOs(sessions),
		Count:     len(sessions),
		Timestamp: time.Now().UTC(),
		Type:      "active",
	})
}

func (h *Handlers) listAll(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListAll(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	active := 0
	for _, s := range sessions {
		if s.Active {
			active++
		}
	}
	respondJSON(w, http.StatusOK, listAllResponse{
		Sessions:      toDTOs(sessions),
		TotalCount:    len(sessions),
		ActiveCount:   active,
		InactiveCount: len(sessions) - active,
		Timestamp:     time.Now().UTC(),
		Type:          "all",
	})
}

func (h *Handlers) listInactive(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListInactive(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listActiveResponse{
		Sessions:  toDTOs(sessions),
		Count:     len(sessions),
		Timestamp: time.Now().UTC(),
		Type:      "inactive",
	})
}

func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toDTO(s))
}

func (h *Handlers) isActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	active, err := h.svc.IsActive(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, activeStatusResponse{
		SessionID: id,
		Active:    active,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) heartbeat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req heartbeatRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "malformed JSON body")
			return
		}
	}

	s, err := h.svc.Heartbeat(r.Context(), id, req.LastChunk)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, heartbeatResponse{
		Message:   "heartbeat recorded",
		SessionID: id,
		Timestamp: time.Now().UTC(),
		LastChunk: s.LastChunk,
	})
}

func (h *Handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	status, ok := session.ParseStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid status value")
		return
	}

	s, err := h.svc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updateStatusResponse{
		Message:   "status updated",
		SessionID: id,
		Status:    string(s.Status),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) updateRecordingPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRecordingPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	s, err := h.svc.UpdateRecordingPath(r.Context(), id, req.RecordingPath)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updateRecordingPathResponse{
		Message:       "recording path updated",
		SessionID:     id,
		RecordingPath: s.RecordingPath,
		Timestamp:     time.Now().UTC(),
	})
}

func (h *Handlers) stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.StopSession(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, simpleMessageResponse{
		Message:   "session stopping",
		SessionID: id,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Deactivate(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, deactivateResponse{
		Message:   "session deactivated",
		SessionID: id,
		Status:    string(session.StatusInactive),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) deregister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Deregister(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, simpleMessageResponse{
		Message:   "session deleted",
		SessionID: id,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.Cleanup(r.Context(), 24)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cleanupResponse{
		Message:         "cleanup complete",
		RemovedSessions: removed,
		Timestamp:       time.Now().UTC(),
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Count(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		ActiveSessions:   counts.Active,
		TotalSessions:    counts.Total,
		InactiveSessions: counts.Inactive,
		Timestamp:        time.Now().UTC(),
		Service:          "ha-recorder-controller",
	})
}
